package model

import "sort"

// DefaultSearchMethod is used until the server tells us which method it recommends.
const DefaultSearchMethod = "hybrid"

// SearchMethod describes one server-side ranking strategy.
type SearchMethod struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UseCase     string `json:"use_case"`
}

type SearchMethods struct {
	Methods     map[string]SearchMethod
	Recommended string
}

// IDs returns the method identifiers in a stable order.
func (m SearchMethods) IDs() []string {
	ids := make([]string, 0, len(m.Methods))
	for id := range m.Methods {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m SearchMethods) Lookup(id string) (SearchMethod, bool) {
	sm, ok := m.Methods[id]
	return sm, ok
}

func (m SearchMethods) Loaded() bool {
	return len(m.Methods) > 0
}
