package filter

import (
	"slices"
	"sync"

	"github.com/rsilvagit/go-empleo/internal/model"
)

// State is the mutable holder of the current Filters. Every change
// notifies subscribers synchronously, after the lock is released.
type State struct {
	mu          sync.Mutex
	current     Filters
	subscribers []func(Filters)
}

func NewState() *State {
	return &State{current: Defaults()}
}

// Filters returns a snapshot of the current criteria.
func (s *State) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.current)
}

// Subscribe registers fn to be called with the new criteria after every change.
func (s *State) Subscribe(fn func(Filters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *State) SetQuery(q string) {
	s.update(func(f *Filters) { f.Query = q })
}

func (s *State) SetLocation(loc string) {
	s.update(func(f *Filters) { f.Location = loc })
}

func (s *State) SetType(t model.EmploymentType) {
	s.update(func(f *Filters) { f.Type = t })
}

func (s *State) SetRemoteOnly(on bool) {
	s.update(func(f *Filters) { f.RemoteOnly = on })
}

// SetSalaryMin sets the salary floor; nil removes it.
func (s *State) SetSalaryMin(v *float64) {
	s.update(func(f *Filters) { f.SalaryMin = copyFloat(v) })
}

// SetSalaryMax sets the salary ceiling; nil removes it.
func (s *State) SetSalaryMax(v *float64) {
	s.update(func(f *Filters) { f.SalaryMax = copyFloat(v) })
}

// Replace swaps in a whole set of criteria with a single notification.
func (s *State) Replace(f Filters) {
	s.update(func(cur *Filters) { *cur = clone(f) })
}

// Clear resets every field to its default in one update.
func (s *State) Clear() {
	s.Replace(Defaults())
}

func (s *State) update(mutate func(*Filters)) {
	s.mu.Lock()
	mutate(&s.current)
	snapshot := clone(s.current)
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func clone(f Filters) Filters {
	f.SalaryMin = copyFloat(f.SalaryMin)
	f.SalaryMax = copyFloat(f.SalaryMax)
	return f
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
