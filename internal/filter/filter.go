package filter

import (
	"strings"

	"github.com/rsilvagit/go-empleo/internal/model"
)

// Filters holds the user's search criteria. Query drives the remote
// search; the remaining fields refine loaded results locally. Zero values
// mean "no filter".
type Filters struct {
	Query      string
	Location   string               // comma-separated alternatives
	Type       model.EmploymentType // exact match
	RemoteOnly bool
	SalaryMin  *float64
	SalaryMax  *float64
}

func Defaults() Filters {
	return Filters{}
}

// Active reports whether any criterion differs from its default.
func (f Filters) Active() bool {
	return strings.TrimSpace(f.Query) != "" || f.refines()
}

// refines reports whether any locally applied criterion is set.
func (f Filters) refines() bool {
	return strings.TrimSpace(f.Location) != "" || f.Type != "" || f.RemoteOnly ||
		f.SalaryMin != nil || f.SalaryMax != nil
}

// Apply returns the postings matching every local criterion. The input
// slice is never modified and never returned as is.
func Apply(jobs []model.JobPosting, f Filters) []model.JobPosting {
	result := make([]model.JobPosting, 0, len(jobs))
	if !f.refines() {
		return append(result, jobs...)
	}

	lo, hi := salaryBounds(f)
	for _, j := range jobs {
		if matchJob(j, f, lo, hi) {
			result = append(result, j)
		}
	}
	return result
}

func matchJob(j model.JobPosting, f Filters, lo, hi *float64) bool {
	if strings.TrimSpace(f.Location) != "" && !containsAny(strings.ToLower(j.Location), f.Location) {
		return false
	}
	if f.Type != "" && j.Type != f.Type {
		return false
	}
	if f.RemoteOnly && !j.IsRemote() {
		return false
	}
	if lo != nil || hi != nil {
		if j.Salary == nil {
			return false
		}
		if lo != nil && j.Salary.Max < *lo {
			return false
		}
		if hi != nil && j.Salary.Min > *hi {
			return false
		}
	}
	return true
}

// salaryBounds returns the floor and ceiling, swapped when inverted.
func salaryBounds(f Filters) (lo, hi *float64) {
	lo, hi = f.SalaryMin, f.SalaryMax
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// containsAny checks if text contains any of the comma-separated terms.
func containsAny(text, terms string) bool {
	for _, term := range strings.Split(terms, ",") {
		term = strings.TrimSpace(strings.ToLower(term))
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}
