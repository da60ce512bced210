package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
)

// JobID identifies a posting. The API sends it either as a JSON string or
// as a JSON number; both are kept in their decimal/string form.
type JobID string

func (id *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = JobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model: job id %s is neither string nor number", data)
	}
	*id = JobID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers.
func (id JobID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id JobID) String() string { return string(id) }

// EmploymentType is the contract kind of a posting. The zero value means
// unspecified (or "any" when used as a filter).
type EmploymentType string

const (
	FullTime   EmploymentType = "full-time"
	PartTime   EmploymentType = "part-time"
	Contract   EmploymentType = "contract"
	Internship EmploymentType = "internship"
	Remote     EmploymentType = "remote"
)

var EmploymentTypes = []EmploymentType{FullTime, PartTime, Contract, Internship, Remote}

func ParseEmploymentType(s string) (EmploymentType, error) {
	t := EmploymentType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return "", nil
	}
	for _, known := range EmploymentTypes {
		if t == known {
			return t, nil
		}
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("tipo de trabajo desconocido %q", s), nil)
}

type Salary struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// JobPosting is a single listing as the UI sees it. Rank and
// SimilarityScore are only set on ranked search results.
type JobPosting struct {
	ID              JobID          `json:"id"`
	Title           string         `json:"title"`
	Company         string         `json:"company"`
	Location        string         `json:"location"`
	Type            EmploymentType `json:"type,omitempty"`
	Salary          *Salary        `json:"salary,omitempty"`
	Description     string         `json:"description"`
	Requirements    []string       `json:"requirements,omitempty"`
	Skills          []string       `json:"skills,omitempty"`
	PostedDate      string         `json:"postedDate,omitempty"`
	Deadline        string         `json:"deadline,omitempty"`
	Remote          *bool          `json:"remote,omitempty"`
	Logo            string         `json:"logo,omitempty"`
	Rank            *int           `json:"rank,omitempty"`
	SimilarityScore *float64       `json:"similarity_score,omitempty"`
}

// Key returns the deduplication key for this posting.
func (j JobPosting) Key() string {
	return string(j.ID)
}

// Ranked reports whether the posting came out of a ranked search.
func (j JobPosting) Ranked() bool {
	return j.Rank != nil && j.SimilarityScore != nil
}

func (j JobPosting) IsRemote() bool {
	return j.Remote != nil && *j.Remote
}

// Unranked returns a copy without rank and score.
func (j JobPosting) Unranked() JobPosting {
	j.Rank = nil
	j.SimilarityScore = nil
	return j
}

// FullText returns the searchable text fields concatenated in lowercase.
func (j JobPosting) FullText() string {
	return strings.ToLower(
		j.Title + " " + j.Company + " " + j.Description + " " +
			strings.Join(j.Skills, " ") + " " + strings.Join(j.Requirements, " "),
	)
}

// Validate checks the structural invariants of a posting.
func (j JobPosting) Validate() error {
	if j.ID == "" {
		return apperrors.InvalidInput("posting without id", nil)
	}
	if (j.Rank == nil) != (j.SimilarityScore == nil) {
		return apperrors.InvalidInput(fmt.Sprintf("posting %s has only one of rank/similarity_score", j.ID), nil)
	}
	if j.Rank != nil && *j.Rank < 1 {
		return apperrors.InvalidInput(fmt.Sprintf("posting %s has rank %d", j.ID, *j.Rank), nil)
	}
	if j.SimilarityScore != nil && (*j.SimilarityScore < 0 || *j.SimilarityScore > 1) {
		return apperrors.InvalidInput(fmt.Sprintf("posting %s has score %v outside [0,1]", j.ID, *j.SimilarityScore), nil)
	}
	if j.Salary != nil && j.Salary.Min > j.Salary.Max {
		return apperrors.InvalidInput(fmt.Sprintf("posting %s has salary min > max", j.ID), nil)
	}
	if j.PostedDate != "" && j.Deadline != "" {
		posted, perr := ParseDate(j.PostedDate)
		deadline, derr := ParseDate(j.Deadline)
		if perr == nil && derr == nil && deadline.Before(posted) {
			return apperrors.InvalidInput(fmt.Sprintf("posting %s has deadline before posted date", j.ID), nil)
		}
	}
	return nil
}

// ParseDate accepts RFC 3339 timestamps and plain dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// RankedPage is the result of a ranked (AI) search.
type RankedPage struct {
	Query  string
	Method string
	Total  int
	Jobs   []JobPosting
}

// ListPage is one page of the bulk listing.
type ListPage struct {
	Total int
	Skip  int
	Limit int
	Jobs  []JobPosting
}

// Acknowledgement is returned by a successful application submission.
type Acknowledgement struct {
	JobID   JobID
	Applied bool
	Message string
}
