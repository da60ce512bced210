package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
	"github.com/rsilvagit/go-empleo/internal/model"
)

// Operation names accepted by Fixture.Fail and Fixture.Gate.
const (
	OpMethods = "methods"
	OpRanked  = "ranked"
	OpList    = "list"
	OpLookup  = "lookup"
	OpApply   = "apply"
)

// Fixture is an in-memory Source. Ranked search scores postings by the
// share of query terms found in their text; ties break on id.
type Fixture struct {
	mu      sync.Mutex
	jobs    []model.JobPosting
	methods model.SearchMethods
	fail    map[string][]error
	gates   map[string][]chan struct{}
	calls   map[string]int
	applied []model.JobID

	lastList   [2]int
	lastRanked RankedCall
}

type RankedCall struct {
	Query  string
	TopN   int
	Method string
}

// NewFixture serves jobs in the given order as the bulk listing.
func NewFixture(jobs []model.JobPosting) *Fixture {
	stored := make([]model.JobPosting, len(jobs))
	for i, j := range jobs {
		stored[i] = j.Unranked()
	}
	return &Fixture{
		jobs:    stored,
		methods: DefaultMethods(),
		fail:    make(map[string][]error),
		gates:   make(map[string][]chan struct{}),
		calls:   make(map[string]int),
	}
}

// DefaultMethods is the method catalogue the fixture advertises.
func DefaultMethods() model.SearchMethods {
	return model.SearchMethods{
		Methods: map[string]model.SearchMethod{
			"title_only": {ID: "title_only", Name: "Solo título", Description: "Compara la consulta con el título del puesto", UseCase: "Búsquedas por cargo exacto"},
			"combined":   {ID: "combined", Name: "Combinado", Description: "Título, descripción y habilidades", UseCase: "Búsquedas generales"},
			"hybrid":     {ID: "hybrid", Name: "Híbrido", Description: "Semántico y por palabras clave", UseCase: "Recomendado para la mayoría de búsquedas"},
		},
		Recommended: model.DefaultSearchMethod,
	}
}

// SetMethods replaces the advertised method catalogue.
func (f *Fixture) SetMethods(m model.SearchMethods) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = m
}

// Fail queues err to be returned by the next call of op. Several queued
// errors are consumed in order.
func (f *Fixture) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = append(f.fail[op], err)
}

// Gate makes the next call of op block until the returned channel is
// closed or the call's context ends.
func (f *Fixture) Gate(op string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[op] = append(f.gates[op], ch)
	return ch
}

// Calls reports how many times op has been invoked.
func (f *Fixture) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Applied returns the ids submitted so far, in order.
func (f *Fixture) Applied() []model.JobID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.JobID(nil), f.applied...)
}

// LastList returns the offset and limit of the latest listing call.
func (f *Fixture) LastList() (offset, limit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastList[0], f.lastList[1]
}

func (f *Fixture) LastRanked() RankedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRanked
}

func (f *Fixture) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	var gate chan struct{}
	if q := f.gates[op]; len(q) > 0 {
		gate, f.gates[op] = q[0], q[1:]
	}
	var err error
	if q := f.fail[op]; len(q) > 0 {
		err, f.fail[op] = q[0], q[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return apperrors.Network("request timed out", ctx.Err())
		}
	}
	return err
}

func (f *Fixture) FetchSearchMethods(ctx context.Context) (model.SearchMethods, error) {
	if err := f.enter(ctx, OpMethods); err != nil {
		return model.SearchMethods{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.methods, nil
}

func (f *Fixture) FetchRankedJobs(ctx context.Context, query string, topN int, method string) (model.RankedPage, error) {
	f.mu.Lock()
	f.lastRanked = RankedCall{Query: query, TopN: topN, Method: method}
	f.mu.Unlock()

	if strings.TrimSpace(query) == "" || topN < 1 {
		return model.RankedPage{}, apperrors.InvalidInput("ranked search needs a query and a positive top_n", nil)
	}
	if err := f.enter(ctx, OpRanked); err != nil {
		return model.RankedPage{}, err
	}

	terms := strings.Fields(strings.ToLower(query))

	f.mu.Lock()
	type scored struct {
		job   model.JobPosting
		score float64
	}
	var matches []scored
	for _, j := range f.jobs {
		text := j.FullText()
		hits := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				hits++
			}
		}
		if hits > 0 {
			matches = append(matches, scored{job: j, score: float64(hits) / float64(len(terms))})
		}
	}
	f.mu.Unlock()

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		return matches[a].job.ID < matches[b].job.ID
	})

	total := len(matches)
	if len(matches) > topN {
		matches = matches[:topN]
	}
	jobs := make([]model.JobPosting, len(matches))
	for i, m := range matches {
		j := m.job
		rank, score := i+1, m.score
		j.Rank, j.SimilarityScore = &rank, &score
		jobs[i] = j
	}
	return model.RankedPage{Query: query, Method: method, Total: total, Jobs: jobs}, nil
}

func (f *Fixture) FetchAllJobs(ctx context.Context, offset, limit int) (model.ListPage, error) {
	f.mu.Lock()
	f.lastList = [2]int{offset, limit}
	f.mu.Unlock()

	if offset < 0 || limit < 1 {
		return model.ListPage{}, apperrors.InvalidInput(fmt.Sprintf("invalid page skip=%d limit=%d", offset, limit), nil)
	}
	if err := f.enter(ctx, OpList); err != nil {
		return model.ListPage{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	page := model.ListPage{Total: len(f.jobs), Skip: offset, Limit: limit, Jobs: []model.JobPosting{}}
	if offset >= len(f.jobs) {
		return page, nil
	}
	end := min(offset+limit, len(f.jobs))
	page.Jobs = append(page.Jobs, f.jobs[offset:end]...)
	return page, nil
}

func (f *Fixture) FetchJobByID(ctx context.Context, id model.JobID) (model.JobPosting, error) {
	if err := f.enter(ctx, OpLookup); err != nil {
		return model.JobPosting{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return model.JobPosting{}, apperrors.NotFound(fmt.Sprintf("job %s not found", id), nil)
}

func (f *Fixture) SubmitApplication(ctx context.Context, id model.JobID) (model.Acknowledgement, error) {
	if err := f.enter(ctx, OpApply); err != nil {
		return model.Acknowledgement{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, id)
	return model.Acknowledgement{JobID: id, Applied: true, Message: "Aplicación enviada correctamente"}, nil
}
