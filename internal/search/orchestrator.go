// Package search owns the result set shown to the user. It decides between
// ranked search and the paginated listing, guards against out-of-order
// responses and keeps the locally refined view in step with the filters.
package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
	"github.com/rsilvagit/go-empleo/internal/filter"
	"github.com/rsilvagit/go-empleo/internal/model"
	"github.com/rsilvagit/go-empleo/internal/source"
	"github.com/rsilvagit/go-empleo/internal/telemetry"
)

var tracer = telemetry.GetTracer("go-empleo/search")

type Status int

const (
	Idle Status = iota
	LoadingInitial
	Ready
	Searching
	LoadingMore
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingInitial:
		return "loading-initial"
	case Ready:
		return "ready"
	case Searching:
		return "searching"
	case LoadingMore:
		return "loading-more"
	case Error:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) busy() bool {
	return s == LoadingInitial || s == Searching || s == LoadingMore
}

// Mode tells where the loaded postings came from.
type Mode int

const (
	ModeListing Mode = iota
	ModeRanked
)

func (m Mode) String() string {
	if m == ModeRanked {
		return "ranked"
	}
	return "listing"
}

type Options struct {
	PageSize       int
	TopN           int
	DefaultMethod  string
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	if o.TopN <= 0 {
		o.TopN = 20
	}
	if o.DefaultMethod == "" {
		o.DefaultMethod = model.DefaultSearchMethod
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 5 * time.Second
	}
	return o
}

// View is an immutable snapshot of the orchestrator state.
type View struct {
	Visible      []model.JobPosting
	Loaded       []model.JobPosting
	Total        int
	Offset       int
	Mode         Mode
	Query        string
	Status       Status
	Err          error
	Message      string
	ActiveMethod string
	Methods      model.SearchMethods
	CanLoadMore  bool
}

type Orchestrator struct {
	src     source.Source
	filters *filter.State
	opts    Options
	logger  *zap.Logger

	mu           sync.Mutex
	status       Status
	err          error
	mode         Mode
	query        string
	jobs         []model.JobPosting
	visible      []model.JobPosting
	total        int
	offset       int
	windowStart  int
	activeMethod string
	methodPicked bool
	methods      model.SearchMethods
	seq          uint64
}

func New(src source.Source, filters *filter.State, opts Options, logger *zap.Logger) *Orchestrator {
	opts = opts.withDefaults()
	o := &Orchestrator{
		src:          src,
		filters:      filters,
		opts:         opts,
		logger:       logger,
		activeMethod: opts.DefaultMethod,
		jobs:         []model.JobPosting{},
		visible:      []model.JobPosting{},
	}
	filters.Subscribe(func(filter.Filters) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.refine()
	})
	return o
}

// refine recomputes the visible postings. Callers hold o.mu.
func (o *Orchestrator) refine() {
	o.visible = filter.Apply(o.jobs, o.filters.Filters())
}

// begin issues a new sequence number and moves to status s.
func (o *Orchestrator) begin(s Status) uint64 {
	o.seq++
	o.status = s
	return o.seq
}

// fail records err when seq is still the latest request.
func (o *Orchestrator) fail(seq uint64, op string, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		o.logger.Debug("discarding stale failure", zap.String("op", op), zap.Uint64("seq", seq))
		return nil
	}
	o.status = Error
	o.err = err
	o.logger.Warn("fetch failed", zap.String("op", op), zap.Error(err))
	return err
}

func (o *Orchestrator) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.opts.RequestTimeout)
}

// classify turns bare context errors into NETWORK errors.
func classify(ctx context.Context, err error) error {
	var de *apperrors.DomainError
	if stderrors.As(err, &de) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return apperrors.Network("request timed out", err)
	}
	return apperrors.Network("request failed", err)
}

// ── Initial load ───────────────────────────────────────────────────────────

// Init loads the first listing page and the search method catalogue
// concurrently. A catalogue failure only leaves the default method active.
func (o *Orchestrator) Init(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Init")
	defer span.End()

	o.mu.Lock()
	if o.status != Idle && o.status != Error {
		o.mu.Unlock()
		return nil
	}
	seq := o.begin(LoadingInitial)
	o.mu.Unlock()

	var (
		g       errgroup.Group
		page    model.ListPage
		methods model.SearchMethods
		mErr    error
	)
	g.Go(func() error {
		fctx, cancel := o.timeout(ctx)
		defer cancel()
		var err error
		if page, err = o.src.FetchAllJobs(fctx, 0, o.opts.PageSize); err != nil {
			return classify(fctx, err)
		}
		return nil
	})
	g.Go(func() error {
		fctx, cancel := o.timeout(ctx)
		defer cancel()
		if methods, mErr = o.src.FetchSearchMethods(fctx); mErr != nil {
			mErr = classify(fctx, mErr)
		}
		return nil
	})
	err := g.Wait()

	o.mu.Lock()
	if mErr != nil {
		o.logger.Warn("search methods unavailable, keeping default",
			zap.String("method", o.activeMethod), zap.Error(mErr))
	} else {
		o.methods = methods
		if !o.methodPicked && methods.Recommended != "" {
			o.activeMethod = methods.Recommended
		}
	}
	o.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		return o.fail(seq, "init", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		return nil
	}
	o.mode = ModeListing
	o.query = ""
	o.offset = 0
	o.windowStart = 0
	o.commitListing(page.Jobs, page.Total)
	o.logger.Info("initial load done",
		zap.Int("loaded", len(o.jobs)),
		zap.Int("total", o.total),
		zap.String("method", o.activeMethod))
	return nil
}

// commitListing replaces the loaded postings. Callers hold o.mu.
func (o *Orchestrator) commitListing(jobs []model.JobPosting, total int) {
	o.jobs = append([]model.JobPosting{}, jobs...)
	o.total = max(total, o.windowStart+len(o.jobs))
	o.status = Ready
	o.err = nil
	o.refine()
}

// ── Search ─────────────────────────────────────────────────────────────────

// Search runs the query currently held by the filter state. A non-empty
// query goes to ranked search; an empty one reloads the listing page at
// the current cursor. Loaded postings stay visible while in flight.
func (o *Orchestrator) Search(ctx context.Context) error {
	query := strings.TrimSpace(o.filters.Filters().Query)

	o.mu.Lock()
	seq := o.begin(Searching)
	method := o.activeMethod
	offset := o.offset
	o.mu.Unlock()

	if query == "" {
		return o.searchListing(ctx, seq, offset)
	}
	return o.searchRanked(ctx, seq, query, method)
}

func (o *Orchestrator) searchRanked(ctx context.Context, seq uint64, query, method string) error {
	ctx, span := tracer.Start(ctx, "SearchRanked")
	defer span.End()
	span.SetAttributes(telemetry.Query(query), telemetry.Method(method))

	fctx, cancel := o.timeout(ctx)
	defer cancel()

	page, err := o.src.FetchRankedJobs(fctx, query, o.opts.TopN, method)
	if err != nil {
		span.RecordError(err)
		return o.fail(seq, "ranked search", classify(fctx, err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		o.logger.Debug("discarding stale ranked response", zap.String("query", query), zap.Uint64("seq", seq))
		return nil
	}
	o.mode = ModeRanked
	o.query = query
	o.jobs = append([]model.JobPosting{}, page.Jobs...)
	o.total = max(page.Total, len(page.Jobs))
	o.status = Ready
	o.err = nil
	o.refine()
	o.logger.Info("ranked search done",
		zap.String("query", query),
		zap.String("method", method),
		zap.Int("returned", len(o.jobs)),
		zap.Int("total", o.total))
	return nil
}

func (o *Orchestrator) searchListing(ctx context.Context, seq uint64, offset int) error {
	ctx, span := tracer.Start(ctx, "SearchListing")
	defer span.End()
	span.SetAttributes(telemetry.Page(offset, o.opts.PageSize)...)

	fctx, cancel := o.timeout(ctx)
	defer cancel()

	page, err := o.src.FetchAllJobs(fctx, offset, o.opts.PageSize)
	if err != nil {
		span.RecordError(err)
		return o.fail(seq, "listing", classify(fctx, err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		o.logger.Debug("discarding stale listing response", zap.Int("offset", offset), zap.Uint64("seq", seq))
		return nil
	}
	o.mode = ModeListing
	o.query = ""
	o.windowStart = offset
	o.commitListing(page.Jobs, page.Total)
	return nil
}

// ── Pagination ─────────────────────────────────────────────────────────────

// LoadMore appends the next listing page. It does nothing while a query
// is active, while another fetch is in flight or once everything is loaded.
func (o *Orchestrator) LoadMore(ctx context.Context) error {
	query := o.filters.Filters().Query

	o.mu.Lock()
	if !o.canLoadMore(query) {
		o.mu.Unlock()
		return nil
	}
	seq := o.begin(LoadingMore)
	next := o.offset + o.opts.PageSize
	o.mu.Unlock()

	ctx, span := tracer.Start(ctx, "LoadMore")
	defer span.End()
	span.SetAttributes(telemetry.Page(next, o.opts.PageSize)...)

	fctx, cancel := o.timeout(ctx)
	defer cancel()

	page, err := o.src.FetchAllJobs(fctx, next, o.opts.PageSize)
	if err != nil {
		span.RecordError(err)
		return o.fail(seq, "load more", classify(fctx, err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		o.logger.Debug("discarding stale page", zap.Int("offset", next), zap.Uint64("seq", seq))
		return nil
	}

	seen := make(map[string]struct{}, len(o.jobs))
	for _, j := range o.jobs {
		seen[j.Key()] = struct{}{}
	}
	added := 0
	for _, j := range page.Jobs {
		if _, dup := seen[j.Key()]; dup {
			continue
		}
		seen[j.Key()] = struct{}{}
		o.jobs = append(o.jobs, j)
		added++
	}
	o.offset = next
	o.total = max(page.Total, o.windowStart+len(o.jobs))
	if len(page.Jobs) == 0 {
		o.total = o.windowStart + len(o.jobs)
	}
	o.status = Ready
	o.err = nil
	o.refine()
	o.logger.Debug("loaded more",
		zap.Int("offset", next),
		zap.Int("added", added),
		zap.Int("loaded", len(o.jobs)),
		zap.Int("total", o.total))
	return nil
}

// canLoadMore reports whether another listing page may be requested.
// Callers hold o.mu.
func (o *Orchestrator) canLoadMore(query string) bool {
	if strings.TrimSpace(query) != "" || o.mode != ModeListing {
		return false
	}
	if o.status.busy() || o.status == Idle {
		return false
	}
	return o.windowStart+len(o.jobs) < o.total
}

// ── Methods ────────────────────────────────────────────────────────────────

// SelectMethod makes id the active ranking method. With a query in the
// filters the ranked search is re-run and its results replace the set.
func (o *Orchestrator) SelectMethod(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	o.mu.Lock()
	if id == "" {
		o.mu.Unlock()
		return apperrors.InvalidInput("método de búsqueda vacío", nil)
	}
	if o.methods.Loaded() {
		if _, ok := o.methods.Lookup(id); !ok {
			o.mu.Unlock()
			return apperrors.InvalidInput(fmt.Sprintf("método de búsqueda desconocido %q", id), nil)
		}
	}
	o.activeMethod = id
	o.methodPicked = true
	o.mu.Unlock()

	o.logger.Info("search method selected", zap.String("method", id))

	if strings.TrimSpace(o.filters.Filters().Query) == "" {
		return nil
	}
	return o.Search(ctx)
}

// ── Snapshot ───────────────────────────────────────────────────────────────

func (o *Orchestrator) Snapshot() View {
	query := o.filters.Filters().Query

	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		Visible:      append([]model.JobPosting{}, o.visible...),
		Loaded:       append([]model.JobPosting{}, o.jobs...),
		Total:        o.total,
		Offset:       o.offset,
		Mode:         o.mode,
		Query:        o.query,
		Status:       o.status,
		Err:          o.err,
		ActiveMethod: o.activeMethod,
		Methods:      o.methods,
		CanLoadMore:  o.canLoadMore(query),
	}
	if o.err != nil {
		v.Message = apperrors.UserMessage(o.err)
	}
	return v
}
