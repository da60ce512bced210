package search

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rsilvagit/go-empleo/internal/model"
	"github.com/rsilvagit/go-empleo/internal/telemetry"
)

const (
	defaultDashboardQuery = "desarrollador"
	dashboardRankedTopN   = 10
	dashboardRecommended  = 3
	dashboardRecentLimit  = 20
	dashboardRecent       = 5
)

// Recommended returns up to n ranked postings for query using the active
// method. When ranked search fails it falls back to the first n postings
// of the listing. The loaded result set is left alone.
func (o *Orchestrator) Recommended(ctx context.Context, query string, n int) ([]model.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "Recommended")
	defer span.End()
	span.SetAttributes(telemetry.Query(query), telemetry.TopN(n))

	o.mu.Lock()
	method := o.activeMethod
	o.mu.Unlock()

	if strings.TrimSpace(query) != "" {
		fctx, cancel := o.timeout(ctx)
		page, err := o.src.FetchRankedJobs(fctx, query, n, method)
		cancel()
		if err == nil {
			return page.Jobs, nil
		}
		o.logger.Warn("recommendations unavailable, falling back to listing",
			zap.String("query", query), zap.Error(err))
	}

	fctx, cancel := o.timeout(ctx)
	defer cancel()
	page, err := o.src.FetchAllJobs(fctx, 0, n)
	if err != nil {
		span.RecordError(err)
		return nil, classify(fctx, err)
	}
	return page.Jobs, nil
}

// Dashboard holds the two short lists shown on the home screen.
type Dashboard struct {
	Recommended []model.JobPosting
	Recent      []model.JobPosting
}

// Dashboard builds the home screen lists for user. The recommendation
// query is the user's professional title, or a generic one without it.
func (o *Orchestrator) Dashboard(ctx context.Context, user *model.User) (Dashboard, error) {
	query := defaultDashboardQuery
	if user != nil && strings.TrimSpace(user.ProfessionalTitle) != "" {
		query = strings.TrimSpace(user.ProfessionalTitle)
	}

	var (
		d Dashboard
		g errgroup.Group
	)
	g.Go(func() error {
		jobs, err := o.Recommended(ctx, query, dashboardRankedTopN)
		if err != nil {
			return err
		}
		d.Recommended = jobs[:min(len(jobs), dashboardRecommended)]
		return nil
	})
	g.Go(func() error {
		fctx, cancel := o.timeout(ctx)
		defer cancel()
		page, err := o.src.FetchAllJobs(fctx, 0, dashboardRecentLimit)
		if err != nil {
			return classify(fctx, err)
		}
		d.Recent = page.Jobs[:min(len(page.Jobs), dashboardRecent)]
		return nil
	})
	if err := g.Wait(); err != nil {
		return d, err
	}
	return d, nil
}
