// Package source defines the job data operations the orchestrator depends
// on. The live implementation is *gateway.Client; Fixture serves the same
// contract from memory for offline mode and tests.
package source

import (
	"context"

	"github.com/rsilvagit/go-empleo/internal/model"
)

type Source interface {
	FetchSearchMethods(ctx context.Context) (model.SearchMethods, error)
	FetchRankedJobs(ctx context.Context, query string, topN int, method string) (model.RankedPage, error)
	FetchAllJobs(ctx context.Context, offset, limit int) (model.ListPage, error)
	FetchJobByID(ctx context.Context, id model.JobID) (model.JobPosting, error)
	SubmitApplication(ctx context.Context, id model.JobID) (model.Acknowledgement, error)
}
