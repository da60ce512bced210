package apply

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rsilvagit/go-empleo/internal/model"
)

// ErrAlreadyApplied is returned when the account already applied to the job.
var ErrAlreadyApplied = errors.New("apply: already applied to this job")

// Submitter sends an application for a job.
type Submitter interface {
	SubmitApplication(ctx context.Context, id model.JobID) (model.Acknowledgement, error)
}

// Ledger persists the jobs each account has applied to.
type Ledger interface {
	AppliedJobs(ctx context.Context, account string) ([]model.JobID, error)
	RecordApplied(ctx context.Context, account string, id model.JobID) error
}

// Service sends applications and remembers them per account. Concurrent
// applications to the same job share one request.
type Service struct {
	src     Submitter
	ledger  Ledger
	account func() string
	logger  *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	applied map[model.JobID]struct{}
}

// NewService returns a Service. account names the signed-in account; with
// a nil ledger or an empty account, applications are remembered only for
// the life of the process.
func NewService(src Submitter, ledger Ledger, account func() string, logger *zap.Logger) *Service {
	if account == nil {
		account = func() string { return "" }
	}
	return &Service{
		src:     src,
		ledger:  ledger,
		account: account,
		logger:  logger,
		applied: make(map[model.JobID]struct{}),
	}
}

// Restore loads the applications recorded for the current account.
func (s *Service) Restore(ctx context.Context) error {
	acct := s.account()
	if s.ledger == nil || acct == "" {
		return nil
	}
	ids, err := s.ledger.AppliedJobs(ctx, acct)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, id := range ids {
		s.applied[id] = struct{}{}
	}
	s.mu.Unlock()
	s.logger.Debug("applications restored", zap.String("account", acct), zap.Int("count", len(ids)))
	return nil
}

func (s *Service) Apply(ctx context.Context, id model.JobID) (model.Acknowledgement, error) {
	if s.Applied(id) {
		return model.Acknowledgement{}, ErrAlreadyApplied
	}

	ch := s.group.DoChan(id.String(), func() (any, error) {
		// A call for id may have finished between the check above and here.
		if s.Applied(id) {
			return nil, ErrAlreadyApplied
		}
		ack, err := s.src.SubmitApplication(ctx, id)
		if err != nil {
			return nil, err
		}
		s.record(ctx, id)
		return ack, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, ErrAlreadyApplied) {
				s.logger.Warn("application failed", zap.String("id", id.String()), zap.Error(res.Err))
			}
			return model.Acknowledgement{}, res.Err
		}
		return res.Val.(model.Acknowledgement), nil
	case <-ctx.Done():
		return model.Acknowledgement{}, ctx.Err()
	}
}

func (s *Service) record(ctx context.Context, id model.JobID) {
	s.mu.Lock()
	s.applied[id] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("applied", zap.String("id", id.String()))

	acct := s.account()
	if s.ledger == nil || acct == "" {
		return
	}
	if err := s.ledger.RecordApplied(ctx, acct, id); err != nil {
		s.logger.Warn("failed to record application", zap.String("id", id.String()), zap.Error(err))
	}
}

// Applied reports whether the account has applied to id.
func (s *Service) Applied(id model.JobID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.applied[id]
	return ok
}
