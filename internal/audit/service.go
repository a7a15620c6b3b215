package audit

import (
	"context"
	"log/slog"
	"time"
)

// Service writes and reads the audit trail. Record is deliberately
// non-failing: a broken audit sink must not roll back the action it
// documents.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the timestamp source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Record(ctx context.Context, e Entry) {
	log := &Log{
		UserID:     e.UserID,
		APITokenID: e.APITokenID,
		Action:     e.Action,
		Details:    e.Details,
		IP:         e.IP,
		Timestamp:  s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, log); err != nil {
		s.logger.Error("audit write failed", "action", e.Action, "error", err)
	}
}

func (s *Service) Search(ctx context.Context, q Query) ([]Log, error) {
	return s.repo.Search(ctx, q, QueryLimit)
}

func (s *Service) Purge(ctx context.Context, q Query) (int64, error) {
	deleted, err := s.repo.Purge(ctx, q)
	if err != nil {
		return 0, err
	}
	s.logger.Info("audit log purged", "deleted", deleted)
	return deleted, nil
}
