package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
)

var (
	ErrNotFound      = errors.New("ticket not found")
	ErrAlreadyClosed = errors.New("ticket already closed")
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, userID int64, ip, subject, message string) (*Ticket, error) {
	t := &Ticket{
		UserID:    userID,
		Subject:   subject,
		Message:   message,
		Status:    StatusOpen,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &userID,
		Action:  "create_ticket",
		Details: fmt.Sprintf("тикет %q", subject),
		IP:      ip,
	})
	return t, nil
}

// Get enforces ownership: without allowAny a foreign ticket reads as
// not-found.
func (s *Service) Get(ctx context.Context, actorID, ticketID int64, allowAny bool) (*Ticket, error) {
	t, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil || (!allowAny && t.UserID != actorID) {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Ticket, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, status Status, limit, offset int) ([]Ticket, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAll(ctx, status, limit, offset)
}

func (s *Service) Close(ctx context.Context, actorID, ticketID int64, ip string, allowAny bool) (*Ticket, error) {
	t, err := s.Get(ctx, actorID, ticketID, allowAny)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusClosed {
		return nil, ErrAlreadyClosed
	}

	closedAt := s.now().UTC()
	t.Status = StatusClosed
	t.ClosedAt = &closedAt
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "close_ticket",
		Details: fmt.Sprintf("тикет #%d", ticketID),
		IP:      ip,
	})
	return t, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
