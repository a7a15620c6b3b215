package pageaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/exiledproject/launcher-cms/internal/audit"
)

var ErrNotFound = errors.New("page access rule not found")

type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]PageAccess, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, actorID int64, ip string, p *PageAccess) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "create_page_access",
		Details: fmt.Sprintf("страница %q: %s", p.Path, p.Code),
		IP:      ip,
	})
	return nil
}

func (s *Service) Update(ctx context.Context, actorID int64, ip string, p *PageAccess) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "update_page_access",
		Details: fmt.Sprintf("страница %q: %s", p.Path, p.Code),
		IP:      ip,
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, actorID int64, ip string, id int64) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "delete_page_access",
		Details: fmt.Sprintf("страница %q", existing.Path),
		IP:      ip,
	})
	return nil
}
