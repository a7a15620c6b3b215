package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/pkg/cache"
)

var ErrNotFound = errors.New("news item not found")

const (
	listCachePrefix = "news:list:"
	listCacheTTL    = 60 * time.Second

	defaultLimit = 20
	maxLimit     = 100
)

type Service struct {
	repo     Repository
	cache    cache.Cache
	recorder audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, c cache.Cache, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List serves the public feed through the cache. Pages are cached per
// limit/offset pair and invalidated wholesale on any write.
func (s *Service) List(ctx context.Context, limit, offset int) ([]News, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("%s%d:%d", listCachePrefix, limit, offset)
	payload, err := cache.GetOrSet(ctx, s.cache, key, listCacheTTL, func(ctx context.Context) ([]byte, error) {
		items, err := s.repo.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	})
	if err != nil {
		return nil, err
	}

	var items []News
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode cached news page: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*News, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, actorID int64, ip string, n *News) error {
	n.CreatedAt = s.now().UTC()
	n.UpdatedAt = n.CreatedAt
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "create_news",
		Details: fmt.Sprintf("новость %q", n.Title),
		IP:      ip,
	})
	return nil
}

func (s *Service) Update(ctx context.Context, actorID int64, ip string, n *News) error {
	existing, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	n.CreatedAt = existing.CreatedAt
	n.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, n); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "update_news",
		Details: fmt.Sprintf("новость %q", n.Title),
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
	s.invalidate(ctx)
	s.recorder.Record(ctx, audit.Entry{
		UserID:  &actorID,
		Action:  "delete_news",
		Details: fmt.Sprintf("новость %q", existing.Title),
		IP:      ip,
	})
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPrefix(ctx, listCachePrefix); err != nil {
		s.logger.Warn("news cache invalidation failed", "error", err)
	}
}
