package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented cache with TTLs. Callers serialize their own
// values; both backends treat the payload as opaque.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix drops every key starting with prefix, used for
	// list-cache invalidation on writes.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrSet reads key from c, and on a miss fills it from load and stores the
// result with ttl. Cache errors other than a miss fall through to load so a
// broken cache degrades to uncached reads.
func GetOrSet(ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}
	value, err := load(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
