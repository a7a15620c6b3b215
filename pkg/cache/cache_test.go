package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exiledproject/launcher-cms/pkg/cache"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

// brokenCache errors on every operation
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend down")
}

func (brokenCache) Delete(context.Context, ...string) error {
	return errors.New("backend down")
}

func (brokenCache) DeleteByPrefix(context.Context, string) error {
	return errors.New("backend down")
}

var _ = Describe("MemoryCache", func() {
	var (
		clock time.Time
		c     *cache.MemoryCache
		ctx   context.Context
	)

	BeforeEach(func() {
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		c = cache.NewMemoryCache().WithClock(func() time.Time { return clock })
		ctx = context.Background()
	})

	It("should round-trip a value", func() {
		Expect(c.Set(ctx, "k", []byte("v"), time.Minute)).To(Succeed())

		got, err := c.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("v")))
	})

	It("should miss on an absent key", func() {
		_, err := c.Get(ctx, "nope")
		Expect(err).To(MatchError(cache.ErrMiss))
	})

	It("should expire entries after their ttl", func() {
		Expect(c.Set(ctx, "k", []byte("v"), time.Minute)).To(Succeed())

		clock = clock.Add(2 * time.Minute)
		_, err := c.Get(ctx, "k")
		Expect(err).To(MatchError(cache.ErrMiss))
	})

	It("should keep zero-ttl entries forever", func() {
		Expect(c.Set(ctx, "k", []byte("v"), 0)).To(Succeed())

		clock = clock.Add(24 * time.Hour)
		_, err := c.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should copy values out instead of sharing the buffer", func() {
		value := []byte("original")
		Expect(c.Set(ctx, "k", value, time.Minute)).To(Succeed())
		value[0] = 'X'

		got, err := c.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("original")))
	})

	It("should delete by prefix only", func() {
		Expect(c.Set(ctx, "news:list:10:0", []byte("a"), time.Minute)).To(Succeed())
		Expect(c.Set(ctx, "news:list:10:10", []byte("b"), time.Minute)).To(Succeed())
		Expect(c.Set(ctx, "other", []byte("c"), time.Minute)).To(Succeed())

		Expect(c.DeleteByPrefix(ctx, "news:list:")).To(Succeed())

		_, err := c.Get(ctx, "news:list:10:0")
		Expect(err).To(MatchError(cache.ErrMiss))
		_, err = c.Get(ctx, "other")
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("GetOrSet", func() {
	var (
		c   *cache.MemoryCache
		ctx context.Context
	)

	BeforeEach(func() {
		c = cache.NewMemoryCache()
		ctx = context.Background()
	})

	It("should call the loader once and serve the copy afterwards", func() {
		calls := 0
		load := func(context.Context) ([]byte, error) {
			calls++
			return []byte("payload"), nil
		}

		first, err := cache.GetOrSet(ctx, c, "k", time.Minute, load)
		Expect(err).NotTo(HaveOccurred())
		second, err := cache.GetOrSet(ctx, c, "k", time.Minute, load)
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal(second))
		Expect(calls).To(Equal(1))
	})

	It("should surface loader errors", func() {
		_, err := cache.GetOrSet(ctx, c, "k", time.Minute, func(context.Context) ([]byte, error) {
			return nil, errors.New("db down")
		})
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})

	It("should degrade to uncached reads when the cache is broken", func() {
		calls := 0
		load := func(context.Context) ([]byte, error) {
			calls++
			return []byte("payload"), nil
		}

		for i := 0; i < 2; i++ {
			got, err := cache.GetOrSet(ctx, brokenCache{}, "k", time.Minute, load)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]byte("payload")))
		}
		Expect(calls).To(Equal(2))
	})
})
