package news_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/news"
	"github.com/exiledproject/launcher-cms/internal/storage/memory"
	"github.com/exiledproject/launcher-cms/pkg/cache"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNewsService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "News Service Suite")
}

// countingRepository wraps the real repository to count feed reads
type countingRepository struct {
	news.Repository
	listCalls int
}

func (c *countingRepository) List(ctx context.Context, limit, offset int) ([]news.News, error) {
	c.listCalls++
	return c.Repository.List(ctx, limit, offset)
}

type silentRecorder struct {
	entries []audit.Entry
}

func (s *silentRecorder) Record(_ context.Context, e audit.Entry) {
	s.entries = append(s.entries, e)
}

var _ = Describe("News Service", func() {
	var (
		repo     *countingRepository
		recorder *silentRecorder
		service  *news.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		store := memory.NewStore()
		repo = &countingRepository{Repository: store.News()}
		recorder = &silentRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = news.NewService(repo, cache.NewMemoryCache(), recorder, logger)
		ctx = context.Background()
	})

	publish := func(title string) *news.News {
		n := &news.News{Title: title, Description: "текст"}
		Expect(service.Create(ctx, 1, "127.0.0.1", n)).To(Succeed())
		return n
	}

	Describe("List", func() {
		It("should serve repeated reads from the cache", func() {
			publish("Открытие сервера")

			first, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			second, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(first).To(Equal(second))
			Expect(repo.listCalls).To(Equal(1))
		})

		It("should cache each page separately", func() {
			publish("a")

			_, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.List(ctx, 10, 10)
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.listCalls).To(Equal(2))
		})

		It("should fall back to the default page size", func() {
			item, err := service.List(ctx, 0, -5)
			Expect(err).NotTo(HaveOccurred())
			Expect(item).To(BeEmpty())
			Expect(repo.listCalls).To(Equal(1))
		})

		It("should return newest items first", func() {
			publish("старая")
			time.Sleep(time.Millisecond)
			publish("свежая")

			items, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].Title).To(Equal("свежая"))
		})
	})

	Describe("writes", func() {
		It("should invalidate the cached feed on create", func() {
			publish("первая")

			items, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))

			publish("вторая")

			items, err = service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
		})

		It("should invalidate on delete as well", func() {
			n := publish("уходящая")

			_, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, 1, "127.0.0.1", n.ID)).To(Succeed())

			items, err := service.List(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})

		It("should preserve the creation time across updates", func() {
			n := publish("правка")
			created := n.CreatedAt

			updated := &news.News{ID: n.ID, Title: "правка v2", Description: "текст"}
			Expect(service.Update(ctx, 1, "127.0.0.1", updated)).To(Succeed())

			got, err := service.Get(ctx, n.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("правка v2"))
			Expect(got.CreatedAt.Equal(created)).To(BeTrue())
		})

		It("should audit every mutation", func() {
			n := publish("жизненный цикл")
			n.Title = "жизненный цикл v2"
			Expect(service.Update(ctx, 1, "127.0.0.1", n)).To(Succeed())
			Expect(service.Delete(ctx, 1, "127.0.0.1", n.ID)).To(Succeed())

			actions := make([]string, len(recorder.entries))
			for i, e := range recorder.entries {
				actions[i] = e.Action
			}
			Expect(actions).To(Equal([]string{"create_news", "update_news", "delete_news"}))
		})

		It("should report updates to unknown items as not found", func() {
			err := service.Update(ctx, 1, "127.0.0.1", &news.News{ID: 404, Title: "призрак"})
			Expect(err).To(MatchError(news.ErrNotFound))
		})
	})
})
