package ticket_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/storage/memory"
	"github.com/exiledproject/launcher-cms/internal/ticket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTicketService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ticket Service Suite")
}

type trailRecorder struct {
	entries []audit.Entry
}

func (t *trailRecorder) Record(_ context.Context, e audit.Entry) {
	t.entries = append(t.entries, e)
}

var _ = Describe("Ticket Service", func() {
	var (
		recorder *trailRecorder
		service  *ticket.Service
		ctx      context.Context
		clock    time.Time
	)

	BeforeEach(func() {
		store := memory.NewStore()
		recorder = &trailRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		service = ticket.NewService(store.Tickets(), recorder, logger).
			WithClock(func() time.Time { return clock })
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("should open the ticket and audit it", func() {
			t, err := service.Create(ctx, 1, "127.0.0.1", "Пропали вещи", "после рестарта")
			Expect(err).NotTo(HaveOccurred())
			Expect(t.ID).NotTo(BeZero())
			Expect(t.Status).To(Equal(ticket.StatusOpen))
			Expect(t.ClosedAt).To(BeNil())
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Action).To(Equal("create_ticket"))
		})
	})

	Describe("Get", func() {
		It("should hide foreign tickets from regular users", func() {
			t, err := service.Create(ctx, 1, "127.0.0.1", "тема", "текст")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Get(ctx, 2, t.ID, false)
			Expect(err).To(MatchError(ticket.ErrNotFound))
		})

		It("should let a manager read any ticket", func() {
			t, err := service.Create(ctx, 1, "127.0.0.1", "тема", "текст")
			Expect(err).NotTo(HaveOccurred())

			got, err := service.Get(ctx, 2, t.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(t.ID))
		})
	})

	Describe("listing", func() {
		BeforeEach(func() {
			for i, owner := range []int64{1, 1, 2} {
				_, err := service.Create(ctx, owner, "127.0.0.1", "тема", "текст")
				Expect(err).NotTo(HaveOccurred())
				clock = clock.Add(time.Duration(i+1) * time.Minute)
			}
		})

		It("should scope ListByUser to the owner", func() {
			mine, err := service.ListByUser(ctx, 1, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))
			for _, t := range mine {
				Expect(t.UserID).To(Equal(int64(1)))
			}
		})

		It("should let managers list everything with a status filter", func() {
			all, err := service.ListAll(ctx, "", 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))

			_, err = service.Close(ctx, 1, all[0].ID, "127.0.0.1", true)
			Expect(err).NotTo(HaveOccurred())

			open, err := service.ListAll(ctx, ticket.StatusOpen, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(HaveLen(2))
		})
	})

	Describe("Close", func() {
		It("should close once, stamping the close time", func() {
			t, err := service.Create(ctx, 1, "127.0.0.1", "тема", "текст")
			Expect(err).NotTo(HaveOccurred())

			clock = clock.Add(time.Hour)
			closed, err := service.Close(ctx, 1, t.ID, "127.0.0.1", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(closed.Status).To(Equal(ticket.StatusClosed))
			Expect(closed.ClosedAt).NotTo(BeNil())
			Expect(closed.ClosedAt.Equal(clock)).To(BeTrue())
		})

		It("should refuse to close twice", func() {
			t, err := service.Create(ctx, 1, "127.0.0.1", "тема", "текст")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Close(ctx, 1, t.ID, "127.0.0.1", false)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Close(ctx, 1, t.ID, "127.0.0.1", false)
			Expect(err).To(MatchError(ticket.ErrAlreadyClosed))
		})

		It("should hide foreign tickets from a non-manager close", func() {
			t, err := service.Create(ctx, 1, "127.0.0.1", "тема", "текст")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Close(ctx, 2, t.ID, "127.0.0.1", false)
			Expect(err).To(MatchError(ticket.ErrNotFound))
		})
	})
})
