package audit_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/storage/memory"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuditService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Service Suite")
}

// failingRepository always errors on insert
type failingRepository struct{}

func (f *failingRepository) Insert(_ context.Context, _ *audit.Log) error {
	return errors.New("sink unavailable")
}

func (f *failingRepository) Search(_ context.Context, _ audit.Query, _ int) ([]audit.Log, error) {
	return nil, nil
}

func (f *failingRepository) Purge(_ context.Context, _ audit.Query) (int64, error) {
	return 0, nil
}

var _ = Describe("Audit Service", func() {
	var (
		store   *memory.Store
		service *audit.Service
		ctx     context.Context
		clock   time.Time
	)

	BeforeEach(func() {
		store = memory.NewStore()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		service = audit.NewService(store, logger).WithClock(func() time.Time { return clock })
		ctx = context.Background()
	})

	record := func(action, ip string, userID int64) {
		service.Record(ctx, audit.Entry{UserID: &userID, Action: action, IP: ip})
	}

	Describe("Record", func() {
		It("should stamp entries with the service clock", func() {
			record("login_success", "1.2.3.4", 1)

			logs, err := service.Search(ctx, audit.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Timestamp.Equal(clock)).To(BeTrue())
		})

		It("should never fail the caller when the sink is down", func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))
			broken := audit.NewService(&failingRepository{}, logger)

			Expect(func() {
				broken.Record(ctx, audit.Entry{Action: "login_failed"})
			}).NotTo(Panic())
		})
	})

	Describe("Search", func() {
		It("should return newest entries first", func() {
			record("first", "1.1.1.1", 1)
			clock = clock.Add(time.Minute)
			record("second", "1.1.1.1", 1)

			logs, err := service.Search(ctx, audit.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs[0].Action).To(Equal("second"))
			Expect(logs[1].Action).To(Equal("first"))
		})

		It("should filter by action, user and ip together", func() {
			record("login_failed", "1.1.1.1", 1)
			record("login_failed", "2.2.2.2", 2)
			record("login_success", "1.1.1.1", 1)

			one := int64(1)
			logs, err := service.Search(ctx, audit.Query{Action: "login_failed", UserID: &one, IP: "1.1.1.1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Action).To(Equal("login_failed"))
		})

		It("should match details as a substring", func() {
			userID := int64(1)
			service.Record(ctx, audit.Entry{UserID: &userID, Action: "create_role", Details: "роль Модератор"})

			logs, err := service.Search(ctx, audit.Query{Details: "Модератор"})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
		})

		It("should treat the time bounds as inclusive", func() {
			record("edge", "1.1.1.1", 1)

			from, to := clock, clock
			logs, err := service.Search(ctx, audit.Query{From: &from, To: &to})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
		})

		It("should cap results at the query limit", func() {
			for i := 0; i < audit.QueryLimit+25; i++ {
				record(fmt.Sprintf("action_%d", i), "1.1.1.1", 1)
				clock = clock.Add(time.Second)
			}

			logs, err := service.Search(ctx, audit.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(audit.QueryLimit))
			// Newest survive the cap.
			Expect(logs[0].Action).To(Equal(fmt.Sprintf("action_%d", audit.QueryLimit+24)))
		})
	})

	Describe("Purge", func() {
		It("should delete only matching rows and report the count", func() {
			record("login_failed", "1.1.1.1", 1)
			record("login_success", "1.1.1.1", 1)

			deleted, err := service.Purge(ctx, audit.Query{Action: "login_failed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))

			logs, err := service.Search(ctx, audit.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Action).To(Equal("login_success"))
		})

		It("should include rows exactly on the upper bound", func() {
			record("old", "1.1.1.1", 1)
			boundary := clock
			clock = clock.Add(time.Hour)
			record("new", "1.1.1.1", 1)

			deleted, err := service.Purge(ctx, audit.Query{To: &boundary})
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))

			logs, err := service.Search(ctx, audit.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Action).To(Equal("new"))
		})

		It("should not be capped", func() {
			for i := 0; i < audit.QueryLimit+25; i++ {
				record("flood", "1.1.1.1", 1)
			}

			deleted, err := service.Purge(ctx, audit.Query{Action: "flood"})
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(audit.QueryLimit + 25)))
		})
	})
})
