package permission_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/storage/memory"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type nullRecorder struct {
	entries []audit.Entry
}

func (n *nullRecorder) Record(_ context.Context, e audit.Entry) {
	n.entries = append(n.entries, e)
}

var _ = Describe("Permission Service", func() {
	var (
		store    *memory.Store
		recorder *nullRecorder
		service  *permission.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		store = memory.NewStore()
		recorder = &nullRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = permission.NewService(store.Permissions(), recorder, logger)
		ctx = context.Background()
	})

	createRole := func(code string, parent *int64) *permission.Role {
		role := &permission.Role{Name: code, Code: code, ParentRoleID: parent}
		Expect(service.CreateRole(ctx, 1, "127.0.0.1", role)).To(Succeed())
		return role
	}

	Describe("role parent validation", func() {
		It("should accept a valid chain", func() {
			root := createRole("root", nil)
			child := createRole("child", &root.ID)
			Expect(child.ID).NotTo(BeZero())
		})

		It("should reject making a role its own parent", func() {
			role := createRole("solo", nil)
			role.ParentRoleID = &role.ID
			err := service.UpdateRole(ctx, 1, "127.0.0.1", role)
			Expect(err).To(MatchError(permission.ErrParentCycle))
		})

		It("should reject a two-role cycle", func() {
			a := createRole("a", nil)
			b := createRole("b", &a.ID)

			a.ParentRoleID = &b.ID
			err := service.UpdateRole(ctx, 1, "127.0.0.1", a)
			Expect(err).To(MatchError(permission.ErrParentCycle))
		})

		It("should reject a longer cycle", func() {
			a := createRole("a", nil)
			b := createRole("b", &a.ID)
			c := createRole("c", &b.ID)

			a.ParentRoleID = &c.ID
			err := service.UpdateRole(ctx, 1, "127.0.0.1", a)
			Expect(err).To(MatchError(permission.ErrParentCycle))
		})

		It("should reject an unknown parent on create", func() {
			missing := int64(999)
			role := &permission.Role{Name: "orphan", Code: "orphan", ParentRoleID: &missing}
			err := service.CreateRole(ctx, 1, "127.0.0.1", role)
			Expect(err).To(MatchError(permission.ErrRoleNotFound))
		})
	})

	Describe("auditing", func() {
		It("should record role mutations with the acting user", func() {
			createRole("audited", nil)
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Action).To(Equal("create_role"))
			Expect(*recorder.entries[0].UserID).To(Equal(int64(1)))
		})
	})

	Describe("GetRole", func() {
		It("should include the directly granted codes", func() {
			p := &permission.Permission{Code: "news_manage", Name: "News"}
			Expect(service.CreatePermission(ctx, 1, "127.0.0.1", p)).To(Succeed())
			role := createRole("editor", nil)
			Expect(service.AddRolePermission(ctx, 1, "127.0.0.1", role.ID, p.ID)).To(Succeed())

			detail, err := service.GetRole(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Permissions).To(ConsistOf(permission.Code("news_manage")))
		})

		It("should return not-found for an unknown role", func() {
			_, err := service.GetRole(ctx, 12345)
			Expect(err).To(MatchError(permission.ErrRoleNotFound))
		})
	})
})
