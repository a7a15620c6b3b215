package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/storage/memory"
	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUserHandler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Handler Suite")
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, audit.Entry) {}

var _ = Describe("User Handler", func() {
	var (
		store     *memory.Store
		service   *user.Service
		handler   *user.Handler
		router    *chi.Mux
		principal *user.WithPermissions
		ctx       context.Context
	)

	BeforeEach(func() {
		store = memory.NewStore()
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(store.Users(), nopRecorder{}, logger)

		admin := &user.User{Login: "admin", Email: "admin@localhost", DisplayName: "admin", UserUUID: "uuid-admin"}
		Expect(store.Users().Create(ctx, admin)).To(Succeed())
		principal = &user.WithPermissions{
			User:        admin,
			Permissions: permission.NewCodeSet("admin.users.view", "admin.users.edit"),
		}

		// The lookups are injected at construction, so the handlers stay
		// decoupled from the middleware that resolves the principal.
		handler = user.NewHandler(service,
			func(*http.Request) (*user.WithPermissions, bool) { return principal, principal != nil },
			func(*http.Request) string { return "10.0.0.7" },
		)

		router = chi.NewRouter()
		router.Get("/me", handler.GetCurrentUser)
		router.Post("/users/{id}/ban", handler.Ban)
		router.Post("/users/{id}/unban", handler.Unban)
		router.Post("/users/{id}/permissions", handler.GrantPermission)
	})

	Describe("GetCurrentUser", func() {
		It("should return the account with its effective permission codes", func() {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var body struct {
				Login       string   `json:"login"`
				Permissions []string `json:"permissions"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.Login).To(Equal("admin"))
			Expect(body.Permissions).To(ConsistOf("admin.users.view", "admin.users.edit"))
		})

		It("should return 401 when no principal is attached", func() {
			principal = nil
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Ban", func() {
		It("should ban the target using the injected actor and client address", func() {
			target := &user.User{Login: "griefer", Email: "g@localhost", DisplayName: "griefer", UserUUID: "uuid-griefer"}
			Expect(store.Users().Create(ctx, target)).To(Succeed())

			req := httptest.NewRequest(http.MethodPost,
				"/users/2/ban", strings.NewReader(`{"reason":"Раздача на спавне"}`))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			banned, err := store.Users().GetByID(ctx, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(banned.IsBanned).To(BeTrue())
			Expect(banned.BanReason).To(HaveValue(Equal("Раздача на спавне")))
		})

		It("should reject a malformed user id", func() {
			req := httptest.NewRequest(http.MethodPost, "/users/abc/ban", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 401 when no principal is attached", func() {
			principal = nil
			req := httptest.NewRequest(http.MethodPost, "/users/2/ban", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GrantPermission", func() {
		It("should require permission_id in the body", func() {
			req := httptest.NewRequest(http.MethodPost,
				"/users/1/permissions", strings.NewReader(`{}`))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("permission_id is required"))
		})
	})
})
