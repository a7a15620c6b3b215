package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/exiledproject/launcher-cms/internal/apitoken"
	"github.com/exiledproject/launcher-cms/internal/audit"
	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/news"
	"github.com/exiledproject/launcher-cms/internal/pageaccess"
	"github.com/exiledproject/launcher-cms/internal/permission"
	"github.com/exiledproject/launcher-cms/internal/ticket"
	"github.com/exiledproject/launcher-cms/internal/transport/middleware"
	"github.com/exiledproject/launcher-cms/internal/transport/swagger"
	"github.com/exiledproject/launcher-cms/internal/twofactor"
	"github.com/exiledproject/launcher-cms/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles every mounted handler so the route table reads in one
// place.
type Handlers struct {
	Auth       *auth.Handler
	TwoFactor  *twofactor.Handler
	User       *user.Handler
	Permission *permission.Handler
	APIToken   *apitoken.Handler
	Audit      *audit.Handler
	News       *news.Handler
	Ticket     *ticket.Handler
	PageAccess *pageaccess.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Public launcher feed, outside the versioned prefix per the launcher
	// contract.
	router.Get("/api/news", h.News.List)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Launcher integration: credentialed, no session.
		r.Post("/integrations/auth/signin", h.Auth.SignIn)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			// Credential-based 2FA enrollment for accounts frozen until a
			// secret is bound.
			sr.Post("/2fa/setup", h.TwoFactor.Setup)
			sr.Post("/2fa/setup/verify", h.TwoFactor.SetupVerify)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)

			// Session-based 2FA enrollment for signed-in accounts.
			pr.Post("/2fa/setup", h.TwoFactor.BeginSetup)
			pr.Post("/2fa/verify", h.TwoFactor.Verify)

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(h.Auth.RequirePermission(permission.CodeUsersManage))
				ur.Get("/", h.User.List)
				ur.Post("/{id}/ban", h.User.Ban)
				ur.Post("/{id}/unban", h.User.Unban)
				ur.Post("/{id}/permissions", h.User.GrantPermission)
				ur.Delete("/{id}/permissions", h.User.RevokePermission)
				ur.Post("/{id}/roles", h.User.AssignRole)
				ur.Delete("/{id}/roles", h.User.RemoveRole)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Get("/", h.Permission.ListRoles)
				rr.Get("/{id}", h.Permission.GetRole)
				rr.Group(func(mr chi.Router) {
					mr.Use(h.Auth.RequirePermission(permission.CodeRolesManage))
					mr.Post("/", h.Permission.CreateRole)
					mr.Put("/{id}", h.Permission.UpdateRole)
					mr.Delete("/{id}", h.Permission.DeleteRole)
					mr.Post("/{id}/permissions", h.Permission.AddRolePermission)
					mr.Delete("/{id}/permissions/{permissionID}", h.Permission.RemoveRolePermission)
				})
			})

			pr.Route("/permissions", func(cr chi.Router) {
				cr.Get("/", h.Permission.ListPermissions)
				cr.Group(func(mr chi.Router) {
					mr.Use(h.Auth.RequirePermission(permission.CodeRolesManage))
					mr.Post("/", h.Permission.CreatePermission)
					mr.Delete("/{id}", h.Permission.DeletePermission)
				})
			})

			pr.Route("/tokens", func(tr chi.Router) {
				tr.Get("/", h.APIToken.List)
				tr.Delete("/{id}", h.APIToken.Revoke)
				tr.Group(func(ir chi.Router) {
					ir.Use(h.Auth.RequirePermission(permission.CodeAPIToken))
					ir.Post("/", h.APIToken.Issue)
				})
			})

			pr.Route("/audit", func(ar chi.Router) {
				ar.Group(func(vr chi.Router) {
					vr.Use(h.Auth.RequirePermission(permission.CodeAuditView))
					vr.Get("/", h.Audit.Search)
				})
				ar.Group(func(dr chi.Router) {
					dr.Use(h.Auth.RequirePermission(permission.CodeAuditPurge))
					dr.Delete("/", h.Audit.Purge)
				})
			})

			pr.Route("/news", func(nr chi.Router) {
				nr.Get("/{id}", h.News.Get)
				nr.Group(func(mr chi.Router) {
					mr.Use(h.Auth.RequirePermission(permission.CodeNewsManage))
					mr.Post("/", h.News.Create)
					mr.Put("/{id}", h.News.Update)
					mr.Delete("/{id}", h.News.Delete)
				})
			})

			pr.Route("/tickets", func(tr chi.Router) {
				tr.Post("/", h.Ticket.Create)
				tr.Get("/", h.Ticket.List)
				tr.Get("/{id}", h.Ticket.Get)
				tr.Post("/{id}/close", h.Ticket.Close)
			})

			pr.Route("/pages", func(gr chi.Router) {
				// Any authenticated user may read the page map; the SPA
				// builds its menu from it.
				gr.Get("/", h.PageAccess.List)
				gr.Group(func(mr chi.Router) {
					mr.Use(h.Auth.RequirePermission(permission.CodePagesManage))
					mr.Post("/", h.PageAccess.Create)
					mr.Put("/{id}", h.PageAccess.Update)
					mr.Delete("/{id}", h.PageAccess.Delete)
				})
			})
		})
	})
}
