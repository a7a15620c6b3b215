package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exiledproject/launcher-cms/internal"
	"github.com/exiledproject/launcher-cms/internal/apitoken"
	apitokenpg "github.com/exiledproject/launcher-cms/internal/apitoken/postgres"
	"github.com/exiledproject/launcher-cms/internal/audit"
	auditpg "github.com/exiledproject/launcher-cms/internal/audit/postgres"
	"github.com/exiledproject/launcher-cms/internal/auth"
	"github.com/exiledproject/launcher-cms/internal/news"
	newspg "github.com/exiledproject/launcher-cms/internal/news/postgres"
	"github.com/exiledproject/launcher-cms/internal/pageaccess"
	pageaccesspg "github.com/exiledproject/launcher-cms/internal/pageaccess/postgres"
	"github.com/exiledproject/launcher-cms/internal/permission"
	permissionpg "github.com/exiledproject/launcher-cms/internal/permission/postgres"
	"github.com/exiledproject/launcher-cms/internal/storage/memory"
	"github.com/exiledproject/launcher-cms/internal/ticket"
	ticketpg "github.com/exiledproject/launcher-cms/internal/ticket/postgres"
	"github.com/exiledproject/launcher-cms/internal/transport/rest"
	"github.com/exiledproject/launcher-cms/internal/twofactor"
	"github.com/exiledproject/launcher-cms/internal/user"
	userpg "github.com/exiledproject/launcher-cms/internal/user/postgres"
	"github.com/exiledproject/launcher-cms/pkg/cache"
	"github.com/exiledproject/launcher-cms/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// repositories is the persistence surface handed to the services, filled
// either from the configured database or from the seeded in-memory store.
type repositories struct {
	users      user.Repository
	permStore  permission.Store
	auditRepo  audit.Repository
	tokens     apitoken.Repository
	news       news.Repository
	tickets    ticket.Repository
	pages      pageaccess.Repository
	sqlDB      *sql.DB // nil in memory mode
}

func startHTTPServer() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(config.Logging.Format)
	log := logger.LoggerWrapper()

	repos, err := initRepositories(config, log)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	cacheImpl, err := initCache(config.Cache, log)
	if err != nil {
		log.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	handlers := buildHandlers(config, repos, cacheImpl, log)
	rest.RegisterAllRoutes(router, repos.sqlDB, handlers, config.Server.AllowedOrigins, log)

	addr := fmt.Sprintf(":%d", config.Server.Port)
	log.Info("starting http server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		if repos.sqlDB != nil {
			if err := repos.sqlDB.Close(); err != nil {
				log.Error("database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	log.Info("server stopped")
}

func buildHandlers(config *internal.Config, repos *repositories, cacheImpl cache.Cache, log *slog.Logger) rest.Handlers {
	auditSvc := audit.NewService(repos.auditRepo, log)
	resolver := permission.NewResolver(repos.permStore)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	authSvc := auth.NewService(repos.users, tokenGen, resolver, auditSvc, log)
	authHandler := auth.NewHandler(authSvc)

	twoFactorSvc := twofactor.NewService(repos.users, auditSvc, config.Security.TwoFactorIssuer, log)
	userSvc := user.NewService(repos.users, auditSvc, log)
	permSvc := permission.NewService(repos.permStore, auditSvc, log)
	tokenSvc := apitoken.NewService(repos.tokens, resolver, auditSvc, log)
	newsSvc := news.NewService(repos.news, cacheImpl, auditSvc, log)
	ticketSvc := ticket.NewService(repos.tickets, auditSvc, log)
	pageSvc := pageaccess.NewService(repos.pages, auditSvc, log)

	principal := func(r *http.Request) (int64, bool) {
		p, ok := auth.UserFromContext(r.Context())
		if !ok {
			return 0, false
		}
		return p.User.ID, true
	}

	return rest.Handlers{
		Auth:       authHandler,
		TwoFactor:  twofactor.NewHandler(twoFactorSvc),
		User: user.NewHandler(userSvc, func(r *http.Request) (*user.WithPermissions, bool) {
			return auth.UserFromContext(r.Context())
		}, auth.ClientIP),
		Permission: permission.NewHandler(permSvc, principal, auth.ClientIP),
		APIToken:   apitoken.NewHandler(tokenSvc),
		Audit:      audit.NewHandler(auditSvc),
		News:       news.NewHandler(newsSvc),
		Ticket:     ticket.NewHandler(ticketSvc),
		PageAccess: pageaccess.NewHandler(pageSvc),
	}
}

func initRepositories(config *internal.Config, log *slog.Logger) (*repositories, error) {
	if config.Database.UsesMemoryStore() {
		log.Warn("no database configured, using the seeded in-memory store")
		store := memory.NewStore()
		if err := store.Seed(context.Background()); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return &repositories{
			users:     store.Users(),
			permStore: store.Permissions(),
			auditRepo: store.AuditLogs(),
			tokens:    store.Tokens(),
			news:      store.News(),
			tickets:   store.Tickets(),
			pages:     store.Pages(),
		}, nil
	}

	gormDB, sqlxDB, err := openDatabase(config.Database)
	if err != nil {
		return nil, err
	}

	return &repositories{
		users:     userpg.NewRepository(gormDB),
		permStore: permissionpg.NewRepository(gormDB),
		auditRepo: auditpg.NewRepository(sqlxDB),
		tokens:    apitokenpg.NewRepository(gormDB),
		news:      newspg.NewRepository(gormDB),
		tickets:   ticketpg.NewRepository(gormDB),
		pages:     pageaccesspg.NewRepository(gormDB),
		sqlDB:     sqlxDB.DB,
	}, nil
}

// openDatabase opens the configured provider through gorm and wraps the same
// underlying handle with sqlx for the audit repository's dynamic queries.
func openDatabase(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	var (
		gormDB *gorm.DB
		driver string
		err    error
	)
	switch cfg.Provider {
	case "postgres", "postgresql":
		gormDB, err = gorm.Open(gormpostgres.Open(cfg.Source), &gorm.Config{})
		driver = "pgx"
	case "sqlite":
		gormDB, err = gorm.Open(gormsqlite.Open(cfg.Source), &gorm.Config{})
		driver = "sqlite3"
	default:
		return nil, nil, fmt.Errorf("unsupported database provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("unwrap database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, driver), nil
}

func initCache(cfg internal.CacheConfig, log *slog.Logger) (cache.Cache, error) {
	if cfg.Provider == "redis" {
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("redis cache connected", "addr", cfg.RedisAddr)
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}
