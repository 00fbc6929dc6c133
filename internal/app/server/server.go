package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/notifications"
	"perftrack/internal/domain/performance"
	"perftrack/internal/domain/reports"
	"perftrack/internal/platform/config"
	"perftrack/internal/platform/db"
	"perftrack/internal/platform/email"
	"perftrack/internal/platform/jobs"
	"perftrack/internal/platform/metrics"
	audithandler "perftrack/internal/transport/http/handlers/audit"
	authhandler "perftrack/internal/transport/http/handlers/auth"
	notificationshandler "perftrack/internal/transport/http/handlers/notifications"
	performancehandler "perftrack/internal/transport/http/handlers/performance"
	reportshandler "perftrack/internal/transport/http/handlers/reports"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/migrations"
)

const shutdownTimeout = 15 * time.Second

// App holds the wired services for one process. Exactly one of Pool and
// SQLite is set, depending on the configured driver.
type App struct {
	Config config.Config
	Pool   *pgxpool.Pool
	SQLite *sql.DB

	AuthStore     auth.StoreAPI
	Auth          *auth.Service
	Performance   *performance.Service
	Reports       *reports.Service
	Notifications *notifications.Service
	Audit         *audit.Service
	Jobs          *jobs.Service
	Metrics       *metrics.Collector
	Perms         middleware.PermissionStore

	// TenantID is the seeded default tenant, empty when seeding is off.
	TenantID string
}

// Open connects to the configured database without migrating or wiring
// services.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	switch cfg.DBDriver {
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		app.SQLite = conn
		app.AuthStore = auth.NewSQLiteStore(conn)
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.Pool = pool
		app.AuthStore = auth.NewStore(pool)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
	return app, nil
}

// New opens the database, applies migrations and the seed when configured,
// and wires every service.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := app.Migrate(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		tenantID, err := db.Seed(ctx, app.AuthStore, cfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		app.TenantID = tenantID
	}

	app.wire()
	return app, nil
}

func (a *App) wire() {
	cfg := a.Config
	a.Metrics = metrics.New()
	a.Perms = auth.StaticPermissions{}
	a.Auth = auth.NewService(a.AuthStore, cfg.JWTSecret, cfg.TokenTTL)

	var perfStore performance.StoreAPI
	var reportStore *reports.Store
	if a.Pool != nil {
		perfStore = performance.NewStore(a.Pool)
		reportStore = reports.NewStore(a.Pool)
		a.Audit = audit.New(a.Pool)
		a.Notifications = notifications.New(notifications.NewStore(a.Pool), email.New(cfg))
	} else {
		perfStore = performance.NewSQLiteStore(a.SQLite)
	}

	a.Performance = performance.NewService(perfStore)
	a.Performance.Metrics = a.Metrics
	if a.Notifications != nil {
		a.Performance.Notify = a.Notifications
	}
	a.Reports = reports.NewService(a.Performance, reportStore)
	a.Jobs = jobs.New(a.Pool, a.AuthStore, a.Performance, cfg.ProgressResyncInterval)
}

// Migrate applies the embedded migrations for the configured driver.
func (a *App) Migrate(ctx context.Context) error {
	if a.Pool != nil {
		files, err := fs.Sub(migrations.Files, config.DriverPostgres)
		if err != nil {
			return err
		}
		if err := db.Migrate(ctx, a.Pool, files); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		return nil
	}
	files, err := fs.Sub(migrations.Files, config.DriverSQLite)
	if err != nil {
		return err
	}
	if err := db.MigrateSQLite(ctx, a.SQLite, files); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (a *App) Router() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default()))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithRecorder(a.Metrics)))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithRecorder(a.Metrics)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Performance.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(a.Auth)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/me", authHandler.HandleMe)

		r.With(middleware.RequirePermission(auth.PermReportsRead, a.Perms)).Get("/system/metrics", a.handleMetricsSnapshot)

		performanceHandler := performancehandler.NewHandler(a.Performance, a.Reports, a.Jobs, a.Perms, a.Audit)
		performanceHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(a.Reports, a.Perms)
		reportsHandler.RegisterRoutes(r)

		if a.Audit != nil {
			auditHandler := audithandler.NewHandler(a.Audit, a.Perms)
			auditHandler.RegisterRoutes(r)
		}
		if a.Notifications != nil {
			notificationsHandler := notificationshandler.NewHandler(a.Notifications, a.Perms)
			notificationsHandler.RegisterRoutes(r)
		}
	})

	return router
}

func (a *App) handleMetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

// Start serves HTTP and runs the job worker until ctx is cancelled, then
// shuts both down.
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("perftrack server listening", "addr", a.Config.Addr, "driver", a.Config.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Jobs.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown failed", "err", err)
		}
		return nil
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			slog.Warn("sqlite close failed", "err", err)
		}
	}
}
