package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic/internal/domain/auth"
	"clinic/internal/domain/orders"
	"clinic/internal/domain/session"
	"clinic/internal/platform/clinicapi"
	"clinic/internal/platform/config"
	cryptoutil "clinic/internal/platform/crypto"
	"clinic/internal/platform/db"
	"clinic/internal/platform/jobs"
	"clinic/internal/platform/metrics"
	"clinic/internal/transport/http/api"
	authhandler "clinic/internal/transport/http/handlers/auth"
	dashboardhandler "clinic/internal/transport/http/handlers/dashboard"
	profilehandler "clinic/internal/transport/http/handlers/profile"
	"clinic/internal/transport/http/middleware"
	"clinic/migrations"
)

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Sessions session.Store
	Upstream *clinicapi.Client
	Jobs     *jobs.Service
	Metrics  *metrics.Collector
	Router   http.Handler
}

// New wires the application. Sessions live in Postgres when DATABASE_URL is
// set and in process memory otherwise.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}
	crypto, err := cryptoutil.New(cfg.SessionEncryptionKey)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Metrics: metrics.New()}

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		app.DB = pool
		app.Sessions = session.NewPGStore(pool, crypto)
	} else {
		slog.Warn("DATABASE_URL not set, sessions are kept in memory and lost on restart")
		app.Sessions = session.NewMemoryStore()
	}

	if !crypto.Configured() && app.DB != nil {
		slog.Warn("SESSION_ENCRYPTION_KEY not set, session profiles are stored unencrypted")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = auth.GenerateSecret()
		if err != nil {
			app.Close()
			return nil, err
		}
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	app.Upstream = clinicapi.New(cfg.ClinicAPIURL, cfg.UpstreamTimeout).InLocation(loc)
	app.Jobs = jobs.New(app.Sessions, cfg.SessionCleanupInterval)

	authService := auth.NewService(app.Upstream, app.Sessions, secret, cfg.SessionTTL)
	orderService := orders.NewService(app.Upstream)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP(proxies))
	router.Use(middleware.Logger(app.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production", cfg.ClinicAPIURL))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(secret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.Sessions.Ping(ctx); err != nil {
			http.Error(w, "session store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snapshot := app.Metrics.Snapshot()
			snapshot["jobs"] = app.Jobs.Recent()
			api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, app.Metrics, app.Upstream.ImageURL, cfg.RateLimitPerMinute).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(authService))
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
			dashboardhandler.NewHandler(orderService, loc, app.Upstream.ImageURL, app.Metrics).RegisterRoutes(r)
			profilehandler.NewHandler(app.Upstream.ImageURL).RegisterRoutes(r)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	app.Router = router
	return app, nil
}

// Start sweeps sessions left over from a previous run, then starts the
// background jobs until ctx ends.
func (a *App) Start(ctx context.Context) {
	if _, err := a.Jobs.RunNow(ctx, jobs.JobSessionCleanup, a.Jobs.CleanupSessions); err != nil {
		slog.Warn("startup session cleanup failed", "err", err)
	}
	a.Jobs.Start(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	log.Printf("clinic portal listening on %s (upstream %s)", cfg.Addr, cfg.ClinicAPIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
