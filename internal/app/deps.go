package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/cache"
	"github.com/reelplanner/backend/internal/config"
	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/handlers"
	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/middleware"
	"github.com/reelplanner/backend/internal/planner"
	"github.com/reelplanner/backend/internal/repositories"
	"github.com/reelplanner/backend/internal/snapshots"
	"github.com/reelplanner/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. A nil pool selects the in-memory stores. The returned cleanup
// releases connections opened here.
func buildDependencies(ctx context.Context, cfg config.Config, pool db.Pool) (handlers.Dependencies, func(), error) {
	logger := logging.FromContext(ctx)
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		store        planner.Store
		accounts     handlers.AccountStore
		sessionStore auth.SessionStore
		health       handlers.HealthHandler
	)
	if pool != nil {
		store = repositories.NewPostgresStore(pool)
		accounts = repositories.NewPostgresAccountRepository(pool)
		sessionStore = repositories.NewPostgresSessionStore(pool)
		health.Ready = poolReady(pool)
	} else {
		logger.Warn("using in-memory record store; data is lost on restart")
		store = planner.NewMemoryStore()
		accounts = repositories.NewMemoryAccountRepository()
		sessionStore = auth.NewInMemorySessionStore()
	}

	statsCache, closeCache, err := buildStatsCache(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, func() {}, err
	}
	closers = append(closers, closeCache)

	p := planner.New(store, planner.Options{Cache: statsCache})
	if err := p.Gate.BootstrapAdmins(ctx, normalizeIdentities(cfg.BootstrapAdmins)); err != nil {
		cleanup()
		return handlers.Dependencies{}, func() {}, err
	}

	sessions := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, sessionStore)

	deps := handlers.Dependencies{
		Accounts:       accounts,
		Sessions:       sessions,
		Verifier:       sessions,
		Ideas:          p.Ideas,
		Hashtags:       p.Hashtags,
		Profiles:       p.Profiles,
		Stats:          p.Stats,
		Gate:           p.Gate,
		Health:         health,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateLimit.Requests, cfg.AuthRateLimit.Window, cfg.AuthRateLimit.Burst, 10*cfg.AuthRateLimit.Window),
		AuthRetryAfter: cfg.AuthRateLimit.Window / time.Duration(max(cfg.AuthRateLimit.Requests, 1)),
	}

	if cfg.ObjectStore.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			cleanup()
			return handlers.Dependencies{}, func() {}, err
		}
		deps.Snapshots = snapshots.NewExporter(p.Gate, store, s3)
	} else {
		logger.Info("object storage not configured; snapshot export disabled")
	}

	return deps, cleanup, nil
}

func buildStatsCache(ctx context.Context, cfg config.Config) (planner.StatsCache, func(), error) {
	if cfg.RedisURL == "" {
		return planner.NewMemoryStatsCache(cfg.StatsCacheTTL), func() {}, nil
	}

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect statistics cache: %w", err)
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			logging.FromContext(ctx).Warn("close redis client", "error", err)
		}
	}
	return cache.NewStatsCache(client, cfg.StatsCacheTTL), closeClient, nil
}

func newRouter(logger *slog.Logger, cfg config.Config, deps handlers.Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers.RegisterRoutes(r, deps)
	return r
}

func poolReady(pool db.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Release()
		return conn.Ping(ctx)
	}
}

func normalizeIdentities(identities []string) []string {
	out := make([]string, 0, len(identities))
	for _, id := range identities {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			out = append(out, id)
		}
	}
	return out
}
