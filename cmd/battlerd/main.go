// Command battlerd wires the Battle Engine, Battle Service, and WAMP
// runtime into one process: an admin HTTP mux (liveness/readiness/metrics)
// alongside the WAMP-over-WebSocket endpoint remote players join, exactly
// the ambient-plus-domain composition SPEC_FULL.md §0/§1 describes.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openmohaa/battler/internal/config"
	"github.com/openmohaa/battler/internal/data"
	"github.com/openmohaa/battler/internal/handlers"
	"github.com/openmohaa/battler/internal/metrics"
	"github.com/openmohaa/battler/internal/service"
	"github.com/openmohaa/battler/internal/wamp"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	redisClient := redis.NewClient(mustParseRedisURL(cfg.RedisURL, logger))
	defer redisClient.Close()

	store := resolveStore(ctx, logger, pgPool)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := service.NewWithAuthorizer(logger, store, m, service.Timeouts{
		Action: cfg.TurnTimeout,
		Player: cfg.PlayerTimeout,
		Battle: cfg.BattleTimeout,
	}, service.SameIdentityAuthorizer)

	router := wamp.NewRouter()
	servicePeer := wamp.Connect(router, cfg.Realm, nil)
	if err := service.RegisterWampSurface(servicePeer, svc, m); err != nil {
		return err
	}

	h := handlers.New(handlers.Config{
		Postgres: pgPool,
		Redis:    redisClient,
		Logger:   logger,
		Service:  svc,
		Router:   router,
		Realm:    cfg.Realm,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           newMux(h, reg, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("battlerd listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMux(h *handlers.Handler, reg *prometheus.Registry, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/wamp", h.Wamp)

	return r
}

// resolveStore prefers PostgresStore when the configured database answers a
// ping, falling back to the fixture MemoryStore otherwise (spec §1: the
// content database itself is out of scope; this is only a lookup backend
// choice, and a battler that can't reach Postgres yet should still be able
// to run the end-to-end scenarios in spec §8 against fixtures).
func resolveStore(ctx context.Context, logger *zap.Logger, pool *pgxpool.Pool) data.Store {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres unreachable, falling back to fixture data store", zap.Error(err))
		return data.NewFixtureStore()
	}
	return data.NewPostgresStore(pool, "battler")
}

func mustParseRedisURL(raw string, logger *zap.Logger) *redis.Options {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using default options", zap.Error(err))
		return &redis.Options{Addr: "localhost:6379"}
	}
	return opts
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
