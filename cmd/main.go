package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bafain/orders-service/internal/application"
	"github.com/bafain/orders-service/internal/auth"
	"github.com/bafain/orders-service/internal/config"
	"github.com/bafain/orders-service/internal/kafka"
	"github.com/bafain/orders-service/internal/logger"
	"github.com/bafain/orders-service/internal/migrate"
	"github.com/bafain/orders-service/internal/presentation"
	"github.com/bafain/orders-service/internal/ratelimit"
	"github.com/bafain/orders-service/internal/repository"
)

func main() {
	logger.Init()
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("config load failed", "err", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		logger.InitProduction()
	}

	// DB pool
	pool, err := pgxpool.New(context.Background(), cfg.DB_STRING)
	if err != nil {
		logger.Warn("pgxpool new failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Warn("db ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("db connected")

	if err := migrate.Up(cfg.DB_STRING); err != nil {
		logger.Warn("migrations failed", "err", err)
		os.Exit(1)
	}

	// Kafka producer for order lifecycle events
	var events application.EventPublisher = application.NoopPublisher{}
	if cfg.KAFKA_BROKERS != "" {
		prod := kafka.NewProducer(cfg.KAFKA_BROKERS, cfg.KAFKA_TOPIC)
		defer prod.Close()
		events = prod
	}

	// Wiring
	store := repository.NewPostgresStore(pool)
	clock := application.SystemClock()
	svc := application.NewOrdersService(store, clock, events)
	stats := application.NewStatsService(store)
	admin := application.NewAdminService(store, clock, events)

	resolver := auth.NewJWTResolver(cfg.JWT_SECRET)

	limiter, err := ratelimit.New(ratelimit.Config{
		Window:      cfg.RATE_LIMIT_WINDOW,
		MaxAttempts: cfg.RATE_LIMIT_MAX_ATTEMPTS,
		Block:       cfg.RATE_LIMIT_BLOCK,
	}, pool, cfg.IsProduction())
	if err != nil {
		logger.Warn("rate limiter init failed", "err", err)
		os.Exit(1)
	}

	// Optional background expiry sweep; expiry stays lazy when disabled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go application.NewSweeper(store, clock, events, cfg.SWEEP_INTERVAL).Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API
	h := presentation.NewOrdersHandler(svc, stats, admin, resolver, resolver, limiter)
	h.Register(r)

	addr := ":" + cfg.HTTP_PORT
	logger.Info("starting http", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Warn("http server crashed", "err", err)
		os.Exit(1)
	}
}
