package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/db"
	"github.com/coachhub/coachhub/internal/notifications"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/coachhub/coachhub/internal/queue/redisclient"
	"github.com/coachhub/coachhub/internal/queue/worker"
	"github.com/coachhub/coachhub/internal/repo/postgres"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.NewRegistry())
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	redis := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer func() { _ = redis.Close() }()

	var heartbeat worker.Heartbeater

	if err := redis.Ping(ctx); err != nil {
		log.Warn("redis unreachable, heartbeat disabled", "err", err)
	} else {
		heartbeat = redis
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	w := worker.New(worker.Config{
		PollInterval: cfg.WorkerPollInterval,
		LockTTL:      cfg.WorkerLockTTL,
	}, jobsRepo, notifier, heartbeat, prom, log)

	// health endpoint for the worker process
	var shuttingDown atomic.Bool

	healthSrv := &http.Server{
		Addr:              ":9091",
		Handler:           worker.HealthHandler(pool, shuttingDown.Load),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker health server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shuttingDown.Store(true)

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
