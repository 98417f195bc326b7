// Package main - точка входа фоновых процессов (Worker) Synk Hub.
//
// Worker выполняет периодические задачи:
//   - Перегенерация рекомендаций для всех заполненных профилей
//   - Удаление истёкших наборов рекомендаций
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/command"
	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/metrics"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/persistence/postgres"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/persistence/redis"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/scheduler"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/scheduler/jobs"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	log := logger.New(opts).With(logger.String("service", "worker"))
	defer func() { _ = log.Sync() }()

	if !cfg.Scheduler.Enabled {
		log.Info("scheduler disabled, nothing to do")
		return nil
	}

	cleanupSchedule, err := scheduler.ParseSchedule(cfg.Scheduler.CleanupSchedule)
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩА
	// ─────────────────────────────────────────────────────────────────────────
	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := postgres.NewMigrator(db).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Redis нужен только для сброса кэша рекомендаций после перегенерации.
	var recCache recommendation.Cache
	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, cache invalidation disabled", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()
			recCache = redis.NewRecommendationCache(cache, cfg.Matching.RecommendationCacheTTL)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
		if addr := cfg.Observability.WorkerMetricsAddr; addr != "" {
			stopMetrics := serveMetrics(addr, cfg.Observability.MetricsPath, m, log)
			defer stopMetrics()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	guard := resilience.NewDatabaseGuard(m.BreakerStateChanged, m, log)
	profiles := postgres.NewProfileRepository(db)
	batches := postgres.NewRecommendationRepository(db)

	refresh := command.NewRefreshRecommendationsHandler(profiles, batches, recCache, guard, cfg.Features, m, log)
	cleanup := command.NewCleanupRecommendationsHandler(batches, guard, log)

	sched := scheduler.New(scheduler.Config{
		Logger:     log,
		Observer:   m,
		JobTimeout: cfg.Scheduler.JobTimeout,
		RunOnStart: cfg.Scheduler.RunOnStart,
	})
	if err := sched.Register(
		jobs.NewRefreshRecommendationsJob(refresh, log),
		scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshRecommendationsInterval),
	); err != nil {
		return err
	}
	if err := sched.Register(jobs.NewCleanupExpiredJob(cleanup), cleanupSchedule); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info("Synk Hub worker is running", logger.Count(len(sched.ListJobs())))

	<-ctx.Done()
	log.Info("received shutdown signal")

	done := make(chan struct{})
	go func() {
		_ = sched.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("shutdown completed")
		return nil
	case <-time.After(cfg.App.ShutdownTimeout):
		return errors.New("shutdown timed out waiting for running jobs")
	}
}

// serveMetrics serves Prometheus metrics in the background and returns a stop function.
func serveMetrics(addr, path string, m *metrics.Metrics, log *logger.Logger) func() {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", logger.Err(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
