// Package main - точка входа HTTP API Synk Hub.
//
// API отдаёт подбор напарников и персональные рекомендации, принимает
// изменения расписания доступности и считает предпросмотр по переданным
// профилям без обращения к хранилищу.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/command"
	"github.com/quickksynkk/synk-hub/internal/application/query"
	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/metrics"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/persistence/postgres"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/persistence/redis"
	httpapi "github.com/quickksynkk/synk-hub/internal/interface/http"
	"github.com/quickksynkk/synk-hub/internal/interface/http/handlers"
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

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting Synk Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Any("features", cfg.Features.Rollouts()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := postgres.NewMigrator(db).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", logger.Int("applied", applied))
	}

	profiles := postgres.NewProfileRepository(db)
	batches := postgres.NewRecommendationRepository(db)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально: без него кэш просто не используется)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache    *redis.Cache
		matchC   matching.Cache
		recCache recommendation.Cache
	)
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()
			matchC = redis.NewMatchCache(cache, cfg.Matching.MatchCacheTTL)
			recCache = redis.NewRecommendationCache(cache, cfg.Matching.RecommendationCacheTTL)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. МЕТРИКИ И ОТКАЗОУСТОЙЧИВОСТЬ
	// ─────────────────────────────────────────────────────────────────────────
	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}
	guard := resilience.NewDatabaseGuard(m.BreakerStateChanged, m, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. USE CASES
	// ─────────────────────────────────────────────────────────────────────────
	limits := query.MatchesConfig{
		DefaultLimit: cfg.Matching.DefaultLimit,
		MaxLimit:     cfg.Matching.MaxLimit,
	}

	deps := httpapi.Dependencies{
		FindMatches:        query.NewFindMatchesHandler(profiles, matchC, guard, cfg.Features, m, log, limits),
		GetRecommendations: query.NewGetRecommendationsHandler(profiles, batches, recCache, guard, cfg.Features, m, log),
		Preview:            query.NewPreviewHandler(cfg.Features, limits),
		UpdateAvailability: command.NewUpdateAvailabilityHandler(profiles, matchC, recCache, guard, m, log),
		HealthChecker:      newHealthChecker(cfg, db, cache),
		Metrics:            m,
		Logger:             log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP СЕРВЕР И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.ConfigFrom(cfg.HTTP)
	if cfg.Observability.MetricsPath != "" {
		serverCfg.MetricsPath = cfg.Observability.MetricsPath
	}
	server := httpapi.NewServer(serverCfg, deps)

	errCh := server.StartAsync()
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("http server stopped unexpectedly")
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func newLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts).With(logger.String("service", "api"))
}

// newHealthChecker проверяет базу (критично) и Redis (только деградация).
func newHealthChecker(cfg *config.Config, db *postgres.Connection, cache *redis.Cache) *handlers.CompositeHealthChecker {
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("database", handlers.PingCheck(db))
	if cache != nil {
		checker.AddOptionalCheck("cache", handlers.PingCheck(cache))
	}
	return checker
}
