// Package main - управление схемой базы Synk Hub.
//
//	migrate up      применить все новые миграции
//	migrate down    откатить последнюю миграцию
//	migrate status  показать состояние миграций
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/persistence/postgres"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(ctx, cmd); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	log := logger.New(opts).With(logger.String("service", "migrate"))
	defer func() { _ = log.Sync() }()

	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m := postgres.NewMigrator(db)

	switch cmd {
	case "up":
		applied, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", logger.Count(applied))

	case "down":
		if err := m.Rollback(ctx); err != nil {
			return err
		}
		log.Info("last migration rolled back")

	case "status":
		migrations, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, mg := range migrations {
			applied := "pending"
			if mg.IsApplied {
				applied = mg.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%03d  %-32s %s\n", mg.Version, mg.Name, applied)
		}

	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", cmd)
	}
	return nil
}
