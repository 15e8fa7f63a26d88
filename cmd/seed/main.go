package main

import (
	"context"
	"log"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/seed"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	seedFile := flag.String("seed-file", "config/seed.yaml", "YAML document with the accounts and services to create")
	migrate := flag.Bool("migrate", false, "apply SQL migrations before seeding")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("seeding requires POSTGRES_DSN")
	}

	if *migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	doc, err := seed.LoadFile(*seedFile)
	if err != nil {
		logger.Fatal("failed to load seed document", zap.Error(err))
	}

	res, err := seed.NewApplier(repository.NewPostgresSet(pg.PoolHandle()), cfg.Auth.BcryptCost, logger).Apply(ctx, doc)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err), zap.Int("created", res.Created))
	}
	logger.Info("seed complete", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
}
