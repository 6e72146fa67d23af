package main

import (
	"context"
	"flag"

	"headless-storefront/internal/config"
	"headless-storefront/internal/db"
	"headless-storefront/internal/logging"
	"headless-storefront/internal/migrate"
)

func main() {
	var down bool
	flag.BoolVar(&down, "down", false, "Revert the most recent migration instead of applying all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("migrate", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New("migrate", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if down {
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("rollback migration")
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Bool("down", down).Msg("migrations done")
}
