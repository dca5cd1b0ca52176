package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/bioreactor-core/internal/control"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/config"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/database"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// stores bundles the repositories for the configured driver.
type stores struct {
	measurements measurement.Repository
	control      control.Repository
	health       func(ctx context.Context) error
	close        func() error
}

// openStores connects the configured database and brings its schema up to
// date. SQLite runs the embedded migrations; PostgreSQL gets the idempotent
// schema bootstrap.
func openStores(ctx context.Context, cfg *config.Config, log *logging.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := database.EnsurePostgresSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("preparing schema: %w", err)
		}
		log.Info("database connected",
			"driver", config.DriverPostgres,
			"host", cfg.Database.Postgres.Host,
			"dbname", cfg.Database.Postgres.DBName,
		)
		return &stores{
			measurements: measurement.NewPostgresRepository(pool),
			control:      control.NewPostgresRepository(pool),
			health:       pool.Ping,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		db, err := openSQLite(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("database connected", "driver", config.DriverSQLite, "path", cfg.Database.Path)
		return &stores{
			measurements: measurement.NewSQLiteRepository(db.DB),
			control:      control.NewSQLiteRepository(db.DB),
			health:       db.HealthCheck,
			close:        db.Close,
		}, nil
	}
}

// openSQLite opens the SQLite file and applies pending migrations.
func openSQLite(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}
