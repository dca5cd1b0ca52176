package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/config"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/database"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	var down, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: "Apply pending schema migrations and print the migration status.\n" +
			"For PostgreSQL the idempotent schema bootstrap is run instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), cfg, log, migrateMode(down, status))
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration (sqlite only)")
	cmd.Flags().BoolVar(&status, "status", false, "print status without applying anything (sqlite only)")
	cmd.MarkFlagsMutuallyExclusive("down", "status")
	return cmd
}

type migrationMode int

const (
	migrateUp migrationMode = iota
	migrateDown
	migrateStatus
)

func migrateMode(down, status bool) migrationMode {
	switch {
	case down:
		return migrateDown
	case status:
		return migrateStatus
	default:
		return migrateUp
	}
}

// runMigrate brings the configured database schema up to date, rolls back
// one step, or only reports, depending on mode.
func runMigrate(ctx context.Context, out io.Writer, cfg *config.Config, log *logging.Logger, mode migrationMode) error {
	if cfg.Database.Driver == config.DriverPostgres {
		if mode != migrateUp {
			return fmt.Errorf("--down and --status are only supported for the sqlite driver")
		}
		pool, err := database.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer pool.Close()
		if err := database.EnsurePostgresSchema(ctx, pool); err != nil {
			return fmt.Errorf("preparing schema: %w", err)
		}
		log.Info("postgres schema ready")
		_, err = fmt.Fprintln(out, "postgres schema ready")
		return err
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only after migrations commit

	switch mode {
	case migrateUp:
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database migrations complete", "path", cfg.Database.Path)
	case migrateDown:
		if err := db.MigrateDown(ctx); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
		log.Info("rolled back latest migration", "path", cfg.Database.Path)
	}

	return printMigrationStatus(ctx, out, db)
}

// printMigrationStatus writes one line per known migration.
func printMigrationStatus(ctx context.Context, out io.Writer, db *database.DB) error {
	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	for _, m := range applied {
		if _, err := fmt.Fprintf(out, "applied  %s  %s\n", m.Version, m.AppliedAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	for _, m := range pending {
		if _, err := fmt.Fprintf(out, "pending  %s  %s\n", m.Version, m.Name); err != nil {
			return err
		}
	}
	return nil
}
