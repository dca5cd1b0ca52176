package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for a unique or primary key violation.
const pgUniqueViolation = "23505"

// postgresSchema mirrors the SQLite migrations for a PostgreSQL server.
// Every statement is idempotent so it can run on each start.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS control (
		id           INTEGER PRIMARY KEY CHECK (id = 1),
		temperature  DOUBLE PRECISION NOT NULL CHECK (temperature > 0),
		mixing_speed INTEGER NOT NULL CHECK (mixing_speed >= 0 AND mixing_speed <= 255)
	)`,
	`INSERT INTO control (id, temperature, mixing_speed) VALUES (1, 37.0, 0)
		ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS measurement (
		timestamp   TIMESTAMPTZ PRIMARY KEY,
		temperature DOUBLE PRECISION NOT NULL,
		ph          DOUBLE PRECISION NOT NULL
	)`,
}

// OpenPostgres connects a pgx pool and verifies it with a ping.
//
// Parameters:
//   - ctx: Context for the connect and ping
//   - dsn: postgres:// URL, see config.Config.PostgresDSN
//
// Returns:
//   - *pgxpool.Pool: Connected pool, closed by the caller
//   - error: If the DSN is invalid or the server is unreachable
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("verifying postgres connection: %w", err)
	}
	return pool, nil
}

// EnsurePostgresSchema creates the bioreactor tables and seeds the control row
// when they are absent.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting schema transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback is no-op after commit

	for _, stmt := range postgresSchema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying postgres schema: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing postgres schema: %w", err)
	}
	return nil
}

// IsPostgresUniqueViolation reports whether err is a PostgreSQL duplicate key error.
func IsPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
