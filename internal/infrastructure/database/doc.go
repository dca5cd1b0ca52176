// Package database provides connectivity for the bioreactor stores.
//
// This package manages:
//   - The embedded SQLite store (WAL mode, busy timeout, single connection)
//   - Schema migrations embedded in the binary (see package migrations)
//   - A pgx connection pool and idempotent schema for PostgreSQL deployments
//   - Driver-specific duplicate key detection
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive. Each file pair is named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql and runs in its own
// transaction.
package database
