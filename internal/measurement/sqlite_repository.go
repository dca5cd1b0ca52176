package measurement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/database"
)

// SQLiteRepository implements Repository on the embedded SQLite store.
//
// Timestamps are persisted as fixed-width UTC text, so the primary key index
// serves ordered range scans directly.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a measurement repository on an open connection
// whose schema has been migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteInsert = "INSERT INTO measurement (timestamp, temperature, ph) VALUES (?, ?, ?)"

// Insert stores one measurement in its own transaction.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - m: Measurement to persist
//
// Returns:
//   - error: nil on success, ErrConflict for a duplicate timestamp, otherwise ErrStorage
func (r *SQLiteRepository) Insert(ctx context.Context, m Measurement) error {
	return r.InsertBatch(ctx, []Measurement{m})
}

// InsertBatch stores all measurements in one transaction. Either every row
// is committed or none is.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, ms []Measurement) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("starting transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx, sqliteInsert)
	if err != nil {
		return storageErr("preparing insert", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, formatStorage(m.Timestamp), m.Temperature, m.PH); err != nil {
			if database.IsSQLiteUniqueViolation(err) {
				return conflictErr(m.Timestamp)
			}
			return storageErr("inserting measurement", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing measurements", err)
	}
	return nil
}

// Range returns measurements between from and to inclusive, oldest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - from: Inclusive lower bound
//   - to: Inclusive upper bound
//
// Returns:
//   - []Measurement: Matching rows in ascending timestamp order (may be empty)
//   - error: ErrStorage if the query fails
func (r *SQLiteRepository) Range(ctx context.Context, from, to time.Time) ([]Measurement, error) {
	result := []Measurement{}
	if from.After(to) {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT timestamp, temperature, ph FROM measurement
		 WHERE timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp ASC`,
		formatStorage(from),
		formatStorage(to),
	)
	if err != nil {
		return nil, storageErr("querying measurements", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Measurement
		var ts string
		if err := rows.Scan(&ts, &m.Temperature, &m.PH); err != nil {
			return nil, storageErr("scanning measurement", err)
		}
		if m.Timestamp, err = parseStorage(ts); err != nil {
			return nil, storageErr("parsing stored timestamp", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating measurements", err)
	}
	return result, nil
}

func conflictErr(ts time.Time) error {
	return fmt.Errorf("%w: %s", ErrConflict, ts.Format(time.RFC3339Nano))
}
