package control

import (
	"context"
	"database/sql"
	"errors"
)

// SQLiteRepository implements Repository on the embedded SQLite store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a control repository on a migrated connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the current setpoint.
//
// Returns:
//   - Control: The stored setpoint
//   - error: ErrNotFound if the row is missing, ErrStorage on query failure
func (r *SQLiteRepository) Get(ctx context.Context) (Control, error) {
	var c Control
	err := r.db.QueryRowContext(ctx,
		"SELECT temperature, mixing_speed FROM control ORDER BY id LIMIT 1",
	).Scan(&c.Temperature, &c.MixingSpeed)
	if errors.Is(err, sql.ErrNoRows) {
		return Control{}, ErrNotFound
	}
	if err != nil {
		return Control{}, storageErr("reading control", err)
	}
	return c, nil
}

// SetTemperature validates celsius and writes it to the control row.
func (r *SQLiteRepository) SetTemperature(ctx context.Context, celsius float64) error {
	if err := ValidateTemperature(celsius); err != nil {
		return err
	}
	return r.update(ctx, "UPDATE control SET temperature = ? WHERE id = ?", celsius)
}

// SetMixingSpeed validates speed and writes it to the control row.
func (r *SQLiteRepository) SetMixingSpeed(ctx context.Context, speed int) error {
	if err := ValidateMixingSpeed(speed); err != nil {
		return err
	}
	return r.update(ctx, "UPDATE control SET mixing_speed = ? WHERE id = ?", speed)
}

// update locates the singleton row and applies query to it in one transaction.
func (r *SQLiteRepository) update(ctx context.Context, query string, value any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("starting transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM control ORDER BY id LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("locating control row", err)
	}

	if _, err := tx.ExecContext(ctx, query, value, id); err != nil {
		return storageErr("updating control", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing control", err)
	}
	return nil
}
