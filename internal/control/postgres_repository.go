package control

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a control repository on a connected pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get returns the current setpoint.
func (r *PostgresRepository) Get(ctx context.Context) (Control, error) {
	var c Control
	err := r.pool.QueryRow(ctx,
		"SELECT temperature, mixing_speed FROM control ORDER BY id LIMIT 1",
	).Scan(&c.Temperature, &c.MixingSpeed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Control{}, ErrNotFound
	}
	if err != nil {
		return Control{}, storageErr("reading control", err)
	}
	return c, nil
}

// SetTemperature validates celsius and writes it to the control row.
func (r *PostgresRepository) SetTemperature(ctx context.Context, celsius float64) error {
	if err := ValidateTemperature(celsius); err != nil {
		return err
	}
	return r.update(ctx, "UPDATE control SET temperature = $1 WHERE id = $2", celsius)
}

// SetMixingSpeed validates speed and writes it to the control row.
func (r *PostgresRepository) SetMixingSpeed(ctx context.Context, speed int) error {
	if err := ValidateMixingSpeed(speed); err != nil {
		return err
	}
	return r.update(ctx, "UPDATE control SET mixing_speed = $1 WHERE id = $2", speed)
}

// update locks the singleton row and applies query to it.
func (r *PostgresRepository) update(ctx context.Context, query string, value any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("starting transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback is no-op after commit

	var id int64
	err = tx.QueryRow(ctx, "SELECT id FROM control ORDER BY id LIMIT 1 FOR UPDATE").Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("locating control row", err)
	}

	if _, err := tx.Exec(ctx, query, value, id); err != nil {
		return storageErr("updating control", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("committing control", err)
	}
	return nil
}
