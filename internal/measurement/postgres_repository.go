package measurement

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/database"
)

// PostgresRepository implements Repository on PostgreSQL through a pgx pool.
// The measurement table is created by database.EnsurePostgresSchema.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a measurement repository on a connected pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pgInsert = "INSERT INTO measurement (timestamp, temperature, ph) VALUES ($1, $2, $3)"

// Insert stores one measurement in its own transaction.
func (r *PostgresRepository) Insert(ctx context.Context, m Measurement) error {
	return r.InsertBatch(ctx, []Measurement{m})
}

// InsertBatch queues every insert into one pgx batch inside a transaction.
func (r *PostgresRepository) InsertBatch(ctx context.Context, ms []Measurement) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("starting transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback is no-op after commit

	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(pgInsert, m.Timestamp.UTC(), m.Temperature, m.PH)
	}

	br := tx.SendBatch(ctx, batch)
	for _, m := range ms {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck // The exec error is the one worth reporting
			if database.IsPostgresUniqueViolation(err) {
				return conflictErr(m.Timestamp)
			}
			return storageErr("inserting measurement", err)
		}
	}
	if err := br.Close(); err != nil {
		return storageErr("closing batch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("committing measurements", err)
	}
	return nil
}

// Range returns measurements between from and to inclusive, oldest first.
func (r *PostgresRepository) Range(ctx context.Context, from, to time.Time) ([]Measurement, error) {
	if from.After(to) {
		return []Measurement{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT timestamp, temperature, ph FROM measurement
		 WHERE timestamp BETWEEN $1 AND $2
		 ORDER BY timestamp ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, storageErr("querying measurements", err)
	}

	result, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Measurement])
	if err != nil {
		return nil, storageErr("collecting measurements", err)
	}
	for i := range result {
		result[i].Timestamp = result[i].Timestamp.UTC()
	}
	if result == nil {
		result = []Measurement{}
	}
	return result, nil
}
