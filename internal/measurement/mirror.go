package measurement

import "context"

// Mirror receives every measurement after it has been committed.
// WriteMeasurement must not block; the InfluxDB client buffers writes.
type Mirror interface {
	WriteMeasurement(m Measurement)
}

// MirroredRepository forwards committed inserts to a Mirror.
// Reads go straight to the wrapped repository.
type MirroredRepository struct {
	Repository
	mirror Mirror
}

// WithMirror wraps repo so successful inserts are copied to mirror.
// A nil mirror returns repo unchanged.
func WithMirror(repo Repository, mirror Mirror) Repository {
	if mirror == nil {
		return repo
	}
	return &MirroredRepository{Repository: repo, mirror: mirror}
}

// Insert stores m and mirrors it on success.
func (r *MirroredRepository) Insert(ctx context.Context, m Measurement) error {
	if err := r.Repository.Insert(ctx, m); err != nil {
		return err
	}
	r.mirror.WriteMeasurement(m)
	return nil
}

// InsertBatch stores ms and mirrors each row once the batch has committed.
func (r *MirroredRepository) InsertBatch(ctx context.Context, ms []Measurement) error {
	if err := r.Repository.InsertBatch(ctx, ms); err != nil {
		return err
	}
	for _, m := range ms {
		r.mirror.WriteMeasurement(m)
	}
	return nil
}
