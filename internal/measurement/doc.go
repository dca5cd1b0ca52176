// Package measurement implements the bioreactor time-series path.
//
// It provides:
//   - Repository: the time-keyed store with SQLite and PostgreSQL implementations
//   - Engine: range queries over a closed window, with empty windows reported as ErrNotFound
//   - Project: the total mapping from Type to extractor, y-label and title
//   - GenerateMock / InsertEach: demo data
//   - WithMirror: a decorator copying committed inserts to a secondary sink
//
// Timestamps are normalised to UTC on the way in. Duplicate timestamps are
// reported as ErrConflict, every other store failure as ErrStorage.
package measurement
