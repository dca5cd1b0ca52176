package measurement

import (
	"context"
	"time"
)

// Window is a closed time interval [From, To].
type Window struct {
	From time.Time
	To   time.Time
}

// ParseWindow parses the raw from/to query parameters.
//
// Returns:
//   - Window: Parsed bounds in UTC
//   - error: ErrInvalidArgument if a bound is missing, unparsable, or from is after to
func ParseWindow(fromRaw, toRaw string) (Window, error) {
	if fromRaw == "" || toRaw == "" {
		return Window{}, invalidf("from and to query parameters are required")
	}
	from, err := ParseTimestamp(fromRaw)
	if err != nil {
		return Window{}, invalidf("invalid date format")
	}
	to, err := ParseTimestamp(toRaw)
	if err != nil {
		return Window{}, invalidf("invalid date format")
	}
	if from.After(to) {
		return Window{}, invalidf("from must not be after to")
	}
	return Window{From: from, To: to}, nil
}

// Engine answers range queries and series projections over a Reader.
type Engine struct {
	store Reader
}

// NewEngine creates a query engine reading from store.
func NewEngine(store Reader) *Engine {
	return &Engine{store: store}
}

// Query returns the measurements inside w in timestamp order.
//
// Returns:
//   - []Measurement: At least one measurement
//   - error: ErrNotFound for an empty window, ErrStorage on store failure
func (e *Engine) Query(ctx context.Context, w Window) ([]Measurement, error) {
	ms, err := e.store.Range(ctx, w.From, w.To)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, ErrNotFound
	}
	return ms, nil
}

// Series runs Query and projects the result onto t.
func (e *Engine) Series(ctx context.Context, t Type, w Window) (Series, error) {
	if _, ok := projections[t]; !ok {
		return Series{}, invalidf("invalid measurement type %q", t)
	}
	ms, err := e.Query(ctx, w)
	if err != nil {
		return Series{}, err
	}
	return Project(t, ms)
}
