package measurement

import (
	"context"
	"time"
)

// Measurement is one timestamped bioreactor sensor reading.
// Timestamps are unique and always held in UTC.
type Measurement struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	PH          float64   `json:"ph"`
}

// Reading is the wire form of a measurement as posted over HTTP or MQTT.
// Pointer fields distinguish an absent value from zero.
type Reading struct {
	Timestamp   *string  `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
	PH          *float64 `json:"ph"`
}

// Measurement validates the reading and converts it.
//
// Returns:
//   - Measurement: Parsed reading with a UTC timestamp
//   - error: ErrInvalidArgument if a field is missing or the timestamp is not ISO-8601
func (r Reading) Measurement() (Measurement, error) {
	if r.Timestamp == nil || r.Temperature == nil || r.PH == nil {
		return Measurement{}, invalidf("timestamp, temperature, and ph are required fields")
	}
	ts, err := ParseTimestamp(*r.Timestamp)
	if err != nil {
		return Measurement{}, invalidf("invalid timestamp format")
	}
	return Measurement{
		Timestamp:   ts,
		Temperature: *r.Temperature,
		PH:          *r.PH,
	}, nil
}

// Repository is the time-keyed measurement store.
//
// Implementations must be safe for concurrent use.
type Repository interface {
	Reader

	// Insert durably stores one measurement in its own transaction.
	//
	// Returns:
	//   - error: nil, ErrConflict for a duplicate timestamp, or ErrStorage
	Insert(ctx context.Context, m Measurement) error

	// InsertBatch stores all measurements in a single transaction. On any
	// failure nothing is written.
	//
	// Returns:
	//   - error: nil, ErrConflict if any timestamp exists, or ErrStorage
	InsertBatch(ctx context.Context, ms []Measurement) error
}

// Reader is the read side of the store.
type Reader interface {
	// Range returns measurements with from <= timestamp <= to, ascending.
	// No match (including from after to) is an empty slice, not an error.
	Range(ctx context.Context, from, to time.Time) ([]Measurement, error)
}
