package measurement

import (
	"errors"
	"fmt"
)

// Domain errors for the measurement package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, measurement.ErrConflict) {
//	    // a reading already exists at that timestamp
//	}
var (
	// ErrInvalidArgument is returned for missing fields, unparsable timestamps
	// or unknown measurement types.
	ErrInvalidArgument = errors.New("measurement: invalid argument")

	// ErrNotFound is returned when a range query matches no measurements.
	ErrNotFound = errors.New("measurement: no measurements found for the given time range")

	// ErrConflict is returned when a measurement already exists at the timestamp.
	ErrConflict = errors.New("measurement: timestamp already recorded")

	// ErrStorage wraps any other failure of the backing store.
	ErrStorage = errors.New("measurement: storage failure")
)

// invalidf returns an ErrInvalidArgument carrying a client-facing detail.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// storageErr tags err as a storage failure during op.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
