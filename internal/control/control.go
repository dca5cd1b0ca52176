package control

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Setpoint limits enforced before any write. The schema repeats them as
// CHECK constraints.
const (
	MinMixingSpeed = 0
	MaxMixingSpeed = 255
)

// Domain errors for the control package.
var (
	// ErrInvalidArgument is returned when a setpoint is missing or out of range.
	ErrInvalidArgument = errors.New("control: invalid argument")

	// ErrNotFound is returned when the control row is missing.
	ErrNotFound = errors.New("control: record not found")

	// ErrStorage wraps failures of the backing store.
	ErrStorage = errors.New("control: storage failure")
)

// Control is the single persisted bioreactor setpoint.
type Control struct {
	Temperature float64 `json:"temperature"`
	MixingSpeed int     `json:"mixing_speed"`
}

// Repository reads and updates the control singleton.
//
// Each setter is a read-modify-write of the one row in a single transaction.
type Repository interface {
	// Get returns the current setpoint.
	Get(ctx context.Context) (Control, error)

	// SetTemperature stores a new target temperature in °C.
	SetTemperature(ctx context.Context, celsius float64) error

	// SetMixingSpeed stores a new mixing speed in [0,255].
	SetMixingSpeed(ctx context.Context, speed int) error
}

// ValidateTemperature rejects non-positive and non-finite temperatures.
func ValidateTemperature(celsius float64) error {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) || celsius <= 0 {
		return fmt.Errorf("%w: invalid temperature value", ErrInvalidArgument)
	}
	return nil
}

// ValidateMixingSpeed rejects speeds outside [MinMixingSpeed, MaxMixingSpeed].
func ValidateMixingSpeed(speed int) error {
	if speed < MinMixingSpeed || speed > MaxMixingSpeed {
		return fmt.Errorf("%w: invalid mixing speed value", ErrInvalidArgument)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
