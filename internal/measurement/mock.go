package measurement

import (
	"context"
	"math/rand/v2"
	"time"
)

// Mock series parameters: twelve hours of one-minute readings.
const (
	MockReadings = 720
	MockInterval = time.Minute
	MockSpan     = 12 * time.Hour

	mockStartTemperature = 37.0
	mockStartPH          = 7.2
	mockTemperatureStep  = 0.1
	mockPHStep           = 0.05
)

// GenerateMock builds n readings MockInterval apart starting at start.
// Temperature and pH follow a random walk whose step is drawn uniformly from
// [-0.1, 0.1] and [-0.05, 0.05] respectively. Each step is applied before
// the reading is recorded.
func GenerateMock(start time.Time, n int, rng *rand.Rand) []Measurement {
	temperature := mockStartTemperature
	ph := mockStartPH

	ms := make([]Measurement, n)
	for i := range ms {
		temperature += uniform(rng, mockTemperatureStep)
		ph += uniform(rng, mockPHStep)
		ms[i] = Measurement{
			Timestamp:   start.Add(time.Duration(i) * MockInterval).UTC(),
			Temperature: temperature,
			PH:          ph,
		}
	}
	return ms
}

// uniform draws from [-bound, bound).
func uniform(rng *rand.Rand, bound float64) float64 {
	return (rng.Float64()*2 - 1) * bound
}

// InsertEach inserts ms one transaction per row, stopping at the first error.
// Rows before the failing one stay committed. This is the demo path; use
// Repository.InsertBatch when all-or-nothing is required.
//
// Returns:
//   - int: Number of rows committed
//   - error: The first insert error, if any
func InsertEach(ctx context.Context, repo Repository, ms []Measurement) (int, error) {
	for i, m := range ms {
		if err := repo.Insert(ctx, m); err != nil {
			return i, err
		}
	}
	return len(ms), nil
}
