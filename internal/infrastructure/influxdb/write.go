package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// Point layout for mirrored measurements.
const (
	measurementName  = "bioreactor_measurement"
	fieldTemperature = "temperature"
	fieldPH          = "ph"
)

// WriteMeasurement queues m as a bioreactor_measurement point stamped with
// its own timestamp. The write is non-blocking; failures are delivered to
// the SetOnError callback. Nothing is written while disconnected.
func (c *Client) WriteMeasurement(m measurement.Measurement) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(measurementPoint(m))
}

// measurementPoint converts m into a line protocol point.
func measurementPoint(m measurement.Measurement) *write.Point {
	return write.NewPoint(
		measurementName,
		nil,
		map[string]interface{}{
			fieldTemperature: m.Temperature,
			fieldPH:          m.PH,
		},
		m.Timestamp,
	)
}

var _ measurement.Mirror = (*Client)(nil)
