package mqtt

import "fmt"

// TopicPrefix is the root of every bioreactor topic.
const TopicPrefix = "bioreactor"

// Topics provides builders for bioreactor MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Measurements()            // bioreactor/measurements
//	topics.ReactorMeasurements("r1") // bioreactor/measurements/r1
type Topics struct{}

// Status returns the retained service status topic, also used for the LWT.
//
// Example: bioreactor/status
func (Topics) Status() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// Measurements returns the default ingestion topic.
//
// Example: bioreactor/measurements
func (Topics) Measurements() string {
	return fmt.Sprintf("%s/measurements", TopicPrefix)
}

// ReactorMeasurements returns the ingestion topic for one named reactor.
//
// Example: bioreactor/measurements/r1
func (Topics) ReactorMeasurements(reactorID string) string {
	return fmt.Sprintf("%s/measurements/%s", TopicPrefix, reactorID)
}

// AllReactorMeasurements returns a pattern matching every per-reactor topic.
//
// Pattern: bioreactor/measurements/+
func (Topics) AllReactorMeasurements() string {
	return fmt.Sprintf("%s/measurements/+", TopicPrefix)
}
