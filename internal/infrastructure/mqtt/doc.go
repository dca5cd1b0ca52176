// Package mqtt provides MQTT client connectivity for the bioreactor service.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - A retained status topic plus Last Will and Testament for offline detection
//   - Connection health monitoring
//
// Sensor gateways publish readings to bioreactor/measurements (or a
// per-reactor subtopic); internal/ingest subscribes and stores them.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(cfg.MQTT.Topic, byte(cfg.MQTT.QoS),
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
package mqtt
