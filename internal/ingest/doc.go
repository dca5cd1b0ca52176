// Package ingest stores sensor readings that arrive over MQTT.
//
// Gateways publish JSON readings shaped like the POST /measurement body:
//
//	{"timestamp": "2024-06-01T12:00:00Z", "temperature": 37.2, "ph": 7.05}
//
// Each message is validated and inserted exactly like an HTTP insert, so
// duplicate timestamps are rejected and invalid payloads are dropped.
// Rejections are logged and counted; nothing is published back.
package ingest
