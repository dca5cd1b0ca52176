// Package influxdb mirrors bioreactor measurements into InfluxDB.
//
// The relational store stays the source of truth for the HTTP API. When
// influxdb.enabled is set, every committed measurement is also written as a
// bioreactor_measurement point (fields temperature and ph) so it can be
// explored with Flux or Grafana.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	repo = measurement.WithMirror(repo, client)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; asynchronous write
// failures are reported through SetOnError.
package influxdb
