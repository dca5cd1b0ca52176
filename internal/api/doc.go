// Package api implements the HTTP REST API for the bioreactor.
//
// This package provides:
//   - Control endpoints to read and update the setpoint
//   - Measurement ingestion, single and batched
//   - Range queries returning a projected series as JSON or a PNG chart
//   - Health and Prometheus metrics endpoints
//   - Middleware stack (request ID, logging, recovery, metrics, CORS, body limit)
//
// # Error responses
//
// Every non-2xx JSON response carries an "error" string and a machine-readable
// "code". Domain sentinels map to status codes in one place (writeDomainError):
// invalid arguments to 400, empty ranges to 404, duplicate timestamps to 409
// and storage failures to 500.
//
// There is no authentication; deployments are expected to sit behind a gateway.
package api
