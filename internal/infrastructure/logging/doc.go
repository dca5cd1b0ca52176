// Package logging provides structured logging for the bioreactor service.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same handler, level filter and default fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	logger.Error("insert failed", "error", err)
//
// Never log database passwords or InfluxDB tokens.
package logging
