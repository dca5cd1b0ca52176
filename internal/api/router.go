package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(echoRequestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/control", func(r chi.Router) {
		r.Get("/", s.handleGetControl)
		r.Put("/temperature", s.handleSetTemperature)
		r.Put("/mixing_speed", s.handleSetMixingSpeed)
	})

	r.Route("/measurement", func(r chi.Router) {
		r.Post("/", s.handleInsertMeasurement)
		r.Post("/batch", s.handleInsertBatch)
		r.Post("/insert_mock_data", s.handleInsertMockData)
		r.Get("/{type}", s.handleGetSeries)
		r.Get("/{type}/png", s.handleGetChart)
	})

	return r
}

// handleHealth reports database reachability and the running version.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "unavailable",
				"version": s.version,
				"error":   err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
