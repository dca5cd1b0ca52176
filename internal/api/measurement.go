package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// batchRequest is the body of POST /measurement/batch.
type batchRequest struct {
	Measurements []measurement.Reading `json:"measurements"`
}

// handleInsertMeasurement stores one reading.
func (s *Server) handleInsertMeasurement(w http.ResponseWriter, r *http.Request) {
	var reading measurement.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		s.countInsertFailure(measurement.ErrInvalidArgument)
		writeDecodeError(w, err)
		return
	}

	m, err := reading.Measurement()
	if err != nil {
		s.countInsertFailure(err)
		s.writeDomainError(w, r, err)
		return
	}

	if err := s.measurements.Insert(r.Context(), m); err != nil {
		s.countInsertFailure(err)
		s.writeDomainError(w, r, err)
		return
	}
	s.metrics.inserted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// handleInsertBatch stores every reading in the body in one transaction.
// Any invalid item rejects the whole request before the store is touched.
func (s *Server) handleInsertBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.countInsertFailure(measurement.ErrInvalidArgument)
		writeDecodeError(w, err)
		return
	}
	if len(req.Measurements) == 0 {
		s.countInsertFailure(measurement.ErrInvalidArgument)
		writeBadRequest(w, "measurements must not be empty")
		return
	}

	ms := make([]measurement.Measurement, len(req.Measurements))
	for i, reading := range req.Measurements {
		m, err := reading.Measurement()
		if err != nil {
			s.countInsertFailure(err)
			writeBadRequest(w, fmt.Sprintf("measurements[%d]: %s", i, detail(err, measurement.ErrInvalidArgument)))
			return
		}
		ms[i] = m
	}

	if err := s.measurements.InsertBatch(r.Context(), ms); err != nil {
		s.countInsertFailure(err)
		s.writeDomainError(w, r, err)
		return
	}
	s.metrics.inserted.Add(float64(len(ms)))
	s.logger.Info("measurement batch stored", "count", len(ms))
	w.WriteHeader(http.StatusNoContent)
}

// handleInsertMockData fills the last twelve hours with a random walk.
// By default each row commits on its own; ?batch=true uses one transaction.
func (s *Server) handleInsertMockData(w http.ResponseWriter, r *http.Request) {
	batch := false
	if raw := r.URL.Query().Get("batch"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "batch must be a boolean")
			return
		}
		batch = v
	}

	start := s.now().Add(-measurement.MockSpan)
	s.rngMu.Lock()
	ms := measurement.GenerateMock(start, measurement.MockReadings, s.rng)
	s.rngMu.Unlock()

	var (
		stored int
		err    error
	)
	if batch {
		if err = s.measurements.InsertBatch(r.Context(), ms); err == nil {
			stored = len(ms)
		}
	} else {
		stored, err = measurement.InsertEach(r.Context(), s.measurements, ms)
	}
	s.metrics.inserted.Add(float64(stored))

	if err != nil {
		s.countInsertFailure(err)
		s.logger.Error("mock data insert failed",
			"stored", stored,
			"batch", batch,
			"error", err,
		)
		writeInternalError(w, err.Error())
		return
	}
	s.logger.Info("mock data inserted", "count", stored, "batch", batch)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSeries returns the projected series for a window as JSON.
func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	series, _, err := s.querySeries(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleGetChart renders the projected series for a window as PNG.
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	series, window, err := s.querySeries(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	start := time.Now()
	img, err := s.renderer.RenderPNG(series, window)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.metrics.observeChart(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(img) //nolint:errcheck // Best-effort write to response; connection may be closed
}

// querySeries resolves the {type} path segment and from/to parameters shared
// by the JSON and PNG endpoints. The type is checked before the window.
func (s *Server) querySeries(r *http.Request) (measurement.Series, measurement.Window, error) {
	t, err := measurement.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		return measurement.Series{}, measurement.Window{}, err
	}

	q := r.URL.Query()
	window, err := measurement.ParseWindow(q.Get("from"), q.Get("to"))
	if err != nil {
		return measurement.Series{}, measurement.Window{}, err
	}

	series, err := s.engine.Series(r.Context(), t, window)
	if err != nil {
		return measurement.Series{}, measurement.Window{}, err
	}
	return series, window, nil
}

// countInsertFailure records a rejected insert by error kind.
func (s *Server) countInsertFailure(err error) {
	reason := "storage"
	switch {
	case errors.Is(err, measurement.ErrInvalidArgument):
		reason = "invalid"
	case errors.Is(err, measurement.ErrConflict):
		reason = "conflict"
	}
	s.metrics.insertFailures.WithLabelValues(reason).Inc()
}
