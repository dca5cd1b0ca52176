package api

import (
	"encoding/json"
	"net/http"
)

// setTemperatureRequest is the body of PUT /control/temperature.
type setTemperatureRequest struct {
	Temperature *float64 `json:"temperature"`
}

// setMixingSpeedRequest is the body of PUT /control/mixing_speed.
type setMixingSpeedRequest struct {
	MixingSpeed *int `json:"mixing_speed"`
}

// handleGetControl returns the current setpoint.
func (s *Server) handleGetControl(w http.ResponseWriter, r *http.Request) {
	c, err := s.control.Get(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleSetTemperature updates the target temperature.
func (s *Server) handleSetTemperature(w http.ResponseWriter, r *http.Request) {
	var req setTemperatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Temperature == nil {
		writeBadRequest(w, "invalid temperature value")
		return
	}

	if err := s.control.SetTemperature(r.Context(), *req.Temperature); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("temperature setpoint updated", "temperature", *req.Temperature)
	w.WriteHeader(http.StatusNoContent)
}

// handleSetMixingSpeed updates the mixing speed.
func (s *Server) handleSetMixingSpeed(w http.ResponseWriter, r *http.Request) {
	var req setMixingSpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.MixingSpeed == nil {
		writeBadRequest(w, "invalid mixing speed value")
		return
	}

	if err := s.control.SetMixingSpeed(r.Context(), *req.MixingSpeed); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("mixing speed setpoint updated", "mixing_speed", *req.MixingSpeed)
	w.WriteHeader(http.StatusNoContent)
}
