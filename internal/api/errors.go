package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/bioreactor-core/internal/control"
	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeTooLarge   = "body_too_large"
	ErrCodeInternal   = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeDecodeError reports a request body that could not be decoded. Bodies
// cut off by the size limit get 413, anything else 400.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
		return
	}
	writeBadRequest(w, "invalid JSON body")
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a control or measurement error onto a status code.
// Storage failures are logged and their message passed through.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, measurement.ErrInvalidArgument):
		writeBadRequest(w, detail(err, measurement.ErrInvalidArgument))
	case errors.Is(err, control.ErrInvalidArgument):
		writeBadRequest(w, detail(err, control.ErrInvalidArgument))
	case errors.Is(err, measurement.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, detail(err, measurement.ErrNotFound))
	case errors.Is(err, control.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, detail(err, control.ErrNotFound))
	case errors.Is(err, measurement.ErrConflict):
		writeError(w, http.StatusConflict, ErrCodeConflict, detail(err, measurement.ErrConflict))
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", requestID(r),
		)
		writeInternalError(w, err.Error())
	}
}

// detail strips the package prefix from a sentinel-wrapped error so the
// client sees only the specific message. A bare sentinel keeps its text
// minus the package name.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}
