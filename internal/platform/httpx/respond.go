// Package httpx holds shared HTTP response helpers: JSON encoding and the
// mapping from service errors to status codes.
package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"startup-dataroom/backend/internal/apperr"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpx: encode response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Error writes err as a JSON error response, mapping the service error
// taxonomy to HTTP status codes. Unrecognized errors are 500s with a generic
// body so internals do not leak.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrInvalidEntry):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrExpired), errors.Is(err, apperr.ErrRevoked):
		status, msg = http.StatusGone, err.Error()
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, apperr.ErrAccessDenied):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, apperr.ErrWorkflowClosed):
		status, msg = http.StatusConflict, err.Error()
	default:
		log.Printf("httpx: internal error: %v", err)
	}
	JSON(w, status, errorBody{Error: msg})
}

// Decode reads the request body as JSON into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.ErrInvalidInput
	}
	return nil
}
