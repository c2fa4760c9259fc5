// Package httputil provides HTTP response helpers and middleware for the
// development API server.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
)

// ErrorBody is the error payload of the incident API: a general message and,
// for validation failures, a field to message map.
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON writes a raw JSON response.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error writes a {"message": ...} response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// ValidationError writes a 400 response with per-field messages.
// If err is a validator failure, each failed field gets a readable message
// keyed by the field name the validator reports. Otherwise err.Error()
// becomes the general message.
func ValidationError(w http.ResponseWriter, err error) {
	fields, ok := domain.FieldErrors(err)
	if !ok {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusBadRequest, ErrorBody{
		Message: "validation failed",
		Errors:  fields,
	})
}
