package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
)

// ErrorMapping maps a service error to a status and client-facing message.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError writes the response of the first mapping err matches.
// Mapped errors are expected outcomes of a request and are logged at debug
// level; anything else is logged as an error and answered with 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	logger := ctxlog.FromContext(ctx)

	i := matchMapping(err, mappings)
	if i < 0 {
		logger.Error("unhandled service error", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	m := mappings[i]
	msg := m.Message
	if msg == "" {
		msg = err.Error()
	}
	logger.Debug("request rejected", "status", m.Status, "error", err)
	Error(w, m.Status, msg)
}

func matchMapping(err error, mappings []ErrorMapping) int {
	for i, m := range mappings {
		if errors.Is(err, m.Error) {
			return i
		}
	}
	return -1
}
