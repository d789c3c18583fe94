package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/asset-desk/internal/pkg/ctxlog"
)

// ErrorMapping binds a sentinel error to the response it produces.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError answers with the first mapping whose error matches err.
// Mapped server-side statuses are logged at warn level; anything unmapped is
// logged as an internal error and answered with 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		if m.Status >= http.StatusInternalServerError {
			ctxlog.From(ctx).Warn("request failed", "status", m.Status, "error", err)
		}
		Error(w, m.Status, msg)
		return
	}

	ctxlog.From(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
