package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is satisfied by the store backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the process can reach its store.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// HandleHealthz responds 200 {"status":"ok"} when the store answers a ping
// and 503 otherwise.
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
