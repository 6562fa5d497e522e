package handler

import (
	"context"
	"net/http"

	"github.com/leaseiq/leaseiq/internal/events"
)

// Pinger is the connectivity check the readiness probe runs against Postgres.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db     Pinger
	events *events.Publisher
}

// NewHealthHandler creates a new health handler. pub may be nil when the
// audit stream is disabled.
func NewHealthHandler(db Pinger, pub *events.Publisher) *HealthHandler {
	return &HealthHandler{
		db:     db,
		events: pub,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "Online",
		"message": "LeaseIQ API is running",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unreachable",
		})
		return
	}

	if h.events != nil && !h.events.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
