package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheckTimeout bounds the store ping of the readiness check.
const HealthCheckTimeout = 5 * time.Second

// Pinger is implemented by the store.
type Pinger interface {
	Healthcheck(ctx context.Context) error
}

// HealthHandler serves the unauthenticated health checks.
type HealthHandler struct {
	store     Pinger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. A nil store makes the
// readiness check fail.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"service":    "kanbu-acl",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready by pinging the store.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.store.Healthcheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"store_latency": time.Since(start).String(),
	}))
}
