package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler answers readiness probes by pinging the backing services.
type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
}

// NewHealthHandler creates a health handler. redis may be nil when rate
// limiting is disabled.
func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Health(ctx); err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		respondError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			log.Error().Err(err).Msg("Redis health check failed")
			respondError(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
