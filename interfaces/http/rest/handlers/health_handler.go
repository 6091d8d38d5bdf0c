package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"datapoint-service/pkg/trace"

	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks map[string]ReadinessCheck
	logger *zap.Logger
}

// NewHealthHandler creates a health handler running the named checks on
// every readiness probe
func NewHealthHandler(checks map[string]ReadinessCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			trace.Logger(r.Context(), h.logger).Warn("Readiness check failed",
				zap.String("check", name),
				zap.Error(err),
			)
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "checks": failed})
		return
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
