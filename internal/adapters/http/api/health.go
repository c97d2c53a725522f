package api

import (
	"net/http"

	"github.com/okian/gauntlet/internal/domain/types"
)

// ReadinessReporter reports storage readiness.
type ReadinessReporter interface {
	IsReady() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	readiness ReadinessReporter
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(r ReadinessReporter) *HealthHandler {
	return &HealthHandler{readiness: r}
}

// HandleHealth handles GET /health. The process is alive whenever it can
// answer, so ok is always true; db reflects storage readiness.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.Health{OK: true, DB: h.readiness.IsReady()})
}
