package api

import (
	"net/http"
)

// ReadinessProvider reports whether a model is loaded.
type ReadinessProvider interface {
	Ready() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	readiness ReadinessProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(readiness ReadinessProvider) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if !h.readiness.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelLoaded: true})
}
