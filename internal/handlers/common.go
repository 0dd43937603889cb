package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// Health reports liveness: the process is up and serving.
// @Summary Liveness Probe
// @Description Reports that the process is up and serving
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]interface{} "OK"
// @Router /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports readiness: every external dependency the service needs to
// accept new battles is reachable (spec AMBIENT STACK: readiness separate
// from liveness, mirroring the teacher's /healthz+/readyz split).
// @Summary Readiness Probe
// @Description Reports whether Postgres and Redis are reachable and how many battles are active
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]interface{} "Ready"
// @Failure 503 {object} map[string]interface{} "Not ready"
// @Router /readyz [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]bool{
		"postgres": h.pg == nil || h.pg.Ping(ctx) == nil,
		"redis":    h.redis == nil || h.redis.Ping(ctx).Err() == nil,
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":         allHealthy,
		"checks":        checks,
		"battlesActive": h.svc.ActiveBattleCount(),
	})
}
