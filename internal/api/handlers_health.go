// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// healthCheckTimeout bounds the database ping so a wedged connection
// cannot stall the health endpoint.
const healthCheckTimeout = 5 * time.Second

// Health handles GET /api/v1/health
// @Summary Service health
// @Description Returns overall service health including database connectivity and open session count
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Success 503 {object} models.APIResponse{data=models.HealthStatus}
// @Router /api/v1/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := h.db.Ping(ctx) == nil

	status := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: dbConnected,
		OpenSessions:      h.tracker.OpenSessions(),
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	code := http.StatusOK
	if !dbConnected {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondSuccess(w, code, status, models.Metadata{})
}

// HealthLive handles GET /api/v1/health/live
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/v1/health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, models.Metadata{})
}

// HealthReady handles GET /api/v1/health/ready
// @Summary Readiness probe
// @Description Reports whether the service can accept traffic. The platform circuit breaker state is informational and never fails readiness.
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Success 503 {object} models.APIResponse
// @Router /api/v1/health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	data := map[string]interface{}{
		"database":          "ok",
		"websocket_clients": 0,
	}
	if h.wsHub != nil {
		data["websocket_clients"] = h.wsHub.GetClientCount()
	}
	if sr, ok := h.profiles.(interface{ State() string }); ok && sr != nil {
		data["platform_breaker"] = sr.State()
	}

	if err := h.db.Ping(ctx); err != nil {
		data["database"] = "unavailable"
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     data,
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error: &models.APIError{
				Code:    "NOT_READY",
				Message: "Database is not reachable",
			},
		})
		return
	}

	respondSuccess(w, http.StatusOK, data, models.Metadata{})
}
