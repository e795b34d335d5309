// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/dlq"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// dlqListLimit caps how many dead letter entries a single request returns.
const dlqListLimit = 500

// requireDLQ writes a 503 and returns false when no dead letter store is
// configured.
func (h *Handler) requireDLQ(w http.ResponseWriter) bool {
	if h.dlqStore == nil {
		respondError(w, http.StatusServiceUnavailable, "DLQ_UNAVAILABLE", "Dead letter queue is not configured", ErrDLQNotConfigured)
		return false
	}
	return true
}

// DLQEntries handles GET /api/v1/dlq/entries
// @Summary List dead letter entries
// @Description Returns events that failed to persist, oldest first. Admin only.
// @Tags dlq
// @Produce json
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/dlq/entries [get]
func (h *Handler) DLQEntries(w http.ResponseWriter, r *http.Request) {
	if !h.requireDLQ(w) {
		return
	}

	limit := getIntParam(r, "limit", 100)
	if limit < 1 || limit > dlqListLimit {
		limit = 100
	}

	entries, err := h.dlqStore.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DLQ_ERROR", "Failed to list dead letter entries", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}, models.Metadata{})
}

// DLQStats handles GET /api/v1/dlq/stats
// @Summary Dead letter queue statistics
// @Tags dlq
// @Produce json
// @Success 200 {object} models.APIResponse{data=dlq.Stats}
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/dlq/stats [get]
func (h *Handler) DLQStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireDLQ(w) {
		return
	}

	stats, err := h.dlqStore.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DLQ_ERROR", "Failed to read dead letter statistics", err)
		return
	}

	respondSuccess(w, http.StatusOK, stats, models.Metadata{})
}

// DLQReplay handles POST /api/v1/dlq/entries/{id}/replay
// @Summary Replay a dead letter entry
// @Description Re-inserts the captured event into the event store and removes the entry on success. Admin only.
// @Tags dlq
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/dlq/entries/{id}/replay [post]
func (h *Handler) DLQReplay(w http.ResponseWriter, r *http.Request) {
	if !h.requireDLQ(w) {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Entry ID is required", nil)
		return
	}

	if err := h.dlqStore.Replay(r.Context(), id, h.db); err != nil {
		if errors.Is(err, dlq.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Dead letter entry not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DLQ_ERROR", "Failed to replay dead letter entry", err)
		return
	}

	logging.Info().Str("entry_id", sanitizeLogValue(id)).Msg("Dead letter entry replayed")
	respondSuccess(w, http.StatusOK, map[string]string{"replayed": id}, models.Metadata{Timestamp: time.Now()})
}

// DLQDelete handles DELETE /api/v1/dlq/entries/{id}
// @Summary Discard a dead letter entry
// @Tags dlq
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/dlq/entries/{id} [delete]
func (h *Handler) DLQDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireDLQ(w) {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Entry ID is required", nil)
		return
	}

	if err := h.dlqStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, dlq.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Dead letter entry not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DLQ_ERROR", "Failed to delete dead letter entry", err)
		return
	}

	logging.Info().Str("entry_id", sanitizeLogValue(id)).Msg("Dead letter entry discarded")
	respondSuccess(w, http.StatusOK, map[string]string{"deleted": id}, models.Metadata{Timestamp: time.Now()})
}
