// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"net/http"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// Prune handles POST /api/v1/admin/prune
// @Summary Prune old activity events
// @Description Deletes events older than the configured retention window and reports the count. Admin only.
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/admin/prune [post]
func (h *Handler) Prune(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cutoff := time.Now().Add(-h.config.Retention.MaxAge)

	pruned, err := h.db.PruneEventsBefore(r.Context(), cutoff)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to prune activity events", err)
		return
	}

	// Pruning invalidates every cached aggregate.
	h.summaries.Clear()
	h.stats.Clear()

	logging.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("Manual retention prune completed")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"pruned_events": pruned,
		"cutoff":        cutoff,
	}, models.Metadata{
		Timestamp:   time.Now(),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}
