// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"net/http"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/aggregate"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/platform"
)

// IngestEventRequest is the body for direct event ingestion. Used by
// clients that batch observations locally and flush them on unload.
type IngestEventRequest struct {
	Page            string `json:"page" validate:"required,max=512"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0,lte=86400"`
	ActivityType    string `json:"activity_type" validate:"omitempty,oneof=page_view heartbeat session_end"`
}

// summaryPayload is the summary response body. The profile is a
// best-effort enrichment from the platform API and is omitted when the
// lookup fails or the integration is disabled.
type summaryPayload struct {
	*models.ActivitySummary
	Profile *platform.UserProfile `json:"profile,omitempty"`
}

// Signals handles POST /api/v1/activity/signals
// @Summary Report a page lifecycle signal
// @Description Reports navigation and visibility transitions for the calling user's session
// @Tags activity
// @Accept json
// @Produce json
// @Param signal body models.SignalRequest true "Lifecycle signal"
// @Success 202 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/activity/signals [post]
func (h *Handler) Signals(w http.ResponseWriter, r *http.Request) {
	var req models.SignalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	userID := h.resolveUserID(r)

	switch req.Kind {
	case models.SignalPageChange:
		h.tracker.TrackPageChange(userID, req.Page)
	case models.SignalHidden:
		h.tracker.OnHidden(userID)
	case models.SignalVisible:
		h.tracker.OnVisible(userID)
	case models.SignalUnload:
		h.tracker.OnUnload(userID)
	}

	respondSuccess(w, http.StatusAccepted, map[string]string{"accepted": req.Kind}, models.Metadata{})
}

// IngestEvent handles POST /api/v1/activity/events
// @Summary Ingest a closed activity event
// @Description Accepts a client-measured activity observation. Observations shorter than the minimum duration are discarded.
// @Tags activity
// @Accept json
// @Produce json
// @Param event body IngestEventRequest true "Activity observation"
// @Success 202 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/activity/events [post]
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var req IngestEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	userID := h.resolveUserID(r)
	h.tracker.SubmitEvent(userID, req.Page, req.DurationSeconds, req.ActivityType)

	respondSuccess(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
		"recorded": req.DurationSeconds >= models.MinEventDurationSeconds,
	}, models.Metadata{})
}

// Summary handles GET /api/v1/activity/summary
// @Summary Get the activity summary for a user
// @Description Returns aggregated activity windows, histograms, and daily breakdown for the current calendar year
// @Tags activity
// @Produce json
// @Param user_id query string false "Target user (admin only)"
// @Success 200 {object} models.APIResponse{data=summaryPayload}
// @Failure 500 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/activity/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := h.resolveUserID(r)
	cacheKey := cacheKeySummary(userID)

	if cached, ok := h.summaries.Get(cacheKey); ok {
		if summary, ok := cached.(*models.ActivitySummary); ok {
			h.respondSummary(w, r, userID, summary, start, true, false)
			return
		}
	}

	// The summary window is the current calendar year, not a rolling
	// 365 days. Retention keeps older rows around for a while, so the
	// cutoff must exclude them explicitly.
	startOfYear := time.Date(start.Year(), 1, 1, 0, 0, 0, 0, start.Location())
	events, err := h.db.EventsForUserSince(r.Context(), userID, startOfYear)
	if err != nil {
		// Serve a stale summary if one is still within the stale window.
		if stale, _, ok := h.summaries.GetStale(cacheKey); ok {
			if summary, ok := stale.(*models.ActivitySummary); ok {
				logging.Warn().Err(err).Str("user_id", logging.SanitizeUserID(userID)).Msg("Serving stale activity summary, database unavailable")
				h.respondSummary(w, r, userID, summary, start, true, true)
				return
			}
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute activity summary", err)
		return
	}

	summary := aggregate.Summarize(events, start)
	h.summaries.Set(cacheKey, summary)
	h.respondSummary(w, r, userID, summary, start, false, false)
}

func (h *Handler) respondSummary(w http.ResponseWriter, r *http.Request, userID string, summary *models.ActivitySummary, start time.Time, cached, stale bool) {
	payload := summaryPayload{ActivitySummary: summary}
	if h.profiles != nil {
		profile, err := h.profiles.GetUserProfile(r.Context(), userID)
		if err != nil {
			logging.Debug().Err(err).Str("user_id", logging.SanitizeUserID(userID)).Msg("Profile lookup failed, summary served without profile")
		} else {
			payload.Profile = profile
		}
	}

	respondSuccess(w, http.StatusOK, payload, models.Metadata{
		Timestamp:   time.Now(),
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      cached,
		Stale:       stale,
	})
}

// Events handles GET /api/v1/activity/events
// @Summary List activity events
// @Description Returns the user's persisted activity events, newest first
// @Tags activity
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse{data=models.EventsResponse}
// @Failure 500 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/activity/events [get]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := h.resolveUserID(r)

	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	offset := getIntParam(r, "offset", 0)
	if limit < 1 || limit > h.config.API.MaxPageSize {
		limit = h.config.API.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	events, total, err := h.db.ListEvents(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list activity events", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.EventsResponse{
		Events: events,
		Total:  int(total),
	}, models.Metadata{
		Timestamp:   time.Now(),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// Sessions handles GET /api/v1/activity/sessions
// @Summary List open sessions
// @Description Returns a snapshot of all open in-memory sessions. Admin only.
// @Tags activity
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/activity/sessions [get]
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required", nil)
		return
	}

	sessions := h.tracker.Sessions()
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	}, models.Metadata{})
}

// Stats handles GET /api/v1/stats
// @Summary Get event statistics
// @Description Returns aggregate counters over the user's event log
// @Tags activity
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.EventStats}
// @Failure 500 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := h.resolveUserID(r)
	cacheKey := cacheKeyStats(userID)

	if cached, ok := h.stats.Get(cacheKey); ok {
		if stats, ok := cached.(*models.EventStats); ok {
			respondSuccess(w, http.StatusOK, stats, models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: time.Since(start).Milliseconds(),
				Cached:      true,
			})
			return
		}
	}

	stats, err := h.db.GetEventStats(r.Context(), userID)
	if err != nil {
		if stale, _, ok := h.stats.GetStale(cacheKey); ok {
			if cachedStats, ok := stale.(*models.EventStats); ok {
				respondSuccess(w, http.StatusOK, cachedStats, models.Metadata{
					Timestamp:   time.Now(),
					QueryTimeMS: time.Since(start).Milliseconds(),
					Cached:      true,
					Stale:       true,
				})
				return
			}
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute event statistics", err)
		return
	}

	h.stats.Set(cacheKey, stats)

	// Freshly computed stats also fan out to live dashboard clients.
	if h.wsHub != nil {
		lastEvent := ""
		if stats.LastEventAt != nil {
			lastEvent = stats.LastEventAt.Format(time.RFC3339)
		}
		h.wsHub.BroadcastStatsUpdate(stats.TotalEvents, lastEvent)
	}

	respondSuccess(w, http.StatusOK, stats, models.Metadata{
		Timestamp:   time.Now(),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

func cacheKeySummary(userID string) string {
	return "summary:" + userID
}

func cacheKeyStats(userID string) string {
	return "stats:" + userID
}
