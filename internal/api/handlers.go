// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/auth"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/cache"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/database"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/dlq"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/platform"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/tracker"
	ws "github.com/SamandarAlimov/alsamos-social-sub004/internal/websocket"
)

// Version is the service version reported by the health endpoint. It is
// overridden at build time via ldflags.
var Version = "dev"

// Handler holds dependencies for API handlers
type Handler struct {
	db        *database.DB
	tracker   *tracker.Tracker
	dlqStore  *dlq.Store
	profiles  platform.ProfileResolver
	config    *config.Config
	wsHub     *ws.Hub
	summaries *cache.Cache
	stats     *cache.Cache
	startTime time.Time
	upgrader  *websocket.Upgrader
}

// NewHandler creates a new API handler. The dlqStore and profiles
// dependencies may be nil; the corresponding endpoints report the feature
// as unavailable.
func NewHandler(db *database.DB, tr *tracker.Tracker, dlqStore *dlq.Store, profiles platform.ProfileResolver, cfg *config.Config, wsHub *ws.Hub) *Handler {
	h := &Handler{
		db:       db,
		tracker:  tr,
		dlqStore: dlqStore,
		profiles: profiles,
		config:   cfg,
		wsHub:    wsHub,
		summaries: cache.New(cache.Options{
			Name:            "summary",
			TTL:             cfg.Cache.SummaryTTL,
			StaleMaxAge:     cfg.Cache.StaleMaxAge,
			CleanupInterval: cfg.Cache.CleanupInterval,
		}),
		stats: cache.New(cache.Options{
			Name:            "stats",
			TTL:             cfg.Cache.StatsTTL,
			StaleMaxAge:     cfg.Cache.StaleMaxAge,
			CleanupInterval: cfg.Cache.CleanupInterval,
		}),
		startTime: time.Now(),
	}
	h.upgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.checkWebSocketOrigin(r)
		},
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// Close releases handler-owned resources such as cache cleanup goroutines.
func (h *Handler) Close() {
	h.summaries.Stop()
	h.stats.Stop()
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Browsers always send Origin on WebSocket upgrades, so an
// empty Origin is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("Rejected WebSocket upgrade from disallowed origin")
	return false
}

// resolveUserID determines which user's activity a request addresses.
// Regular users always operate on their own data. Administrators, and
// deployments running with authentication disabled, may address another
// user through the user_id query parameter.
func (h *Handler) resolveUserID(r *http.Request) string {
	claims := auth.ClaimsFromContext(r.Context())
	override := r.URL.Query().Get("user_id")

	if claims == nil {
		// Auth is disabled; fall back to the override or anonymous.
		if override != "" {
			return override
		}
		return "anonymous"
	}
	if override != "" && claims.Role == models.RoleAdmin {
		return override
	}
	return claims.Username
}

// isAdmin reports whether the request carries admin privileges. When
// authentication is disabled every request is treated as administrative.
func (h *Handler) isAdmin(r *http.Request) bool {
	if h.config.Security.AuthMode == "none" {
		return true
	}
	claims := auth.ClaimsFromContext(r.Context())
	return claims != nil && claims.Role == models.RoleAdmin
}
