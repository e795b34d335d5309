// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"net/http"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	ws "github.com/SamandarAlimov/alsamos-social-sub004/internal/websocket"
)

// WebSocket handles GET /api/v1/ws
// @Summary Open a live activity stream
// @Description Upgrades the connection and streams session and event notifications as they happen
// @Tags websocket
// @Success 101 {string} string "Switching Protocols"
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/v1/ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "WEBSOCKET_UNAVAILABLE", "Live updates are not enabled", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()

	logging.Debug().Uint64("client_id", client.ID()).Int("clients", h.wsHub.GetClientCount()).Msg("WebSocket client connected")
}
