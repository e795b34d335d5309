// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package websocket pushes live activity updates to connected clients.
// The hub fans out activity events, session transitions, and stats
// refreshes; clients that cannot keep up are disconnected rather than
// allowed to block the broadcast path.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// Message types for WebSocket communication
const (
	MessageTypeActivity     = "activity"
	MessageTypeSessionStart = "session_start"
	MessageTypeSessionEnd   = "session_end"
	MessageTypeStatsUpdate  = "stats_update"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful
// shutdown. Designed for supervised operation: when the context is
// canceled all connected clients are closed and the context error is
// returned so the supervisor can account for the stop.
//
// Selection is priority based. Client lifecycle events are drained
// before broadcasts so client state is consistent when a message fans
// out; shutdown always wins.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Lifecycle events first (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// broadcastToClients sends a message to all connected clients in a
// deterministic order. Clients whose send buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// closeAllClients closes all connected clients in ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastActivityEvent sends a recorded activity event to all clients.
func (h *Hub) BroadcastActivityEvent(event *models.ActivityEvent) {
	h.send(Message{Type: MessageTypeActivity, Data: event})
}

// SessionData represents data sent with session lifecycle messages.
type SessionData struct {
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id"`
	Page      string `json:"page"`
}

// BroadcastSessionStart notifies clients that a user session opened.
func (h *Hub) BroadcastSessionStart(userID, page string) {
	h.send(Message{
		Type: MessageTypeSessionStart,
		Data: SessionData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			UserID:    userID,
			Page:      page,
		},
	})
}

// BroadcastSessionEnd notifies clients that a user session closed.
func (h *Hub) BroadcastSessionEnd(userID, page string) {
	h.send(Message{
		Type: MessageTypeSessionEnd,
		Data: SessionData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			UserID:    userID,
			Page:      page,
		},
	})
}

// StatsUpdateData represents data sent with stats_update messages.
type StatsUpdateData struct {
	Timestamp  string `json:"timestamp"`
	TotalCount int64  `json:"total_count"`
	LastEvent  string `json:"last_event,omitempty"`
}

// BroadcastStatsUpdate notifies clients that aggregate stats changed.
func (h *Hub) BroadcastStatsUpdate(totalCount int64, lastEvent string) {
	h.send(Message{
		Type: MessageTypeStatsUpdate,
		Data: StatsUpdateData{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			TotalCount: totalCount,
			LastEvent:  lastEvent,
		},
	})
}

func (h *Hub) send(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
