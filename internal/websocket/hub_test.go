// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates and starts a new hub for testing
func setupHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)
	return hub, cancel
}

// createTestClient creates a mock client for testing
func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, conn: nil, send: make(chan Message, 256)}
}

// registerClient registers a client and waits for registration to complete
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func testActivityEvent() *models.ActivityEvent {
	return &models.ActivityEvent{
		ID:              uuid.New(),
		UserID:          "user-1",
		Page:            "feed",
		DurationSeconds: 42,
		ActivityType:    models.ActivityPageView,
		Category:        "feed",
		CreatedAt:       time.Now(),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil || hub.broadcast == nil || hub.Register == nil || hub.Unregister == nil {
		t.Error("Hub channels or client map not initialized")
	}
	if len(hub.clients) != 0 {
		t.Error("clients map should be empty")
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	client := createTestClient(hub)
	registerClient(hub, client)

	if hub.GetClientCount() != 1 {
		t.Errorf("Expected 1 client after register, got %d", hub.GetClientCount())
	}

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients after unregister, got %d", hub.GetClientCount())
	}
}

func TestBroadcastActivityEvent(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	client := createTestClient(hub)
	registerClient(hub, client)

	event := testActivityEvent()
	hub.BroadcastActivityEvent(event)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeActivity {
			t.Errorf("Expected message type %s, got %s", MessageTypeActivity, msg.Type)
		}
		got, ok := msg.Data.(*models.ActivityEvent)
		if !ok {
			t.Fatalf("Expected *models.ActivityEvent payload, got %T", msg.Data)
		}
		if got.UserID != "user-1" {
			t.Errorf("Expected user-1, got %s", got.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for broadcast")
	}
}

func TestBroadcastSessionLifecycle(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	client := createTestClient(hub)
	registerClient(hub, client)

	hub.BroadcastSessionStart("user-1", "feed")
	hub.BroadcastSessionEnd("user-1", "feed")

	for _, wantType := range []string{MessageTypeSessionStart, MessageTypeSessionEnd} {
		select {
		case msg := <-client.send:
			if msg.Type != wantType {
				t.Errorf("Expected message type %s, got %s", wantType, msg.Type)
			}
			data, ok := msg.Data.(SessionData)
			if !ok {
				t.Fatalf("Expected SessionData payload, got %T", msg.Data)
			}
			if data.UserID != "user-1" || data.Page != "feed" {
				t.Errorf("Unexpected session data: %+v", data)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for %s", wantType)
		}
	}
}

func TestBroadcastStatsUpdate(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	client := createTestClient(hub)
	registerClient(hub, client)

	hub.BroadcastStatsUpdate(1234, "page_view")

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeStatsUpdate {
			t.Errorf("Expected stats_update, got %s", msg.Type)
		}
		data, ok := msg.Data.(StatsUpdateData)
		if !ok {
			t.Fatalf("Expected StatsUpdateData payload, got %T", msg.Data)
		}
		if data.TotalCount != 1234 {
			t.Errorf("Expected total 1234, got %d", data.TotalCount)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for stats update")
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	slow := createTestClient(hub)
	slow.send = make(chan Message) // no buffer, never read
	registerClient(hub, slow)

	healthy := createTestClient(hub)
	registerClient(hub, healthy)

	hub.BroadcastStatsUpdate(1, "")
	time.Sleep(50 * time.Millisecond)

	if hub.GetClientCount() != 1 {
		t.Errorf("Expected slow client to be dropped, count = %d", hub.GetClientCount())
	}

	select {
	case msg := <-healthy.send:
		if msg.Type != MessageTypeStatsUpdate {
			t.Errorf("Expected stats_update for healthy client, got %s", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Healthy client did not receive broadcast")
	}
}

func TestRunWithContextShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Hub did not stop after context cancellation")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected all clients closed on shutdown, got %d", hub.GetClientCount())
	}

	// Client channel is closed
	if _, ok := <-client.send; ok {
		t.Error("Expected client send channel to be closed")
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypePing})
	if err != nil {
		t.Fatalf("MarshalMessage failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected non-empty JSON")
	}
}
