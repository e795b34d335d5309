// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build nats

package eventprocessor

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

//nolint:gochecknoinits // quiet logger for the whole test binary
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// memoryStore collects inserted events for assertions.
type memoryStore struct {
	mu     sync.Mutex
	events []*models.ActivityEvent
	failN  int
}

func (m *memoryStore) InsertActivityEvent(_ context.Context, event *models.ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failN > 0 {
		m.failN--
		return context.DeadlineExceeded
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*models.ActivityEvent
}

func (b *recordingBroadcaster) BroadcastActivityEvent(event *models.ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func testPipelineConfig(t *testing.T) PipelineConfig {
	t.Helper()
	cfg := DefaultPipelineConfig()
	cfg.EmbeddedServer = true
	cfg.StoreDir = t.TempDir()
	cfg.SubscribersCount = 1
	cfg.RetryMaxRetries = 2
	cfg.RetryInitialInterval = 10 * time.Millisecond
	cfg.CloseTimeout = 5 * time.Second
	return cfg
}

func startTestPipeline(t *testing.T, store EventStore, broadcaster Broadcaster) *Pipeline {
	t.Helper()
	pipeline, err := NewPipeline(testPipelineConfig(t), store, broadcaster)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := pipeline.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		pipeline.Shutdown(shutdownCtx)
	})
	return pipeline
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func TestPipelineConsumesPublishedEnvelope(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server in short mode")
	}

	store := &memoryStore{}
	broadcaster := &recordingBroadcaster{}
	pipeline := startTestPipeline(t, store, broadcaster)

	if !pipeline.IsRunning() {
		t.Fatal("pipeline not running after Start")
	}

	env := validEnvelope()
	if err := pipeline.Publisher().PublishEnvelope(env); err != nil {
		t.Fatalf("PublishEnvelope: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool { return store.count() == 1 }, "event never reached the store")
	waitFor(t, 10*time.Second, func() bool { return broadcaster.count() == 1 }, "event never broadcast")

	store.mu.Lock()
	got := store.events[0]
	store.mu.Unlock()
	if got.UserID != env.UserID || got.Page != env.Page {
		t.Errorf("stored event = %+v, want envelope fields %+v", got, env)
	}
	if got.Category == "" {
		t.Error("stored event missing derived category")
	}
}

func TestPipelineRetriesTransientStoreFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server in short mode")
	}

	store := &memoryStore{failN: 1}
	pipeline := startTestPipeline(t, store, nil)

	if err := pipeline.Publisher().PublishEnvelope(validEnvelope()); err != nil {
		t.Fatalf("PublishEnvelope: %v", err)
	}

	// First insert fails, the router retries, second succeeds.
	waitFor(t, 10*time.Second, func() bool { return store.count() == 1 }, "event not stored after retry")
}

func TestPipelineDropsSubMinimumDuration(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server in short mode")
	}

	store := &memoryStore{}
	pipeline := startTestPipeline(t, store, nil)

	short := validEnvelope()
	short.DurationSeconds = 3
	if err := pipeline.Publisher().PublishEnvelope(short); err != nil {
		t.Fatalf("PublishEnvelope: %v", err)
	}
	// A marker event published after the short one. Once it lands, the
	// short one has already been handled.
	marker := validEnvelope()
	if err := pipeline.Publisher().PublishEnvelope(marker); err != nil {
		t.Fatalf("PublishEnvelope: %v", err)
	}

	waitFor(t, 10*time.Second, func() bool { return store.count() == 1 }, "marker event never reached the store")

	store.mu.Lock()
	got := store.events[0]
	store.mu.Unlock()
	if got.ID.String() != marker.EventID {
		t.Errorf("stored event %s, want marker %s; sub-minimum envelope must not be stored", got.ID, marker.EventID)
	}
	if store.count() != 1 {
		t.Errorf("store received %d events, want 1", store.count())
	}
}

func TestPipelineRejectsInvalidEnvelopeAtPublish(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server in short mode")
	}

	pipeline := startTestPipeline(t, &memoryStore{}, nil)

	env := validEnvelope()
	env.UserID = ""
	if err := pipeline.Publisher().PublishEnvelope(env); err == nil {
		t.Error("PublishEnvelope accepted an invalid envelope")
	}
}

func TestPipelineShutdownStops(t *testing.T) {
	if testing.Short() {
		t.Skip("embedded NATS server in short mode")
	}

	pipeline := startTestPipeline(t, &memoryStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pipeline.Shutdown(ctx)
	if pipeline.IsRunning() {
		t.Error("pipeline still running after Shutdown")
	}
}
