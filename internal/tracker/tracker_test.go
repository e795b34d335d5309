// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSink records inserted events and can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	err    error
	done   chan struct{}
}

func (s *recordingSink) InsertActivityEvent(_ context.Context, event *models.ActivityEvent) error {
	s.mu.Lock()
	s.events = append(s.events, *event)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func (s *recordingSink) all() []models.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// recordingErrSink captures failed events.
type recordingErrSink struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	errs   []error
}

func (s *recordingErrSink) CaptureFailedEvent(event *models.ActivityEvent, insertErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	s.errs = append(s.errs, insertErr)
}

// recordingBroadcaster captures live updates pushed by the tracker.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	starts []string
	ends   []string
}

func (b *recordingBroadcaster) BroadcastActivityEvent(event *models.ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, *event)
}

func (b *recordingBroadcaster) BroadcastSessionStart(userID, page string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts = append(b.starts, userID+" "+page)
}

func (b *recordingBroadcaster) BroadcastSessionEnd(userID, page string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends = append(b.ends, userID+" "+page)
}

func (b *recordingBroadcaster) eventCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func newTestTracker(clock Clock) (*Tracker, *recordingSink) {
	sink := &recordingSink{}
	tr := New(sink, nil, Config{Clock: clock})
	return tr, sink
}

// drainQueue pulls all currently queued events without running Serve.
func drainQueue(tr *Tracker) []models.ActivityEvent {
	var events []models.ActivityEvent
	for {
		select {
		case ev := <-tr.queue:
			events = append(events, *ev)
		default:
			return events
		}
	}
}

func TestPageChangeClosesPreviousSession(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/home")
	clock.Advance(120 * time.Second)
	tr.TrackPageChange("u1", "/messages")

	events := drainQueue(tr)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Page != "/home" {
		t.Errorf("event page = %q, want /home (time attributed to old page)", ev.Page)
	}
	if ev.DurationSeconds != 120 {
		t.Errorf("duration = %d, want 120", ev.DurationSeconds)
	}
	if ev.ActivityType != models.ActivityPageView {
		t.Errorf("activity type = %q, want page_view", ev.ActivityType)
	}
	if ev.Category != "feed" {
		t.Errorf("category = %q, want feed", ev.Category)
	}
	if ev.UserID != "u1" {
		t.Errorf("user = %q, want u1", ev.UserID)
	}

	// The new session opens immediately on the new page.
	sessions := tr.Sessions()
	if len(sessions) != 1 || sessions[0].Page != "/messages" {
		t.Fatalf("expected one open session on /messages, got %+v", sessions)
	}
}

func TestTrackPageChangeIdempotentOnSamePage(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/home")
	started := tr.Sessions()[0].StartedAt

	clock.Advance(60 * time.Second)
	tr.TrackPageChange("u1", "/home")

	if events := drainQueue(tr); len(events) != 0 {
		t.Fatalf("expected no events for duplicate navigation, got %d", len(events))
	}
	if got := tr.Sessions()[0].StartedAt; !got.Equal(started) {
		t.Errorf("session start moved from %v to %v on duplicate signal", started, got)
	}
}

func TestEndSessionEmitsSessionEnd(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/videos/v1")
	clock.Advance(45 * time.Second)
	tr.EndSession("u1")

	events := drainQueue(tr)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ActivityType != models.ActivitySessionEnd {
		t.Errorf("activity type = %q, want session_end", events[0].ActivityType)
	}
	if events[0].DurationSeconds != 45 {
		t.Errorf("duration = %d, want 45", events[0].DurationSeconds)
	}
	if tr.OpenSessions() != 0 {
		t.Errorf("expected no open sessions, got %d", tr.OpenSessions())
	}

	// Ending again is a no-op.
	tr.EndSession("u1")
	if events := drainQueue(tr); len(events) != 0 {
		t.Errorf("expected no events from double end, got %d", len(events))
	}
}

func TestSubMinimumDurationsAreDropped(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/home")
	clock.Advance(3 * time.Second)
	tr.TrackPageChange("u1", "/messages")

	if events := drainQueue(tr); len(events) != 0 {
		t.Fatalf("expected sub-5s event to be dropped, got %d events", len(events))
	}
	// The transition itself still happens.
	if got := tr.Sessions()[0].Page; got != "/messages" {
		t.Errorf("session page = %q, want /messages", got)
	}
}

func TestHeartbeatPartitionsLongSession(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	// A 95-second session swept every 30 seconds yields three ~30s
	// heartbeats plus a 5s close.
	tr.StartSession("u1", "/watch/w1")
	for i := 0; i < 3; i++ {
		clock.Advance(30 * time.Second)
		if emitted := tr.SweepHeartbeats(clock.Now()); emitted != 1 {
			t.Fatalf("sweep %d emitted %d, want 1", i, emitted)
		}
	}
	clock.Advance(5 * time.Second)
	tr.EndSession("u1")

	events := drainQueue(tr)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	total := 0
	for i, ev := range events {
		total += ev.DurationSeconds
		if i < 3 {
			if ev.ActivityType != models.ActivityHeartbeat || ev.DurationSeconds != 30 {
				t.Errorf("event %d = %s/%ds, want heartbeat/30s", i, ev.ActivityType, ev.DurationSeconds)
			}
		}
	}
	last := events[3]
	if last.ActivityType != models.ActivitySessionEnd || last.DurationSeconds != 5 {
		t.Errorf("close event = %s/%ds, want session_end/5s", last.ActivityType, last.DurationSeconds)
	}
	if total != 95 {
		t.Errorf("total attributed = %ds, want 95 (no double counting)", total)
	}
}

func TestSweepSkipsYoungSessions(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/home")
	clock.Advance(29 * time.Second)

	if emitted := tr.SweepHeartbeats(clock.Now()); emitted != 0 {
		t.Errorf("expected no heartbeats before the interval elapses, got %d", emitted)
	}
}

func TestHiddenThenVisibleResumesLastPage(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/profile/u1")
	clock.Advance(60 * time.Second)
	tr.OnHidden("u1")

	if tr.OpenSessions() != 0 {
		t.Fatalf("expected session closed on hidden")
	}
	events := drainQueue(tr)
	if len(events) != 1 || events[0].ActivityType != models.ActivitySessionEnd {
		t.Fatalf("expected one session_end event, got %+v", events)
	}

	clock.Advance(10 * time.Minute)
	tr.OnVisible("u1")

	sessions := tr.Sessions()
	if len(sessions) != 1 || sessions[0].Page != "/profile/u1" {
		t.Fatalf("expected resumed session on /profile/u1, got %+v", sessions)
	}
	// Hidden time is not billed: the resumed session starts fresh.
	if sessions[0].ElapsedSeconds != 0 {
		t.Errorf("resumed elapsed = %d, want 0", sessions[0].ElapsedSeconds)
	}
}

func TestVisibleWithoutHistoryIsNoop(t *testing.T) {
	t.Parallel()

	tr, _ := newTestTracker(newFakeClock())
	tr.OnVisible("unknown-user")

	if tr.OpenSessions() != 0 {
		t.Errorf("expected no session for unknown user")
	}
}

func TestUnloadForgetsLastPage(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/home")
	clock.Advance(30 * time.Second)
	tr.OnUnload("u1")
	drainQueue(tr)

	tr.OnVisible("u1")
	if tr.OpenSessions() != 0 {
		t.Errorf("expected no resume after unload")
	}
}

func TestServeDeliversToSink(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	sink := &recordingSink{done: make(chan struct{}, 10)}
	tr := New(sink, nil, Config{Clock: clock})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Serve(ctx) }()

	tr.StartSession("u1", "/home")
	clock.Advance(20 * time.Second)
	tr.EndSession("u1")

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink delivery")
	}

	events := sink.all()
	if len(events) != 1 || events[0].DurationSeconds != 20 {
		t.Fatalf("unexpected delivered events: %+v", events)
	}
}

func TestInsertFailureRoutedToErrorSinkOnce(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	insertErr := errors.New("connection refused")
	sink := &recordingSink{err: insertErr, done: make(chan struct{}, 10)}
	errSink := &recordingErrSink{}
	tr := New(sink, errSink, Config{Clock: clock})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Serve(ctx) }()

	tr.StartSession("u1", "/home")
	clock.Advance(30 * time.Second)
	tr.EndSession("u1")

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink delivery")
	}

	// Give the error sink call a moment to complete after the insert.
	deadline := time.Now().Add(2 * time.Second)
	for {
		errSink.mu.Lock()
		n := len(errSink.events)
		errSink.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 captured event, got %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !errors.Is(errSink.errs[0], insertErr) {
		t.Errorf("captured error = %v, want %v", errSink.errs[0], insertErr)
	}
	// Fire-and-forget: the failed insert is never retried.
	if got := len(sink.all()); got != 1 {
		t.Errorf("sink called %d times, want exactly 1", got)
	}
}

func TestBroadcasterObservesSessionLifecycle(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	hub := &recordingBroadcaster{}
	sink := &recordingSink{done: make(chan struct{}, 10)}
	tr := New(sink, nil, Config{Clock: clock, Broadcaster: hub})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Serve(ctx) }()

	tr.StartSession("u1", "/home")
	clock.Advance(30 * time.Second)
	tr.EndSession("u1")

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink delivery")
	}

	hub.mu.Lock()
	starts, ends := hub.starts, hub.ends
	hub.mu.Unlock()
	if len(starts) != 1 || starts[0] != "u1 /home" {
		t.Errorf("session starts = %v, want [u1 /home]", starts)
	}
	if len(ends) != 1 || ends[0] != "u1 /home" {
		t.Errorf("session ends = %v, want [u1 /home]", ends)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.eventCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("broadcast events = %d, want 1", hub.eventCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.mu.Lock()
	ev := hub.events[0]
	hub.mu.Unlock()
	if ev.ActivityType != models.ActivitySessionEnd || ev.DurationSeconds != 30 {
		t.Errorf("broadcast event = %s/%ds, want session_end/30s", ev.ActivityType, ev.DurationSeconds)
	}
}

func TestBroadcasterSkipsFailedInserts(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	hub := &recordingBroadcaster{}
	sink := &recordingSink{err: errors.New("bad connection"), done: make(chan struct{}, 10)}
	tr := New(sink, nil, Config{Clock: clock, Broadcaster: hub})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Serve(ctx) }()

	tr.StartSession("u1", "/home")
	clock.Advance(30 * time.Second)
	tr.EndSession("u1")

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink delivery")
	}

	time.Sleep(50 * time.Millisecond)
	if got := hub.eventCount(); got != 0 {
		t.Errorf("broadcast events = %d, want 0 for failed insert", got)
	}
}

func TestQueueFullRoutesToErrorSink(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	errSink := &recordingErrSink{}
	tr := New(&recordingSink{}, errSink, Config{Clock: clock, QueueSize: 1})

	// First close fills the queue; second overflows it.
	tr.StartSession("u1", "/home")
	clock.Advance(10 * time.Second)
	tr.TrackPageChange("u1", "/messages")
	clock.Advance(10 * time.Second)
	tr.TrackPageChange("u1", "/videos/v")

	errSink.mu.Lock()
	defer errSink.mu.Unlock()
	if len(errSink.events) != 1 {
		t.Fatalf("expected 1 overflow capture, got %d", len(errSink.events))
	}
	if !errors.Is(errSink.errs[0], ErrQueueFull) {
		t.Errorf("captured error = %v, want ErrQueueFull", errSink.errs[0])
	}
}

func TestSessionsSnapshot(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.StartSession("u1", "/maps/nearby")
	clock.Advance(75 * time.Second)

	sessions := tr.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.UserID != "u1" || s.Page != "/maps/nearby" || s.Category != "maps" {
		t.Errorf("unexpected snapshot: %+v", s)
	}
	if s.ElapsedSeconds != 75 {
		t.Errorf("elapsed = %d, want 75", s.ElapsedSeconds)
	}
}

func TestSubmitEventBypassesRegistry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr, _ := newTestTracker(clock)

	tr.SubmitEvent("u1", "/videos/7", 42, "")

	events := drainQueue(tr)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ActivityType != models.ActivityPageView {
		t.Errorf("activity type = %q, want %q", ev.ActivityType, models.ActivityPageView)
	}
	if ev.Category != "videos" {
		t.Errorf("category = %q, want videos", ev.Category)
	}
	if ev.DurationSeconds != 42 {
		t.Errorf("duration = %d, want 42", ev.DurationSeconds)
	}
	if tr.OpenSessions() != 0 {
		t.Errorf("submit must not open a session, got %d open", tr.OpenSessions())
	}
}

func TestSubmitEventAppliesMinimumDuration(t *testing.T) {
	t.Parallel()

	tr, _ := newTestTracker(newFakeClock())

	tr.SubmitEvent("u1", "/home", 4, models.ActivitySessionEnd)

	if events := drainQueue(tr); len(events) != 0 {
		t.Fatalf("expected sub-minimum submit to be dropped, got %d events", len(events))
	}
}
