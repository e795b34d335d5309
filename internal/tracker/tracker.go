// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/aggregate"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// DefaultHeartbeatInterval partitions long sessions into bounded events.
const DefaultHeartbeatInterval = 30 * time.Second

// DefaultQueueSize bounds the fire-and-forget dispatch queue.
const DefaultQueueSize = 1024

// ErrQueueFull reports an event dropped because the dispatch queue was at
// capacity.
var ErrQueueFull = errors.New("tracker: dispatch queue full")

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// EventSink receives emitted activity events. Implemented by the database
// layer; the tracker never inspects the result beyond logging failures.
type EventSink interface {
	InsertActivityEvent(ctx context.Context, event *models.ActivityEvent) error
}

// ErrorSink receives events whose insert failed. The tracker never retries
// a failed insert; the sink decides what, if anything, happens next.
// Implementations must not block.
type ErrorSink interface {
	CaptureFailedEvent(event *models.ActivityEvent, insertErr error)
}

// Broadcaster pushes session transitions and persisted events to live
// dashboard clients. Implemented by the websocket hub. Implementations
// must not block; the hub drops messages instead of stalling the tracker.
type Broadcaster interface {
	BroadcastActivityEvent(event *models.ActivityEvent)
	BroadcastSessionStart(userID, page string)
	BroadcastSessionEnd(userID, page string)
}

// session is one open run of (startedAt, page) for a user. markedAt is the
// start of the current accumulation segment: session start, or the last
// heartbeat, whichever is later. Close events bill from markedAt, not
// startedAt, so heartbeat-partitioned time is never double counted.
type session struct {
	page      string
	category  string
	startedAt time.Time
	markedAt  time.Time
}

// Config holds tracker configuration.
type Config struct {
	// HeartbeatInterval is the minimum open time before a sweep emits a
	// heartbeat event. Default: DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration

	// QueueSize is the dispatch queue capacity. Events arriving while the
	// queue is full are dropped and routed to the error sink.
	// Default: DefaultQueueSize.
	QueueSize int

	// Clock overrides the time source. Default: SystemClock().
	Clock Clock

	// Broadcaster receives live updates. Optional; nil disables pushes.
	Broadcaster Broadcaster
}

// Tracker owns the per-user session registry. All session state is mutated
// only under mu; the dispatch queue decouples event emission from the
// database so lifecycle operations never block on I/O.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
	lastPage map[string]string

	sink        EventSink
	errSink     ErrorSink
	broadcaster Broadcaster
	clock       Clock
	queue       chan *models.ActivityEvent
	logger      zerolog.Logger

	heartbeatInterval time.Duration
}

// New creates a Tracker that emits events to sink. errSink may be nil, in
// which case failed inserts are only logged.
func New(sink EventSink, errSink ErrorSink, cfg Config) *Tracker {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}

	return &Tracker{
		sessions:          make(map[string]*session),
		lastPage:          make(map[string]string),
		sink:              sink,
		errSink:           errSink,
		broadcaster:       cfg.Broadcaster,
		clock:             cfg.Clock,
		queue:             make(chan *models.ActivityEvent, cfg.QueueSize),
		logger:            logging.WithComponent("tracker"),
		heartbeatInterval: cfg.HeartbeatInterval,
	}
}

// String implements suture's service naming.
func (t *Tracker) String() string { return "activity-tracker" }

// Serve runs the dispatch loop, delivering queued events to the sink until
// ctx is canceled. Insert failures are logged and handed to the error
// sink; they are never retried.
func (t *Tracker) Serve(ctx context.Context) error {
	t.logger.Info().Msg("Tracker dispatch loop started")

	for {
		select {
		case <-ctx.Done():
			t.drain()
			return ctx.Err()
		case event := <-t.queue:
			t.deliver(ctx, event)
		}
	}
}

// drain makes a best-effort pass over events still queued at shutdown.
func (t *Tracker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case event := <-t.queue:
			t.deliver(ctx, event)
		default:
			return
		}
	}
}

func (t *Tracker) deliver(ctx context.Context, event *models.ActivityEvent) {
	if err := t.sink.InsertActivityEvent(ctx, event); err != nil {
		metrics.TrackerInsertFailures.Inc()
		t.logger.Error().
			Err(err).
			Str("user_id", logging.SanitizeUserID(event.UserID)).
			Str("page", event.Page).
			Str("activity_type", event.ActivityType).
			Msg("Event insert failed")
		if t.errSink != nil {
			t.errSink.CaptureFailedEvent(event, err)
		}
		return
	}
	// Only persisted events fan out to live clients.
	if t.broadcaster != nil {
		t.broadcaster.BroadcastActivityEvent(event)
	}
}

// StartSession opens a session for page. If a session is already open on
// the same page this is a no-op; if one is open on a different page it is
// closed first, attributing elapsed time to the old page.
func (t *Tracker) StartSession(userID, page string) {
	t.trackPage(userID, page, models.ActivityPageView)
}

// TrackPageChange reports navigation to newPage. Idempotent against
// duplicate navigation signals for the page already being tracked.
func (t *Tracker) TrackPageChange(userID, newPage string) {
	t.trackPage(userID, newPage, models.ActivityPageView)
}

func (t *Tracker) trackPage(userID, page, closeType string) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if sess, ok := t.sessions[userID]; ok {
		if sess.page == page {
			return
		}
		t.closeLocked(userID, sess, closeType, now)
	}
	t.openLocked(userID, page, now)
}

// SubmitEvent enqueues a client-flushed close event that never passed
// through the session registry (for example a beacon sent on tab close).
// The minimum duration rule applies exactly as for tracked sessions.
func (t *Tracker) SubmitEvent(userID, page string, durationSeconds int, activityType string) {
	if activityType == "" {
		activityType = models.ActivityPageView
	}
	now := t.clock.Now()
	sess := &session{
		page:     page,
		category: aggregate.CategoryForPage(page),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked(userID, sess, activityType, durationSeconds, now)
}

// EndSession closes the open session (if any), emitting a session_end
// event. The last known page is kept so a later visibility resume can
// reopen it.
func (t *Tracker) EndSession(userID string) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[userID]
	if !ok {
		return
	}
	t.closeLocked(userID, sess, models.ActivitySessionEnd, now)
	delete(t.sessions, userID)
	metrics.TrackerOpenSessions.Set(float64(len(t.sessions)))
	if t.broadcaster != nil {
		t.broadcaster.BroadcastSessionEnd(userID, sess.page)
	}
}

// OnHidden handles the document becoming hidden: the open session closes
// and its page is remembered for a visibility resume.
func (t *Tracker) OnHidden(userID string) {
	t.EndSession(userID)
}

// OnVisible handles the document becoming visible again: if no session is
// open and a page is known from before, a fresh session opens on it.
func (t *Tracker) OnVisible(userID string) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[userID]; ok {
		return
	}
	page, ok := t.lastPage[userID]
	if !ok || page == "" {
		return
	}
	t.openLocked(userID, page, now)
}

// OnUnload handles the page unloading: the session closes and the last
// known page is forgotten.
func (t *Tracker) OnUnload(userID string) {
	t.EndSession(userID)

	t.mu.Lock()
	delete(t.lastPage, userID)
	t.mu.Unlock()
}

// SweepHeartbeats emits a heartbeat event for every session that has been
// accumulating for at least the heartbeat interval, resetting each
// session's marker to now without closing it. Returns the number of
// heartbeats emitted.
func (t *Tracker) SweepHeartbeats(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	emitted := 0
	for userID, sess := range t.sessions {
		elapsed := now.Sub(sess.markedAt)
		if elapsed < t.heartbeatInterval {
			continue
		}
		t.emitLocked(userID, sess, models.ActivityHeartbeat, int(elapsed.Seconds()), now)
		sess.markedAt = now
		emitted++
	}

	if emitted > 0 {
		metrics.HeartbeatEventsEmitted.Add(float64(emitted))
	}
	return emitted
}

// OpenSessions returns the number of currently open sessions.
func (t *Tracker) OpenSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Sessions returns a snapshot of all open sessions with elapsed durations
// computed against the current clock.
func (t *Tracker) Sessions() []models.SessionInfo {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	infos := make([]models.SessionInfo, 0, len(t.sessions))
	for userID, sess := range t.sessions {
		infos = append(infos, models.SessionInfo{
			UserID:         userID,
			Page:           sess.page,
			Category:       sess.category,
			StartedAt:      sess.startedAt,
			MarkedAt:       sess.markedAt,
			ElapsedSeconds: int(now.Sub(sess.startedAt).Seconds()),
		})
	}
	return infos
}

// openLocked starts a session; mu must be held.
func (t *Tracker) openLocked(userID, page string, now time.Time) {
	t.sessions[userID] = &session{
		page:      page,
		category:  aggregate.CategoryForPage(page),
		startedAt: now,
		markedAt:  now,
	}
	t.lastPage[userID] = page
	metrics.TrackerOpenSessions.Set(float64(len(t.sessions)))
	if t.broadcaster != nil {
		t.broadcaster.BroadcastSessionStart(userID, page)
	}
}

// closeLocked emits the closing event for a session; mu must be held. The
// caller decides whether the session is deleted or replaced.
func (t *Tracker) closeLocked(userID string, sess *session, activityType string, now time.Time) {
	t.emitLocked(userID, sess, activityType, int(now.Sub(sess.markedAt).Seconds()), now)
}

// emitLocked builds an event and hands it to the dispatch queue; mu must
// be held. Durations under the minimum are dropped here, before the store
// is ever involved.
func (t *Tracker) emitLocked(userID string, sess *session, activityType string, durationSeconds int, now time.Time) {
	if durationSeconds < models.MinEventDurationSeconds {
		metrics.RecordDroppedEvent("min_duration")
		t.logger.Debug().
			Str("page", sess.page).
			Int("duration_seconds", durationSeconds).
			Msg("Dropping sub-minimum event")
		return
	}

	event := &models.ActivityEvent{
		ID:              uuid.New(),
		UserID:          userID,
		Page:            sess.page,
		DurationSeconds: durationSeconds,
		ActivityType:    activityType,
		Category:        sess.category,
		CreatedAt:       now,
	}

	select {
	case t.queue <- event:
		metrics.RecordEmittedEvent(activityType)
	default:
		metrics.RecordDroppedEvent("queue_full")
		t.logger.Warn().
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Dispatch queue full, dropping event")
		if t.errSink != nil {
			t.errSink.CaptureFailedEvent(event, ErrQueueFull)
		}
	}
}
