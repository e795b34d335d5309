// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package tracker maintains per-user page sessions and turns their
lifecycle into activity events.

A session is a run of (startedAt, page) held in process memory, never
persisted as its own entity. It ends when the page changes, the document
becomes hidden, or the page unloads; ending computes the elapsed duration
and emits one activity event. At most one session is open per user, so
emitted events never overlap in time for the same user.

Long sessions are partitioned by the heartbeat Emitter: every sweep, any
session open for a full interval emits a heartbeat event for the elapsed
time and resets its marker without closing. A session spanning N intervals
therefore yields N interval-sized events plus one remainder on close,
bounding data loss from ungraceful termination to one interval.

Event delivery is fire-and-forget: events are queued to a dispatcher
goroutine that calls the EventSink. Insert failures are logged and handed
to the ErrorSink (the dead letter queue), never retried.

Durations below models.MinEventDurationSeconds are dropped before they
reach the sink.
*/
package tracker
