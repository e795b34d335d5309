// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
)

// Emitter is the heartbeat sweep service. On a fixed period it asks the
// tracker to partition every long-running session into a bounded event,
// keeping the worst-case data loss from an ungraceful shutdown at one
// interval.
//
// Emitter implements suture.Service via Serve and String.
type Emitter struct {
	tracker  *Tracker
	interval time.Duration
	clock    Clock
	logger   zerolog.Logger
}

// NewEmitter creates a heartbeat emitter sweeping tracker every interval.
// A non-positive interval falls back to DefaultHeartbeatInterval.
func NewEmitter(t *Tracker, interval time.Duration) *Emitter {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Emitter{
		tracker:  t,
		interval: interval,
		clock:    t.clock,
		logger:   logging.WithComponent("heartbeat"),
	}
}

// String implements suture's service naming.
func (e *Emitter) String() string { return "heartbeat-emitter" }

// Serve ticks at the configured interval and sweeps the tracker on every
// tick until ctx is canceled.
func (e *Emitter) Serve(ctx context.Context) error {
	e.logger.Info().
		Dur("interval", e.interval).
		Msg("Heartbeat emitter started")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Heartbeat emitter stopping")
			return ctx.Err()
		case <-ticker.C:
			metrics.HeartbeatSweeps.Inc()
			if emitted := e.tracker.SweepHeartbeats(e.clock.Now()); emitted > 0 {
				e.logger.Debug().
					Int("emitted", emitted).
					Msg("Heartbeat sweep emitted events")
			}
		}
	}
}
