// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package services

import (
	"context"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
)

// HeartbeatSweeper matches the tracker's sweep method. Each sweep emits
// one heartbeat event per open session that crossed the interval and
// returns how many were emitted.
type HeartbeatSweeper interface {
	SweepHeartbeats(now time.Time) int
}

// HeartbeatService periodically sweeps open sessions so long page
// visits accrue to the correct clock hour instead of landing as one
// oversized event when the session finally closes.
type HeartbeatService struct {
	sweeper  HeartbeatSweeper
	interval time.Duration
	name     string
}

// NewHeartbeatService creates a heartbeat sweep service. The interval
// should match the tracker's configured heartbeat interval.
func NewHeartbeatService(sweeper HeartbeatSweeper, interval time.Duration) *HeartbeatService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HeartbeatService{
		sweeper:  sweeper,
		interval: interval,
		name:     "heartbeat-emitter",
	}
}

// Serve implements suture.Service, sweeping on every tick until the
// context is canceled.
func (s *HeartbeatService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if emitted := s.sweeper.SweepHeartbeats(now); emitted > 0 {
				logging.Debug().Int("emitted", emitted).Msg("Heartbeat sweep emitted events")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *HeartbeatService) String() string {
	return s.name
}
