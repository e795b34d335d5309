// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package services

import (
	"context"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/database"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
)

// prunerMaxRetries bounds in-place retries of a failed prune before the
// service gives up until the next interval.
const prunerMaxRetries = 3

// EventPruner matches the event store's retention deletion method.
type EventPruner interface {
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PrunerService enforces the retention policy, deleting events older
// than maxAge on a fixed interval. The aggregation windows need a full
// calendar year of history, so maxAge must stay above 366 days; config
// validation enforces that before the service is constructed.
type PrunerService struct {
	store    EventPruner
	maxAge   time.Duration
	interval time.Duration
	name     string
}

// NewPrunerService creates a retention pruner service.
func NewPrunerService(store EventPruner, maxAge, interval time.Duration) *PrunerService {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &PrunerService{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		name:     "retention-pruner",
	}
}

// Serve implements suture.Service. One prune runs immediately on start
// so a service that restarts after a long outage catches up without
// waiting a full interval.
func (s *PrunerService) Serve(ctx context.Context) error {
	if err := s.prune(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.prune(ctx); err != nil {
				return err
			}
		}
	}
}

// prune runs one retention pass. Transient failures (lost connections,
// transaction conflicts) are retried with a short backoff; anything
// else propagates so the supervisor restarts the service.
func (s *PrunerService) prune(ctx context.Context) error {
	cutoff := time.Now().Add(-s.maxAge)

	var lastErr error
	for attempt := 0; attempt <= prunerMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		pruned, err := s.store.PruneEventsBefore(ctx, cutoff)
		if err == nil {
			if pruned > 0 {
				logging.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("Retention prune completed")
			}
			return nil
		}

		lastErr = err
		if !database.IsTransientError(err) {
			return err
		}
		logging.Warn().Err(err).Int("attempt", attempt+1).Msg("Retention prune hit transient error, retrying")
	}

	return lastErr
}

// String implements fmt.Stringer for supervisor logging.
func (s *PrunerService) String() string {
	return s.name
}
