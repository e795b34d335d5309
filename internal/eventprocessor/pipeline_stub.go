// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build !nats

package eventprocessor

import (
	"context"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// EventStore is where consumed envelopes land. *database.DB satisfies
// it.
type EventStore interface {
	InsertActivityEvent(ctx context.Context, event *models.ActivityEvent) error
}

// Broadcaster pushes consumed events to live dashboard clients.
type Broadcaster interface {
	BroadcastActivityEvent(event *models.ActivityEvent)
}

// Pipeline is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable the ingest pipeline.
type Pipeline struct{}

// NewPipeline returns ErrNotBuilt without the nats build tag.
func NewPipeline(_ PipelineConfig, _ EventStore, _ Broadcaster) (*Pipeline, error) {
	return nil, ErrNotBuilt
}

// Start returns ErrNotBuilt without the nats build tag.
func (p *Pipeline) Start(_ context.Context) error {
	return ErrNotBuilt
}

// Shutdown is a no-op without the nats build tag.
func (p *Pipeline) Shutdown(_ context.Context) {}

// IsRunning always reports false without the nats build tag.
func (p *Pipeline) IsRunning() bool {
	return false
}
