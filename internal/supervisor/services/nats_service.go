// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build nats

package services

import (
	"context"
	"fmt"
	"time"
)

// IngestRunner matches the Watermill ingest pipeline lifecycle without
// importing the eventprocessor package.
type IngestRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// NATSIngestService wraps the NATS JetStream ingest pipeline as a
// supervised service, adapting its Start/Shutdown lifecycle to suture's
// Serve pattern.
type NATSIngestService struct {
	pipeline        IngestRunner
	shutdownTimeout time.Duration
	name            string
}

// NewNATSIngestService creates a NATS ingest service wrapper.
func NewNATSIngestService(pipeline IngestRunner, shutdownTimeout time.Duration) *NATSIngestService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSIngestService{
		pipeline:        pipeline,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-ingest",
	}
}

// Serve implements suture.Service. A failed Start propagates so the
// supervisor restarts the pipeline with backoff.
func (s *NATSIngestService) Serve(ctx context.Context) error {
	if err := s.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("nats ingest start failed: %w", err)
	}

	<-ctx.Done()

	// Shutdown needs a fresh context since the original is canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.pipeline.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *NATSIngestService) String() string {
	return s.name
}
