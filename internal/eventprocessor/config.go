// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
)

// Stream and subject names. Collectors publish to SubjectEvents; the
// stream captures every activity.* subject so future collector types
// need no stream changes.
const (
	StreamName      = "ACTIVITY"
	SubjectWildcard = "activity.>"
	SubjectEvents   = "activity.events"
	SubjectPoison   = "activity.poison"
)

// PipelineConfig holds everything the ingest pipeline needs. Build one
// with FromNATSConfig rather than by hand so defaults are applied
// consistently.
type PipelineConfig struct {
	// URL is the NATS server to connect to. Ignored when
	// EmbeddedServer is set; the pipeline then connects to its own
	// in-process server.
	URL string

	// EmbeddedServer runs an in-process NATS server with JetStream,
	// for single-binary deployments without external infrastructure.
	EmbeddedServer bool
	StoreDir       string
	MaxMemory      int64
	MaxStore       int64

	// StreamMaxAge bounds how long events stay in the stream. The
	// stream is a transport buffer, not the system of record, so this
	// can be much shorter than the DuckDB retention window.
	StreamMaxAge time.Duration

	// SubscribersCount is the number of concurrent message processors.
	SubscribersCount int
	DurableName      string
	QueueGroup       string

	// Router retry and poison queue behavior.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	PoisonQueueEnabled   bool
	PoisonQueueTopic     string
	CloseTimeout         time.Duration
}

// DefaultPipelineConfig returns production defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		URL:                  "nats://127.0.0.1:4222",
		StoreDir:             "./data/jetstream",
		MaxMemory:            256 * 1024 * 1024,
		MaxStore:             1024 * 1024 * 1024,
		StreamMaxAge:         7 * 24 * time.Hour,
		SubscribersCount:     4,
		DurableName:          "pulse-ingest",
		QueueGroup:           "pulse",
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		PoisonQueueEnabled:   true,
		PoisonQueueTopic:     SubjectPoison,
		CloseTimeout:         30 * time.Second,
	}
}

// FromNATSConfig maps the service configuration onto a pipeline config,
// filling gaps with defaults.
func FromNATSConfig(cfg *config.NATSConfig) PipelineConfig {
	pc := DefaultPipelineConfig()
	if cfg == nil {
		return pc
	}
	if cfg.URL != "" {
		pc.URL = cfg.URL
	}
	pc.EmbeddedServer = cfg.EmbeddedServer
	if cfg.StoreDir != "" {
		pc.StoreDir = cfg.StoreDir
	}
	if cfg.MaxMemory > 0 {
		pc.MaxMemory = cfg.MaxMemory
	}
	if cfg.MaxStore > 0 {
		pc.MaxStore = cfg.MaxStore
	}
	if cfg.StreamRetentionDays > 0 {
		pc.StreamMaxAge = time.Duration(cfg.StreamRetentionDays) * 24 * time.Hour
	}
	if cfg.SubscribersCount > 0 {
		pc.SubscribersCount = cfg.SubscribersCount
	}
	if cfg.DurableName != "" {
		pc.DurableName = cfg.DurableName
	}
	if cfg.QueueGroup != "" {
		pc.QueueGroup = cfg.QueueGroup
	}
	if cfg.RouterRetryCount > 0 {
		pc.RetryMaxRetries = cfg.RouterRetryCount
	}
	if cfg.RouterRetryInitialInterval > 0 {
		pc.RetryInitialInterval = cfg.RouterRetryInitialInterval
	}
	pc.PoisonQueueEnabled = cfg.RouterPoisonQueueEnabled
	if cfg.RouterPoisonQueueTopic != "" {
		pc.PoisonQueueTopic = cfg.RouterPoisonQueueTopic
	}
	if cfg.RouterCloseTimeout > 0 {
		pc.CloseTimeout = cfg.RouterCloseTimeout
	}
	return pc
}

// Validate checks the pipeline config for contradictions.
func (c *PipelineConfig) Validate() error {
	if !c.EmbeddedServer && c.URL == "" {
		return fmt.Errorf("nats url required when embedded server is disabled")
	}
	if c.EmbeddedServer && c.StoreDir == "" {
		return fmt.Errorf("store dir required for embedded server")
	}
	if c.SubscribersCount <= 0 {
		return fmt.Errorf("subscribers count must be positive, got %d", c.SubscribersCount)
	}
	if c.PoisonQueueEnabled && c.PoisonQueueTopic == "" {
		return fmt.Errorf("poison queue topic required when poison queue is enabled")
	}
	return nil
}
