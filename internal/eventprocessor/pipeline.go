// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	natsgo "github.com/nats-io/nats.go"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// EventStore is where consumed envelopes land. *database.DB satisfies
// it.
type EventStore interface {
	InsertActivityEvent(ctx context.Context, event *models.ActivityEvent) error
}

// Broadcaster pushes consumed events to live dashboard clients. May be
// nil when the WebSocket hub is not running.
type Broadcaster interface {
	BroadcastActivityEvent(event *models.ActivityEvent)
}

// Pipeline consumes activity envelopes from JetStream and writes them
// to the event store. It owns the embedded server (when configured),
// the publisher, the subscriber, and the Watermill router.
type Pipeline struct {
	config      PipelineConfig
	store       EventStore
	broadcaster Broadcaster

	mu        sync.Mutex
	running   bool
	embedded  *EmbeddedServer
	publisher *Publisher
	router    *message.Router
}

// NewPipeline creates an ingest pipeline. Nothing connects until Start.
func NewPipeline(cfg PipelineConfig, store EventStore, broadcaster Broadcaster) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline requires an event store")
	}
	return &Pipeline{
		config:      cfg,
		store:       store,
		broadcaster: broadcaster,
	}, nil
}

// Start brings the pipeline up: embedded server when configured, stream
// provisioning, publisher, subscriber, and the consuming router. It
// returns once the router is running.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	logger := newWatermillLogger()

	url := p.config.URL
	if p.config.EmbeddedServer {
		srv, err := StartEmbeddedServer(p.config)
		if err != nil {
			return fmt.Errorf("start embedded server: %w", err)
		}
		p.embedded = srv
		url = srv.ClientURL()
	}

	if err := p.provisionStream(ctx, url); err != nil {
		p.teardownLocked(ctx)
		return err
	}

	pub, err := NewPublisher(url, logger)
	if err != nil {
		p.teardownLocked(ctx)
		return fmt.Errorf("create publisher: %w", err)
	}
	p.publisher = pub

	sub, err := newSubscriber(p.config, url, logger)
	if err != nil {
		p.teardownLocked(ctx)
		return fmt.Errorf("create subscriber: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: p.config.CloseTimeout}, logger)
	if err != nil {
		p.teardownLocked(ctx)
		return fmt.Errorf("create router: %w", err)
	}
	p.router = router

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      p.config.RetryMaxRetries,
		InitialInterval: p.config.RetryInitialInterval,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)
	if p.config.PoisonQueueEnabled {
		poison, err := middleware.PoisonQueue(pub.publisher, p.config.PoisonQueueTopic)
		if err != nil {
			p.teardownLocked(ctx)
			return fmt.Errorf("create poison queue middleware: %w", err)
		}
		router.AddMiddleware(poison)
	}

	router.AddConsumerHandler("activity-ingest", SubjectEvents, sub, p.handleMessage)

	go func() {
		if err := router.Run(context.Background()); err != nil {
			logger.Error("Ingest router stopped", err, nil)
		}
	}()

	select {
	case <-router.Running():
	case <-ctx.Done():
		p.teardownLocked(ctx)
		return ctx.Err()
	}

	p.running = true
	return nil
}

// provisionStream makes a short-lived connection to create or update
// the activity stream before publishers and subscribers bind to it.
func (p *Pipeline) provisionStream(ctx context.Context, url string) error {
	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(3),
		natsgo.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect for stream provisioning: %w", err)
	}
	defer nc.Close()

	if err := ensureStream(ctx, nc, p.config); err != nil {
		return fmt.Errorf("ensure stream: %w", err)
	}
	return nil
}

// handleMessage processes one envelope. Invalid envelopes are dropped
// to the poison queue immediately; retrying cannot fix them. Envelopes
// below the minimum emission duration are acked and discarded. Store
// failures return an error so the router retries with backoff.
func (p *Pipeline) handleMessage(msg *message.Message) error {
	env, err := UnmarshalEnvelope(msg.Payload)
	if err != nil {
		metrics.RecordDroppedEvent("invalid_envelope")
		if p.config.PoisonQueueEnabled && p.publisher != nil {
			poisoned := message.NewMessage(msg.UUID, msg.Payload)
			poisoned.Metadata.Set("drop_reason", err.Error())
			if pubErr := p.publisher.Publish(p.config.PoisonQueueTopic, poisoned); pubErr != nil {
				return fmt.Errorf("poison invalid envelope: %w", pubErr)
			}
		}
		return nil
	}

	// Well formed but under the emission floor; the same rule the
	// tracker applies before its queue. Dropped, not poisoned.
	if env.DurationSeconds < models.MinEventDurationSeconds {
		metrics.RecordDroppedEvent("min_duration")
		return nil
	}

	event := env.ToActivityEvent()
	if err := p.store.InsertActivityEvent(msg.Context(), event); err != nil {
		return fmt.Errorf("insert ingested event: %w", err)
	}
	if p.broadcaster != nil {
		p.broadcaster.BroadcastActivityEvent(event)
	}
	metrics.RecordEmittedEvent(event.ActivityType)
	return nil
}

// Publisher returns the pipeline's publisher for in-process collectors.
// Nil until Start succeeds.
func (p *Pipeline) Publisher() *Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publisher
}

// Shutdown stops the router, publisher, and embedded server. Waits for
// in-flight handlers up to the router close timeout or ctx, whichever
// ends first.
func (p *Pipeline) Shutdown(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked(ctx)
	p.running = false
}

func (p *Pipeline) teardownLocked(ctx context.Context) {
	if p.router != nil {
		if err := p.router.Close(); err != nil {
			newWatermillLogger().Error("Router close failed", err, nil)
		}
		p.router = nil
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			newWatermillLogger().Error("Publisher close failed", err, nil)
		}
		p.publisher = nil
	}
	if p.embedded != nil {
		if err := p.embedded.Shutdown(ctx); err != nil {
			newWatermillLogger().Error("Embedded server shutdown failed", err, nil)
		}
		p.embedded = nil
	}
}

// IsRunning reports whether Start has completed and Shutdown has not.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
