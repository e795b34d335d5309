// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build nats

package main

import (
	"fmt"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/database"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/eventprocessor"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/supervisor"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/supervisor/services"
	ws "github.com/SamandarAlimov/alsamos-social-sub004/internal/websocket"
)

// initIngest wires the JetStream ingest pipeline into the tracking
// layer when NATS is enabled. Consumed envelopes land in the same
// store and WebSocket hub as HTTP ingest.
func initIngest(cfg *config.Config, db *database.DB, hub *ws.Hub, tree *supervisor.Tree) error {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS event ingest disabled (NATS_ENABLED=false)")
		return nil
	}

	pipeline, err := eventprocessor.NewPipeline(eventprocessor.FromNATSConfig(&cfg.NATS), db, hub)
	if err != nil {
		return fmt.Errorf("create ingest pipeline: %w", err)
	}

	tree.AddTrackingService(services.NewNATSIngestService(pipeline, cfg.NATS.RouterCloseTimeout))
	logging.Info().
		Bool("embedded_server", cfg.NATS.EmbeddedServer).
		Str("url", cfg.NATS.URL).
		Msg("NATS event ingest added to supervisor tree")
	return nil
}
