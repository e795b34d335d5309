// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build !nats

package main

import (
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/database"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/supervisor"
	ws "github.com/SamandarAlimov/alsamos-social-sub004/internal/websocket"
)

// initIngest is a stub when the binary is built without the nats tag.
// Event ingest is skipped; HTTP ingest still works.
func initIngest(cfg *config.Config, _ *database.DB, _ *ws.Hub, _ *supervisor.Tree) error {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but binary built without -tags=nats, event ingest skipped")
	}
	return nil
}
