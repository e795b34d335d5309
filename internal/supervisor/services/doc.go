// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package services provides suture.Service wrappers for Alsamos Pulse
components.

The package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns (ListenAndServe, Run,
periodic tickers) into suture's context-aware Serve pattern.

Each wrapper implements:

	type Service interface {
	    Serve(ctx context.Context) error
	}

plus fmt.Stringer for service identification in supervisor logs.

# Available services

HTTPServerService wraps *http.Server, converting the blocking
ListenAndServe pattern to Serve with a configurable graceful shutdown
timeout.

WebSocketHubService delegates to the hub's RunWithContext, which
already follows the Serve pattern.

HeartbeatService runs the periodic heartbeat sweep that partitions
long-lived sessions into bounded activity events.

PrunerService runs the retention policy, deleting events older than
the configured maximum age on a fixed interval. Transient database
errors are retried in place rather than crashing the service.

NATSIngestService (build tag: nats) wraps the Watermill ingest
pipeline's Start/Shutdown lifecycle.

Components that already implement suture.Service, such as the session
tracker and the dead letter store, are added to the tree directly
without a wrapper.
*/
package services
