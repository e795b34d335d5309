// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package supervisor provides process supervision for Alsamos Pulse using
suture v4.

The package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful
shutdown.

# Overview

Services are organized into three layers for failure isolation:

	Root ("alsamos-pulse")
	├── Storage ("storage-layer")
	│   ├── dead-letter-queue (BadgerDB value log GC)
	│   └── retention-pruner
	├── Tracking ("tracking-layer")
	│   ├── activity-tracker (dispatch loop)
	│   ├── heartbeat-emitter
	│   ├── websocket-hub
	│   └── nats-ingest (if NATS_ENABLED, build tag: nats)
	└── API ("api-layer")
	    └── http-server

This hierarchy ensures that:
  - A crashed tracker restarts without dropping HTTP connections
  - Retention pruning failures never affect live session tracking
  - Each layer has independent failure counting and backoff

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddStorageService(dlqStore)
	tree.AddTrackingService(tracker)
	tree.AddTrackingService(services.NewHeartbeatService(tracker, interval))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	return tree.Serve(ctx)

Services that already implement suture.Service (the tracker and the DLQ
store expose Serve and String directly) are added as-is; everything else
is wrapped by the services subpackage.
*/
package supervisor
