// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package eventprocessor provides an optional NATS JetStream ingest
// pipeline built on Watermill. Edge collectors that cannot reach the
// HTTP API directly (mobile shells, batch exporters) publish activity
// envelopes to JetStream; the pipeline consumes them and writes to the
// same DuckDB event log the HTTP handlers use, so aggregation sees one
// unified stream regardless of transport.
//
//	┌──────────────┐   ┌──────────────┐
//	│ Mobile shell │   │ Batch export │
//	└──────┬───────┘   └──────┬───────┘
//	       └─────────┬────────┘
//	                 ▼
//	       ┌──────────────────┐
//	       │  NATS JetStream  │  subject: activity.events
//	       └────────┬─────────┘
//	                ▼
//	       ┌──────────────────┐
//	       │     Pipeline     │  validate, insert, broadcast
//	       └────────┬─────────┘
//	         ┌──────┴──────┐
//	         ▼             ▼
//	      DuckDB     WebSocket hub
//
// The pipeline is compiled in only with -tags=nats. Without the tag a
// stub NewPipeline returns an error and the rest of the service runs
// unchanged; HTTP ingest never depends on this package.
//
// Messages that fail after the retry budget are routed to a poison
// queue subject so a bad envelope cannot wedge the consumer.
package eventprocessor
