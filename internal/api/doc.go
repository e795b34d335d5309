// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package api provides the HTTP surface of Alsamos Pulse using the Chi
// router.
//
// The package is organized by concern:
//   - handlers.go: Handler struct, constructor, WebSocket upgrader
//   - handlers_activity.go: signal ingest, events, summary, sessions, stats
//   - handlers_health.go: health and readiness endpoints
//   - handlers_dlq.go: dead letter queue inspection and replay (admin)
//   - handlers_admin.go: retention pruning (admin)
//   - handlers_websocket.go: upgrade to the live activity stream
//   - handlers_helpers.go: shared response and parsing helpers
//   - chi_middleware.go: Chi middleware factories (CORS, rate limit tiers)
//   - chi_router.go: route registration and middleware ordering
//
// All responses use the models.APIResponse envelope. Write-path endpoints
// respond 202 Accepted and never surface storage failures to the client;
// failed inserts are captured in the dead letter queue instead.
package api
