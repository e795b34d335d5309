// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package main provides the Alsamos Pulse HTTP server.
//
// Alsamos Pulse aggregates page activity and session lifecycle signals
// from the Alsamos social frontend into per-user time summaries.
//
// @title Alsamos Pulse API
// @version 1.0
// @description Activity and session aggregation service for the Alsamos social platform.
// @description
// @description ## Features
// @description
// @description - **Session Tracking**: Page change, visibility, and unload signals open and close sessions server-side
// @description - **Heartbeat Partitioning**: Long sessions accrue to the correct clock hour via periodic heartbeats
// @description - **Multi-Granularity Summaries**: Today, week, month, and year totals with hourly and weekday distributions
// @description - **Live Dashboard**: WebSocket stream of activity events and session lifecycle
// @description - **Dead Letter Queue**: Failed event inserts are captured and replayable
// @description
// @description ## Authentication
// @description
// @description Most endpoints require JWT authentication. Use `/api/v1/auth/login` to
// @description obtain a token, then send it as a Bearer token or rely on the HTTP-only cookie.
// @description
// @description ## Rate Limiting
// @description
// @description Write endpoints are limited per client IP. Exceeding the limit returns 429.
//
// @contact.name Alsamos Platform Team
// @contact.url https://github.com/SamandarAlimov/alsamos-social-sub004
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token with Bearer prefix
package main
