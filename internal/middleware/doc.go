// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package middleware provides HTTP middleware shared across API routes:
// request ID propagation, Prometheus instrumentation, and gzip
// compression. Authentication middleware lives in internal/auth and
// authorization middleware in internal/authz.
package middleware
