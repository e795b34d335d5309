// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package auth provides authentication for the HTTP API.
//
// Three auth modes are supported, selected by AUTH_MODE:
//
//   - "jwt": stateless HMAC-SHA256 tokens issued by the login endpoint
//     and validated on every request (Authorization: Bearer or cookie).
//   - "basic": HTTP Basic Authentication against the configured admin
//     credentials, verified with bcrypt.
//   - "none": no authentication. Rejected in production by config
//     validation.
//
// The package also carries per-IP rate limiting (golang.org/x/time/rate),
// CORS and security headers, and a login lockout manager that throttles
// brute-force attempts with exponential backoff.
package auth
