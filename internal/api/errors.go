// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import "errors"

// ErrDLQNotConfigured indicates the dead letter queue store is not wired.
var ErrDLQNotConfigured = errors.New("dead letter queue is not configured")
