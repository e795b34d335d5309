// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package models defines data structures for the Alsamos Pulse service.

This package contains all data models used throughout the application:
database rows, API request/response structures, and internal data
transfer objects. It is the single source of truth for data structure
definitions.

Key Components:

  - ActivityEvent: Core database model, one observation of time spent on a page
  - ActivitySummary: Derived multi-granularity aggregate, recomputed on demand
  - DailyActivity: One calendar day of activity with per-category breakdown
  - APIResponse: Standardized API response wrapper
  - SignalRequest: Client lifecycle signal (navigation, visibility, unload)

Thread Safety:

All models are:
  - Immutable after creation (pass-by-value or pointers)
  - Safe for concurrent read access
  - No internal mutexes needed (data structures only)

See Also:

  - internal/database: Database operations using these models
  - internal/aggregate: Summary computation over ActivityEvent windows
  - internal/api: API handlers returning these models
*/
package models
