// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package aggregate folds bounded windows of activity events into
multi-granularity summaries.

The fold is a pure function of (events, now): no I/O, no clock reads, no
mutation of its input. All reductions are order-independent sums and
arg-maxes, so shuffling the input produces an identical summary. Callers
fetch the event window from the database and pass it in, which keeps this
package trivially testable with synthetic events.

Period totals (today, week, month, year) are gated by calendar-boundary
comparisons against now, evaluated in now's location. Minutes accumulate
as floats and are rounded to integers only at output, so many small
events do not lose time to per-event truncation.

See Also:

  - internal/database: Event window queries feeding the fold
  - internal/api: Summary endpoint exposing the results
*/
package aggregate
