// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package database provides the DuckDB-backed event log store.

The store is append-only from the application's point of view: activity
events are inserted once, queried by user and time window for
aggregation, and pruned in bulk by the retention policy. Events are
never updated.

Key properties:

  - UUID primary keys with INSERT ... ON CONFLICT DO NOTHING make event
    inserts idempotent, so replays from the dead letter queue or the
    NATS pipeline cannot create duplicates.
  - All operations take a context.Context; a 30-second default timeout
    is applied when the caller provides none.
  - Close performs a CHECKPOINT to flush the WAL, avoiding replay
    issues on the next startup.
*/
package database
