// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package dlq implements the dead letter queue for failed event inserts.

When the tracker cannot deliver an event to the event log store, either
because the insert failed or because the dispatch queue overflowed, the
event is captured here exactly once and never retried automatically.
Entries are durable (BadgerDB with fsync) and carry the failure reason
and capture time. Operators inspect, replay, or delete entries through
the admin API; replay goes through the store's idempotent insert, so
replaying an entry that did land is harmless.
*/
package dlq
