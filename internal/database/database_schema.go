// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with a 60-second timeout for schema
// operations, which can be slow on cold storage.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core tables if they don't exist
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// getTableCreationQueries returns the CREATE TABLE statements for the schema.
//
// activity_events is the append-only event log. One row per emitted
// event (page_view, heartbeat, session_end). duration_seconds is the
// whole-second time attributed to the page; rows shorter than the
// minimum emission threshold are never inserted.
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS activity_events (
			id UUID PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			page VARCHAR NOT NULL,
			duration_seconds INTEGER NOT NULL CHECK (duration_seconds >= 0),
			activity_type VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
	}
}

// createIndexes creates query indexes. Skipped when cfg.SkipIndexes is
// set (fast test setup).
func (db *DB) createIndexes() error {
	if db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		// Summary queries fetch a user's events over a time window
		`CREATE INDEX IF NOT EXISTS idx_activity_user_created ON activity_events (user_id, created_at);`,
		// Retention pruning scans by age alone
		`CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_events (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_events (activity_type);`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
