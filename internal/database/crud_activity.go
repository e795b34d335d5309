// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// InsertActivityEvent inserts a single activity event into the event log.
//
// The insert is idempotent: the UUID primary key with ON CONFLICT DO
// NOTHING silently ignores duplicate events, so replays from the dead
// letter queue or the NATS pipeline are safe. Missing IDs and
// timestamps are filled in before insert. Negative durations are
// rejected here as well as by the schema's CHECK constraint, which
// databases created before the constraint existed do not carry.
func (db *DB) InsertActivityEvent(ctx context.Context, event *models.ActivityEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if event.DurationSeconds < 0 {
		return fmt.Errorf("negative duration %d for event %s", event.DurationSeconds, event.ID)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	const query = `INSERT INTO activity_events (
		id, user_id, page, duration_seconds, activity_type, category, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	start := time.Now()
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("insert", "activity_events", time.Since(start), err)
		return err
	}

	_, err = stmt.ExecContext(ctx,
		event.ID, event.UserID, event.Page, event.DurationSeconds,
		event.ActivityType, event.Category, event.CreatedAt)
	metrics.RecordDBQuery("insert", "activity_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert activity event: %w", err)
	}
	return nil
}

// EventsForUserSince returns all of a user's events with created_at at
// or after the cutoff. Used by the aggregation engine, which is
// order-independent, so no ORDER BY is applied.
func (db *DB) EventsForUserSince(ctx context.Context, userID string, since time.Time) ([]models.ActivityEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT id, user_id, page, duration_seconds, activity_type, category, created_at
		FROM activity_events
		WHERE user_id = ? AND created_at >= ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, since)
	metrics.RecordDBQuery("select", "activity_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	return scanActivityEvents(rows)
}

// ListEvents returns a page of a user's events, most recent first,
// along with the total row count for pagination.
func (db *DB) ListEvents(ctx context.Context, userID string, limit, offset int) ([]models.ActivityEvent, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var total int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_events WHERE user_id = ?`, userID).Scan(&total)
	metrics.RecordDBQuery("count", "activity_events", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activity events: %w", err)
	}

	const query = `SELECT id, user_id, page, duration_seconds, activity_type, category, created_at
		FROM activity_events
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, limit, offset)
	metrics.RecordDBQuery("select", "activity_events", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	events, err := scanActivityEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// GetEventStats returns aggregate statistics over a user's event log.
func (db *DB) GetEventStats(ctx context.Context, userID string) (*models.EventStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT
		COUNT(*),
		COALESCE(SUM(duration_seconds), 0),
		COUNT(DISTINCT page),
		MIN(created_at),
		MAX(created_at)
	FROM activity_events
	WHERE user_id = ?`

	stats := &models.EventStats{
		EventsByType: make(map[string]int64),
	}

	var first, last sql.NullTime
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalEvents, &stats.TotalSeconds, &stats.DistinctPages, &first, &last)
	metrics.RecordDBQuery("stats", "activity_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query event stats: %w", err)
	}
	if first.Valid {
		stats.FirstEventAt = &first.Time
	}
	if last.Valid {
		stats.LastEventAt = &last.Time
	}

	const byTypeQuery = `SELECT activity_type, COUNT(*)
		FROM activity_events
		WHERE user_id = ?
		GROUP BY activity_type`

	rows, err := db.conn.QueryContext(ctx, byTypeQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event type counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var activityType string
		var count int64
		if err := rows.Scan(&activityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event type count: %w", err)
		}
		stats.EventsByType[activityType] = count
	}
	return stats, rows.Err()
}

// GetLastEventTime returns the timestamp of a user's most recent event,
// or nil when the user has no events.
func (db *DB) GetLastEventTime(ctx context.Context, userID string) (*time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var last sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM activity_events WHERE user_id = ?`, userID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last event time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// PruneEventsBefore deletes all events older than the cutoff and
// returns the number of rows removed. Called by the retention service.
func (db *DB) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM activity_events WHERE created_at < ?`, cutoff)
	metrics.RecordDBQuery("delete", "activity_events", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity events: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}
	return removed, nil
}

// scanActivityEvents reads event rows into a slice
func scanActivityEvents(rows *sql.Rows) ([]models.ActivityEvent, error) {
	var events []models.ActivityEvent
	for rows.Next() {
		var e models.ActivityEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Page, &e.DurationSeconds,
			&e.ActivityType, &e.Category, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
