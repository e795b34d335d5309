// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity type constants classify how an ActivityEvent was produced.
// They are informational only and never consulted by the aggregation fold.
const (
	// ActivityPageView is emitted when a session closes because the user
	// navigated to a different page.
	ActivityPageView = "page_view"

	// ActivityHeartbeat is emitted by the heartbeat sweep for a session
	// that stayed open across a full heartbeat interval.
	ActivityHeartbeat = "heartbeat"

	// ActivitySessionEnd is emitted when a session closes because the
	// document was hidden, unloaded, or the session was ended explicitly.
	ActivitySessionEnd = "session_end"
)

// MinEventDurationSeconds is the floor below which activity observations
// are discarded before they reach the event log. Sub-5-second page touches
// are navigation noise, not engagement.
const MinEventDurationSeconds = 5

// ActivityEvent is one observation of time a user spent on a logical page.
//
// Events are immutable once persisted: the store only ever inserts, never
// updates. All windowing and aggregation keys off CreatedAt, which is
// assigned server-side at emit time.
//
// Fields:
//   - ID: Unique UUID for each event
//   - UserID: Owner identifier (opaque string)
//   - Page: Path/route identifier, e.g. "/home" or "/messages/42"
//   - DurationSeconds: Observed engagement time, always >= MinEventDurationSeconds
//   - ActivityType: page_view, heartbeat, or session_end
//   - Category: Derived from Page by ordered prefix match (see aggregate.CategoryForPage)
//   - CreatedAt: Server-assigned timestamp, source of truth for windowing
type ActivityEvent struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"user_id"`
	Page            string    `json:"page"`
	DurationSeconds int       `json:"duration_seconds"`
	ActivityType    string    `json:"activity_type"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"created_at"`
}

// ActivitySummary is the derived multi-granularity aggregate for one user.
// It is recomputed on demand from an event window and never persisted.
//
// Per-period totals are in whole minutes, rounded to nearest at output.
// HourlyDistribution and WeeklyPattern are fixed-length (24 and 7); the
// weekly buckets are Sunday-first. Tie-breaks on the arg-max fields resolve
// to the first occurrence in ascending bucket order.
type ActivitySummary struct {
	TodayMinutes  int `json:"today_minutes"`
	WeekMinutes   int `json:"week_minutes"`
	MonthMinutes  int `json:"month_minutes"`
	YearMinutes   int `json:"year_minutes"`
	AverageDaily  int `json:"average_daily"`
	TotalSessions int `json:"total_sessions"`

	// MostActiveHour is 0-23; MostActiveDay is a full weekday name.
	MostActiveHour int    `json:"most_active_hour"`
	MostActiveDay  string `json:"most_active_day"`

	// DailyData holds the 30 most recent distinct active days, descending
	// by date.
	DailyData []DailyActivity `json:"daily_data"`

	// HourlyDistribution is minutes per hour-of-day across the window.
	HourlyDistribution [24]int `json:"hourly_distribution"`

	// WeeklyPattern is minutes per weekday, Sunday-first.
	WeeklyPattern [7]WeeklyPatternEntry `json:"weekly_pattern"`
}

// DailyActivity is one calendar day of aggregated activity.
//
// Date is the day key in "2006-01-02" form. Categories maps category name
// to whole minutes for that day; categories with zero minutes are absent.
type DailyActivity struct {
	Date         string         `json:"date"`
	TotalMinutes int            `json:"total_minutes"`
	SessionCount int            `json:"session_count"`
	Categories   map[string]int `json:"categories"`
}

// WeeklyPatternEntry is one weekday bucket of the weekly pattern.
// Day is the three-letter weekday abbreviation ("Sun" through "Sat").
type WeeklyPatternEntry struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

// EventStats summarizes the event log for one user without materializing
// event rows. Used by the stats endpoint and retention tooling.
type EventStats struct {
	TotalEvents   int64            `json:"total_events"`
	TotalSeconds  int64            `json:"total_seconds"`
	DistinctPages int              `json:"distinct_pages"`
	FirstEventAt  *time.Time       `json:"first_event_at,omitempty"`
	LastEventAt   *time.Time       `json:"last_event_at,omitempty"`
	EventsByType  map[string]int64 `json:"events_by_type,omitempty"`
}

// SessionInfo is the externally visible snapshot of one open session,
// returned by the sessions endpoint. Durations are computed against the
// snapshot time, not stored.
type SessionInfo struct {
	UserID         string    `json:"user_id"`
	Page           string    `json:"page"`
	Category       string    `json:"category"`
	StartedAt      time.Time `json:"started_at"`
	MarkedAt       time.Time `json:"marked_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
}
