// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/aggregate"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// SchemaVersion is the current envelope schema version. Increment on
// breaking changes to ActivityEnvelope; the consumer accepts version 0
// (unset, pre-versioning publishers) and the current version.
const SchemaVersion = 1

// maxEnvelopeDuration caps a single envelope at one day, matching the
// HTTP ingest bound.
const maxEnvelopeDuration = 86400

// ActivityEnvelope is the wire format for activity events published to
// JetStream by edge collectors. It is deliberately smaller than
// models.ActivityEvent: the category is derived server-side so clients
// cannot publish into arbitrary buckets.
type ActivityEnvelope struct {
	SchemaVersion   int       `json:"schema_version,omitempty"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	Page            string    `json:"page"`
	DurationSeconds int       `json:"duration_seconds"`
	ActivityType    string    `json:"activity_type,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Validate checks the envelope for structural problems. Validation
// failures are permanent: the router must not retry them.
func (e *ActivityEnvelope) Validate() error {
	if e.SchemaVersion != 0 && e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidEnvelope, e.SchemaVersion)
	}
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrInvalidEnvelope)
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("%w: event_id is not a UUID: %v", ErrInvalidEnvelope, err)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidEnvelope)
	}
	if e.Page == "" {
		return fmt.Errorf("%w: missing page", ErrInvalidEnvelope)
	}
	if len(e.Page) > 512 {
		return fmt.Errorf("%w: page exceeds 512 characters", ErrInvalidEnvelope)
	}
	if e.DurationSeconds < 0 || e.DurationSeconds > maxEnvelopeDuration {
		return fmt.Errorf("%w: duration %d out of range", ErrInvalidEnvelope, e.DurationSeconds)
	}
	switch e.ActivityType {
	case "", models.ActivityPageView, models.ActivityHeartbeat, models.ActivitySessionEnd:
	default:
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidEnvelope, e.ActivityType)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEnvelope)
	}
	return nil
}

// ToActivityEvent converts a validated envelope into the canonical
// event model. The category is derived from the page here, never taken
// from the wire.
func (e *ActivityEnvelope) ToActivityEvent() *models.ActivityEvent {
	activityType := e.ActivityType
	if activityType == "" {
		activityType = models.ActivityPageView
	}
	return &models.ActivityEvent{
		ID:              uuid.MustParse(e.EventID),
		UserID:          e.UserID,
		Page:            e.Page,
		DurationSeconds: e.DurationSeconds,
		ActivityType:    activityType,
		Category:        aggregate.CategoryForPage(e.Page),
		CreatedAt:       e.Timestamp.UTC(),
	}
}

// MarshalEnvelope validates and encodes an envelope for publishing.
func MarshalEnvelope(e *ActivityEnvelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalEnvelope decodes and validates an envelope from the wire.
func UnmarshalEnvelope(data []byte) (*ActivityEnvelope, error) {
	var e ActivityEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
