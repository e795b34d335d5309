// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/auth"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/database"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/tracker"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// testDBSemaphore serializes DuckDB instances across the package so
// concurrent CGO initialization cannot exhaust resources in CI.
var testDBSemaphore = make(chan struct{}, 1)

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Cache: config.CacheConfig{
			SummaryTTL:      30 * time.Second,
			StatsTTL:        time.Minute,
			StaleMaxAge:     10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Retention: config.RetentionConfig{
			Enabled:       true,
			MaxAge:        400 * 24 * time.Hour,
			PruneInterval: 12 * time.Hour,
		},
		Security: config.SecurityConfig{
			AuthMode:          "none",
			RateLimitDisabled: true,
			CORSOrigins:       []string{"https://app.alsamos.uz"},
		},
	}
}

// setupTestHandler builds a Handler backed by an in-memory event store
// and a real tracker. The DLQ and platform integrations are left nil.
func setupTestHandler(t *testing.T) (*Handler, *database.DB, *tracker.Tracker) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{
		Path:        ":memory:",
		MaxMemory:   "1GB",
		SkipIndexes: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	tr := tracker.New(db, nil, tracker.Config{})
	h := NewHandler(db, tr, nil, nil, testConfig(), nil)
	t.Cleanup(h.Close)

	return h, db, tr
}

// requestWithClaims builds a request carrying JWT claims in its context.
func requestWithClaims(method, target string, body io.Reader, claims *auth.Claims) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if claims != nil {
		ctx := context.WithValue(req.Context(), auth.ClaimsContextKey, claims)
		req = req.WithContext(ctx)
	}
	return req
}

// insertTestEvent persists one event directly into the store.
func insertTestEvent(t *testing.T, db *database.DB, userID, page string, seconds int, createdAt time.Time) {
	t.Helper()

	event := &models.ActivityEvent{
		ID:              uuid.New(),
		UserID:          userID,
		Page:            page,
		DurationSeconds: seconds,
		ActivityType:    models.ActivityPageView,
		Category:        "videos",
		CreatedAt:       createdAt,
	}
	if err := db.InsertActivityEvent(context.Background(), event); err != nil {
		t.Fatalf("Failed to insert test event: %v", err)
	}
}

// decodeResponse parses an APIResponse envelope from a recorder.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v (body: %s)", err, rec.Body.String())
	}
	return &resp
}
