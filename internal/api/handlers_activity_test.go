// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/auth"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

func TestSignalsPageChangeOpensSession(t *testing.T) {
	h, _, tr := setupTestHandler(t)

	body := strings.NewReader(`{"kind":"page_change","page":"/videos/42"}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/signals", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Signals(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Signals status = %d, want %d (body: %s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	if got := tr.OpenSessions(); got != 1 {
		t.Errorf("OpenSessions = %d, want 1", got)
	}

	resp := decodeResponse(t, rec)
	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
}

func TestSignalsHiddenClosesSession(t *testing.T) {
	h, _, tr := setupTestHandler(t)
	tr.StartSession("alice", "/feed")

	body := strings.NewReader(`{"kind":"hidden"}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/signals", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Signals(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Signals status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if got := tr.OpenSessions(); got != 0 {
		t.Errorf("OpenSessions = %d, want 0", got)
	}
}

func TestSignalsRejectsUnknownKind(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	body := strings.NewReader(`{"kind":"teleport"}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/signals", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Signals(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Signals status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Error = %+v, want VALIDATION_ERROR", resp.Error)
	}
}

func TestSignalsPageChangeRequiresPage(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	body := strings.NewReader(`{"kind":"page_change"}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/signals", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Signals(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Signals status = %d, want %d (body: %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestSignalsRejectsMalformedBody(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	body := strings.NewReader(`{"kind":`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/signals", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Signals(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Signals status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestIngestEventAccepted(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	body := strings.NewReader(`{"page":"/videos/7","duration_seconds":42}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/events", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.IngestEvent(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("IngestEvent status = %d, want %d (body: %s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if recorded, _ := data["recorded"].(bool); !recorded {
		t.Errorf("recorded = %v, want true", data["recorded"])
	}
}

func TestIngestEventBelowMinimumNotRecorded(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	body := strings.NewReader(`{"page":"/feed","duration_seconds":3}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/events", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.IngestEvent(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("IngestEvent status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if recorded, _ := data["recorded"].(bool); recorded {
		t.Errorf("recorded = true, want false for sub-minimum duration")
	}
}

func TestIngestEventRequiresPage(t *testing.T) {
	h, _, _ := setupTestHandler(t)

	body := strings.NewReader(`{"duration_seconds":42}`)
	req := requestWithClaims(http.MethodPost, "/api/v1/activity/events", body, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.IngestEvent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("IngestEvent status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEventsPagination(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	now := time.Now()
	for i := 0; i < 3; i++ {
		insertTestEvent(t, db, "alice", "/videos/1", 60, now.Add(-time.Duration(i)*time.Hour))
	}
	insertTestEvent(t, db, "bob", "/feed", 30, now)

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/events?limit=2", nil, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Events(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Events status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	events, _ := data["events"].([]interface{})
	if len(events) != 2 {
		t.Errorf("events length = %d, want 2", len(events))
	}
	if total, _ := data["total"].(float64); int(total) != 3 {
		t.Errorf("total = %v, want 3", data["total"])
	}
}

func TestEventsClampsInvalidPagination(t *testing.T) {
	h, db, _ := setupTestHandler(t)
	insertTestEvent(t, db, "alice", "/feed", 60, time.Now())

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/events?limit=99999&offset=-5", nil, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()

	h.Events(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Events status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSummaryComputesAndCaches(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	insertTestEvent(t, db, "alice", "/videos/1", 600, time.Now().Add(-time.Hour))
	claims := &auth.Claims{Username: "alice", Role: models.RoleViewer}

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/summary", nil, claims)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Summary status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Metadata.Cached {
		t.Errorf("first Summary response marked cached")
	}

	rec2 := httptest.NewRecorder()
	h.Summary(rec2, requestWithClaims(http.MethodGet, "/api/v1/activity/summary", nil, claims))

	resp2 := decodeResponse(t, rec2)
	if !resp2.Metadata.Cached {
		t.Errorf("second Summary response not marked cached")
	}
	if resp2.Metadata.Stale {
		t.Errorf("cached Summary response marked stale")
	}
}

func TestSummaryExcludesPriorCalendarYear(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	// Two December events from last year are still within retention but
	// must not count toward this year's summary.
	now := time.Now()
	lastDecember := time.Date(now.Year()-1, time.December, 20, 10, 0, 0, 0, time.UTC)
	insertTestEvent(t, db, "alice", "/videos/1", 600, lastDecember)
	insertTestEvent(t, db, "alice", "/feed", 600, lastDecember.Add(2*time.Hour))
	thisYear := time.Date(now.Year(), time.July, 1, 12, 0, 0, 0, time.UTC)
	insertTestEvent(t, db, "alice", "/videos/2", 600, thisYear)

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/summary", nil, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Summary status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if sessions, _ := data["total_sessions"].(float64); int(sessions) != 1 {
		t.Errorf("total_sessions = %v, want 1", data["total_sessions"])
	}
	// 10 minutes over a single active day; prior-year days must not
	// dilute the divisor.
	if avg, _ := data["average_daily"].(float64); int(avg) != 10 {
		t.Errorf("average_daily = %v, want 10", data["average_daily"])
	}
	daily, _ := data["daily_data"].([]interface{})
	if len(daily) != 1 {
		t.Fatalf("daily_data length = %d, want 1", len(daily))
	}
	day, _ := daily[0].(map[string]interface{})
	if date, _ := day["date"].(string); !strings.HasPrefix(date, fmt.Sprintf("%d-", now.Year())) {
		t.Errorf("daily_data date = %q, want a current-year date", day["date"])
	}
}

func TestSummaryIsolatesUsers(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	insertTestEvent(t, db, "alice", "/videos/1", 600, time.Now().Add(-time.Hour))

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/summary", nil, &auth.Claims{Username: "bob", Role: models.RoleViewer})
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Summary status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if today, _ := data["today_minutes"].(float64); today != 0 {
		t.Errorf("today_minutes for bob = %v, want 0", today)
	}
}

func TestSummaryAdminCanOverrideUser(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	insertTestEvent(t, db, "alice", "/videos/1", 600, time.Now().Add(-time.Hour))

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/summary?user_id=alice", nil, &auth.Claims{Username: "root", Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if today, _ := data["today_minutes"].(float64); today != 10 {
		t.Errorf("today_minutes = %v, want 10", today)
	}
}

func TestSummaryViewerCannotOverrideUser(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	insertTestEvent(t, db, "alice", "/videos/1", 600, time.Now().Add(-time.Hour))

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/summary?user_id=alice", nil, &auth.Claims{Username: "bob", Role: models.RoleViewer})
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if today, _ := data["today_minutes"].(float64); today != 0 {
		t.Errorf("today_minutes = %v, want 0; viewer override must be ignored", today)
	}
}

func TestSessionsRequiresAdmin(t *testing.T) {
	h, _, tr := setupTestHandler(t)
	h.config.Security.AuthMode = "jwt"
	tr.StartSession("alice", "/feed")

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/sessions", nil, &auth.Claims{Username: "bob", Role: models.RoleViewer})
	rec := httptest.NewRecorder()
	h.Sessions(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Sessions status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestSessionsSnapshot(t *testing.T) {
	h, _, tr := setupTestHandler(t)
	tr.StartSession("alice", "/videos/1")
	tr.StartSession("bob", "/feed")

	req := requestWithClaims(http.MethodGet, "/api/v1/activity/sessions", nil, &auth.Claims{Username: "root", Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	h.Sessions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Sessions status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if count, _ := data["count"].(float64); int(count) != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}
}

func TestStatsReturnsTotals(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	now := time.Now()
	insertTestEvent(t, db, "alice", "/videos/1", 60, now.Add(-2*time.Hour))
	insertTestEvent(t, db, "alice", "/feed", 30, now.Add(-time.Hour))

	req := requestWithClaims(http.MethodGet, "/api/v1/stats", nil, &auth.Claims{Username: "alice", Role: models.RoleViewer})
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Stats status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if total, _ := data["total_events"].(float64); int(total) != 2 {
		t.Errorf("total_events = %v, want 2", data["total_events"])
	}
	if seconds, _ := data["total_seconds"].(float64); int(seconds) != 90 {
		t.Errorf("total_seconds = %v, want 90", data["total_seconds"])
	}
}

func TestPruneRemovesOldEvents(t *testing.T) {
	h, db, _ := setupTestHandler(t)

	insertTestEvent(t, db, "alice", "/videos/1", 60, time.Now().Add(-500*24*time.Hour))
	insertTestEvent(t, db, "alice", "/feed", 30, time.Now())

	req := requestWithClaims(http.MethodPost, "/api/v1/admin/prune", nil, &auth.Claims{Username: "root", Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	h.Prune(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Prune status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", resp.Data)
	}
	if pruned, _ := data["pruned_events"].(float64); int(pruned) != 1 {
		t.Errorf("pruned_events = %v, want 1", data["pruned_events"])
	}
}
