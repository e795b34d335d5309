// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.PlatformConfig{
		Enabled: true,
		URL:     srv.URL,
		APIKey:  "test-service-key",
		Timeout: 5 * time.Second,
	})
}

func TestGetUserProfile(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Alsamos-Service-Key"); got != "test-service-key" {
			t.Errorf("Expected service key header, got %q", got)
		}
		if r.URL.Path != "/api/v1/users/u-42" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"user_id": "u-42",
				"username": "samandar",
				"display_name": "Samandar A.",
				"verified": true,
				"created_at": "2024-03-01T12:00:00Z"
			}
		}`))
	})

	profile, err := client.GetUserProfile(context.Background(), "u-42")
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if profile.UserID != "u-42" {
		t.Errorf("Expected user_id u-42, got %s", profile.UserID)
	}
	if profile.Username != "samandar" {
		t.Errorf("Expected username samandar, got %s", profile.Username)
	}
	if !profile.Verified {
		t.Error("Expected verified profile")
	}
}

func TestGetUserProfileEscapesUserID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// PathEscape keeps the id in a single path segment
		if strings.Count(r.URL.EscapedPath(), "/") != 4 {
			t.Errorf("Expected single escaped segment, got %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"user_id":"a/b","username":"x"}}`))
	})

	if _, err := client.GetUserProfile(context.Background(), "a/b"); err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
}

func TestGetUserProfileEnvelopeError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"NOT_FOUND","message":"no such user"}}`))
	})

	_, err := client.GetUserProfile(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for error envelope")
	}
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("Expected error code in message, got %v", err)
	}
}

func TestGetUserProfileHTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := client.GetUserProfile(context.Background(), "u-1")
	if err == nil {
		t.Fatal("Expected error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"healthy":true}}`))
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestPingContextCancellation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := client.Ping(ctx); err == nil {
		t.Fatal("Expected error for canceled context")
	}
}
