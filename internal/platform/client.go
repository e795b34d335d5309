// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package platform provides a client for the Alsamos core platform API.
//
// Pulse only stores opaque user identifiers; display names and avatars live
// in the core platform. This client resolves them on demand so that summary
// and userinfo responses can be enriched. Lookups are best-effort: the
// service keeps working when the platform is unreachable, and callers are
// expected to tolerate a nil profile.
//
// Use CircuitBreakerClient in production so that a slow or down platform
// cannot stall request handling.
package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics. Prevents unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// UserProfile is the subset of the core platform's user record that Pulse
// surfaces in API responses.
type UserProfile struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// envelope is the core platform's standard response wrapper.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *envelopeError  `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ProfileResolver is the interface the API layer depends on. It is
// implemented by Client and CircuitBreakerClient, and by mocks in tests.
type ProfileResolver interface {
	Ping(ctx context.Context) error
	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)
}

// Client handles communication with the core platform HTTP API.
//
// Requests are authenticated with a service API key sent in the
// X-Alsamos-Service-Key header. Each request creates its own http.Request,
// so the client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a platform API client from configuration.
func NewClient(cfg *config.PlatformConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping verifies connectivity to the core platform API.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.get(ctx, "/api/v1/health", nil); err != nil {
		return fmt.Errorf("platform ping failed: %w", err)
	}
	return nil
}

// GetUserProfile resolves a user identifier to the platform's profile record.
func (c *Client) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile
	path := "/api/v1/users/" + url.PathEscape(userID)
	if err := c.get(ctx, path, &profile); err != nil {
		return nil, fmt.Errorf("profile lookup for %s failed: %w", userID, err)
	}
	return &profile, nil
}

// get performs an authenticated GET, checks HTTP status, and unwraps the
// platform response envelope into result. A nil result discards the data
// payload after status validation.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Alsamos-Service-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Status != "success" {
		if env.Error != nil {
			return fmt.Errorf("platform returned %s: %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("platform returned status %q", env.Status)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// readBodyForError reads up to maxErrorBodySize of a response body for error
// reporting. Returns a placeholder if reading fails.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
