// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package auth

import (
	"encoding/base64"
	"testing"
)

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestNewBasicAuthManagerValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "admin", "strong-password", false},
		{"empty username", "", "strong-password", true},
		{"empty password", "admin", "", true},
		{"short password", "admin", "short", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBasicAuthManager(tt.username, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBasicAuthManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	manager, err := NewBasicAuthManager("admin", "correct-password")
	if err != nil {
		t.Fatalf("NewBasicAuthManager failed: %v", err)
	}

	username, err := manager.ValidateCredentials(basicHeader("admin", "correct-password"))
	if err != nil {
		t.Fatalf("Expected valid credentials to pass: %v", err)
	}
	if username != "admin" {
		t.Errorf("Expected username admin, got %s", username)
	}

	if _, err := manager.ValidateCredentials(basicHeader("admin", "wrong-password")); err == nil {
		t.Error("Expected wrong password to fail")
	}
	if _, err := manager.ValidateCredentials(basicHeader("other", "correct-password")); err == nil {
		t.Error("Expected wrong username to fail")
	}
}

func TestValidateCredentialsMalformedHeader(t *testing.T) {
	manager, err := NewBasicAuthManager("admin", "correct-password")
	if err != nil {
		t.Fatalf("NewBasicAuthManager failed: %v", err)
	}

	for _, header := range []string{
		"",
		"Bearer token",
		"Basic not-base64!!!",
		"Basic " + base64.StdEncoding.EncodeToString([]byte("no-colon")),
	} {
		if _, err := manager.ValidateCredentials(header); err == nil {
			t.Errorf("Expected header %q to fail validation", header)
		}
	}
}

func TestVerifyPassword(t *testing.T) {
	manager, err := NewBasicAuthManager("admin", "correct-password")
	if err != nil {
		t.Fatalf("NewBasicAuthManager failed: %v", err)
	}

	if !manager.VerifyPassword("admin", "correct-password") {
		t.Error("Expected correct credentials to verify")
	}
	if manager.VerifyPassword("admin", "wrong") {
		t.Error("Expected wrong password to fail")
	}
}
