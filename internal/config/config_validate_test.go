// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package config

import (
	"strings"
	"testing"
	"time"
)

// validTestConfig returns a configuration that passes validation,
// to be mutated by individual tests.
func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults with auth disabled = %v, want nil", err)
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port", 3857, false},
		{"port 1", 1, false},
		{"port 65535", 65535, false},
		{"port zero", 0, true},
		{"port too high", 65536, true},
		{"negative port", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.Server.Port = tt.port
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTracker(t *testing.T) {
	tests := []struct {
		name      string
		interval  time.Duration
		queueSize int
		wantErr   bool
	}{
		{"defaults", 30 * time.Second, 1024, false},
		{"minimum interval", 5 * time.Second, 16, false},
		{"interval too short", time.Second, 1024, true},
		{"interval too long", time.Hour, 1024, true},
		{"queue too small", 30 * time.Second, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.Tracker.HeartbeatInterval = tt.interval
			cfg.Tracker.QueueSize = tt.queueSize
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRetention(t *testing.T) {
	t.Run("max age below yearly window rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Retention.MaxAge = 30 * 24 * time.Hour
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for short retention, got nil")
		}
	})

	t.Run("short max age allowed when retention disabled", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Retention.Enabled = false
		cfg.Retention.MaxAge = 24 * time.Hour
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestValidateJWTAuth(t *testing.T) {
	base := func() Config {
		cfg := defaultConfig()
		cfg.Security.AuthMode = "jwt"
		cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
		cfg.Security.AdminUsername = "admin"
		cfg.Security.AdminPassword = "correct-horse-battery-staple-9"
		return cfg
	}

	t.Run("valid jwt config", func(t *testing.T) {
		cfg := base()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := base()
		cfg.Security.JWTSecret = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for missing JWT secret, got nil")
		}
	})

	t.Run("short secret", func(t *testing.T) {
		cfg := base()
		cfg.Security.JWTSecret = "too-short"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for short JWT secret, got nil")
		}
	})

	t.Run("placeholder secret", func(t *testing.T) {
		cfg := base()
		cfg.Security.JWTSecret = "CHANGEME_CHANGEME_CHANGEME_CHANGEME"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for placeholder JWT secret, got nil")
		}
	})

	t.Run("placeholder admin password", func(t *testing.T) {
		cfg := base()
		cfg.Security.AdminPassword = "your_password_here"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for placeholder password, got nil")
		}
	})

	t.Run("missing admin username", func(t *testing.T) {
		cfg := base()
		cfg.Security.AdminUsername = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for missing admin username, got nil")
		}
	})
}

func TestValidateAuthModeForEnvironment(t *testing.T) {
	cfg := validTestConfig()
	cfg.Server.Environment = "production"
	cfg.Security.CORSOrigins = []string{"https://alsamos.uz"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for AUTH_MODE=none in production, got nil")
	}
	if !strings.Contains(err.Error(), "AUTH_MODE=none") {
		t.Errorf("Validate() error = %v, want mention of AUTH_MODE=none", err)
	}
}

func TestValidateCORSWildcardInProduction(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Environment = "production"
	cfg.Security.AuthMode = "jwt"
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "correct-horse-battery-staple-9"
	cfg.Security.CORSOrigins = []string{"*"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for wildcard CORS in production, got nil")
	}
	if !strings.Contains(err.Error(), "CORS_ORIGINS") {
		t.Errorf("Validate() error = %v, want mention of CORS_ORIGINS", err)
	}

	// Specific origins pass
	cfg.Security.CORSOrigins = []string{"https://alsamos.uz"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with specific origins = %v, want nil", err)
	}
}

func TestValidateRateLimits(t *testing.T) {
	t.Run("zero requests rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Security.RateLimitReqs = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for zero rate limit requests, got nil")
		}
	})

	t.Run("window too long rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Security.RateLimitWindow = 2 * time.Hour
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for oversized rate limit window, got nil")
		}
	})

	t.Run("bounds ignored when disabled", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Security.RateLimitDisabled = true
		cfg.Security.RateLimitReqs = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestValidateNATS(t *testing.T) {
	t.Run("external server requires url", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.EmbeddedServer = false
		cfg.NATS.URL = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error for missing NATS URL, got nil")
		}
	})

	t.Run("disabled skips validation", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.NATS.Enabled = false
		cfg.NATS.URL = ""
		cfg.NATS.StreamRetentionDays = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestValidateAllLogLevels(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		cfg := validTestConfig()
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with level %q = %v, want nil", level, err)
		}
	}

	cfg := validTestConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for invalid log level, got nil")
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{"development", false},
		{"dev", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.Server.Environment = tt.env
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() with %q = %v, want %v", tt.env, got, tt.want)
		}
	}
}
