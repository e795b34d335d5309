// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package config

import "time"

// Config holds all application configuration for Alsamos Pulse.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Tracker   TrackerConfig   `koanf:"tracker"`
	Cache     CacheConfig     `koanf:"cache"`
	Retention RetentionConfig `koanf:"retention"`
	DLQ       DLQConfig       `koanf:"dlq"`
	Security  SecurityConfig  `koanf:"security"`
	Platform  PlatformConfig  `koanf:"platform"`
	Logging   LoggingConfig   `koanf:"logging"`
	NATS      NATSConfig      `koanf:"nats"` // Optional: event ingest with Watermill/NATS JetStream
}

// DatabaseConfig holds DuckDB connection and tuning settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // Whether to preserve insertion order (default true)
	SkipIndexes            bool   `koanf:"skip_indexes"`             // Skip index creation (for fast test setup)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // Environment mode: "development", "staging", "production" (default: "development")
}

// APIConfig holds API pagination settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// TrackerConfig holds session tracking and heartbeat settings.
type TrackerConfig struct {
	// HeartbeatInterval is the partition width for long sessions. An open
	// session emits one heartbeat event per elapsed interval so that
	// activity accrues to the correct clock hour and day.
	// Default: 30s
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`

	// QueueSize is the capacity of the asynchronous insert queue between
	// the tracker and the event store. Events are dropped to the dead
	// letter queue when the queue is full.
	// Default: 1024
	QueueSize int `koanf:"queue_size"`
}

// CacheConfig holds in-memory summary cache settings.
type CacheConfig struct {
	// SummaryTTL is how long a computed activity summary stays fresh.
	// Default: 30s
	SummaryTTL time.Duration `koanf:"summary_ttl"`

	// StatsTTL is how long computed event statistics stay fresh.
	// Default: 1m
	StatsTTL time.Duration `koanf:"stats_ttl"`

	// StaleMaxAge is the maximum age of a cached entry that may still be
	// served when the database is unavailable. Stale responses are marked
	// in response metadata.
	// Default: 10m
	StaleMaxAge time.Duration `koanf:"stale_max_age"`

	// CleanupInterval is how often expired entries are evicted.
	// Default: 5m
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// RetentionConfig holds the event log pruning policy.
type RetentionConfig struct {
	// Enabled controls whether old events are pruned automatically.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// MaxAge is how long events are kept before pruning. The aggregation
	// windows need a full calendar year, so this must be at least 366 days.
	// Default: 400 days
	MaxAge time.Duration `koanf:"max_age"`

	// PruneInterval is how often the pruner runs.
	// Default: 12h
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// DLQConfig holds dead letter queue storage settings. Failed event inserts
// are captured here for operator inspection and replay; they are never
// retried automatically.
type DLQConfig struct {
	// Path is the BadgerDB directory for the dead letter queue.
	Path string `koanf:"path"`

	// MaxAge is how long captured entries are kept before BadgerDB GC.
	// Default: 7 days
	MaxAge time.Duration `koanf:"max_age"`

	// InMemory runs the store without disk persistence (tests only).
	InMemory bool `koanf:"in_memory"`
}

// SecurityConfig holds authentication and transport security settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`

	// LoginMaxAttempts is the number of failed logins before lockout.
	// Default: 5
	LoginMaxAttempts int `koanf:"login_max_attempts"`

	// LoginLockoutWindow is how long a locked-out client must wait.
	// Default: 15m
	LoginLockoutWindow time.Duration `koanf:"login_lockout_window"`

	// Casbin RBAC authorization
	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds Casbin RBAC enforcement settings. When ModelPath or
// PolicyPath is empty the embedded model and policy are used.
type CasbinConfig struct {
	ModelPath      string        `koanf:"model_path"`
	PolicyPath     string        `koanf:"policy_path"`
	DefaultRole    string        `koanf:"default_role"`
	AutoReload     bool          `koanf:"auto_reload"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
	CacheEnabled   bool          `koanf:"cache_enabled"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
}

// PlatformConfig holds settings for the Alsamos core platform API client.
// The client resolves user profiles for summary and userinfo responses; it
// is optional and the service degrades gracefully when disabled or down.
type PlatformConfig struct {
	// Enabled controls whether profile lookups are performed.
	Enabled bool `koanf:"enabled"`

	// URL is the base URL of the core platform API.
	URL string `koanf:"url"`

	// APIKey is the service credential sent with every request.
	APIKey string `koanf:"api_key"`

	// Timeout is the per-request HTTP timeout.
	// Default: 10s
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Console is human-readable for development.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// NATSConfig holds settings for the optional event ingest pipeline.
// When enabled, activity events published by edge collectors are consumed
// from NATS JetStream and fed into the same store as HTTP signals.
type NATSConfig struct {
	// Enabled controls whether event ingest is active.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer enables an embedded NATS server.
	// If false, expects an external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamRetentionDays is how long to keep events in the stream.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// SubscribersCount is the number of concurrent message processors.
	SubscribersCount int `koanf:"subscribers_count"`

	// DurableName is the consumer durable name for message tracking.
	DurableName string `koanf:"durable_name"`

	// QueueGroup is the queue group for load balancing.
	QueueGroup string `koanf:"queue_group"`

	// RouterRetryCount is the maximum number of retries for failed messages.
	// Default: 3
	RouterRetryCount int `koanf:"router_retry_count"`

	// RouterRetryInitialInterval is the initial backoff interval for retries.
	// Default: 100ms
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`

	// RouterPoisonQueueEnabled routes permanently failed messages to a poison queue.
	// Default: true
	RouterPoisonQueueEnabled bool `koanf:"router_poison_queue_enabled"`

	// RouterPoisonQueueTopic is the topic for permanently failed messages.
	// Default: "activity.poison"
	RouterPoisonQueueTopic string `koanf:"router_poison_queue_topic"`

	// RouterCloseTimeout is the maximum time to wait for graceful router shutdown.
	// Default: 30s
	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
}

// Load loads configuration from defaults, an optional config file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
