// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

/*
Package config provides centralized configuration management for Alsamos Pulse.

This package handles loading, validation, and parsing of configuration for all
application components. It ensures consistent configuration across the backend
services and provides sensible defaults for optional settings.

# Configuration Sources

Configuration is loaded in layers with clear precedence (later wins):

 1. Built-in defaults (defaultConfig)
 2. Optional YAML config file (CONFIG_PATH or a default search path)
 3. Environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts, environment)
  - DatabaseConfig: DuckDB connection and performance tuning
  - TrackerConfig: Session tracking and heartbeat partitioning
  - CacheConfig: In-memory summary caching parameters
  - RetentionConfig: Event log pruning policy
  - DLQConfig: Dead letter queue storage for failed inserts
  - SecurityConfig: JWT auth, rate limiting, CORS, Casbin RBAC
  - LoggingConfig: Structured logging (zerolog)
  - NATSConfig: Optional event ingest via Watermill/NATS JetStream

# Environment Variables

Environment variables map onto nested config paths via envTransformFunc,
for example HTTP_PORT -> server.port and HEARTBEAT_INTERVAL ->
tracker.heartbeat_interval. See koanf.go for the full mapping table.
*/
package config
