// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/SamandarAlimov/alsamos-social-sub004/docs" // generated swagger docs
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/api"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/auth"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/authz"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/database"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/dlq"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/platform"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/supervisor"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/supervisor/services"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/tracker"
	ws "github.com/SamandarAlimov/alsamos-social-sub004/internal/websocket"
)

//nolint:gocyclo // sequential startup wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Dur("heartbeat_interval", cfg.Tracker.HeartbeatInterval).
		Msg("Starting Alsamos Pulse")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	dlqStore, err := dlq.Open(cfg.DLQ)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open dead letter queue")
	}
	defer func() {
		if err := dlqStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dead letter queue")
		}
	}()

	wsHub := ws.NewHub()

	activityTracker := tracker.New(db, dlqStore, tracker.Config{
		HeartbeatInterval: cfg.Tracker.HeartbeatInterval,
		QueueSize:         cfg.Tracker.QueueSize,
		Broadcaster:       wsHub,
	})

	// Profile enrichment is optional; summaries degrade to activity-only
	// payloads when the core platform is unreachable or disabled.
	var profiles platform.ProfileResolver
	if cfg.Platform.Enabled {
		client := platform.NewCircuitBreakerClient(&cfg.Platform)
		if err := client.Ping(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Core platform unreachable, profile enrichment degraded")
		} else {
			logging.Info().Str("url", cfg.Platform.URL).Msg("Connected to core platform")
		}
		profiles = client
	} else {
		logging.Info().Msg("Platform profile enrichment disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jwtManager *auth.JWTManager
	var basicAuthManager *auth.BasicAuthManager

	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "basic":
		basicAuthManager, err = auth.NewBasicAuthManager(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Basic Auth manager")
		}
		logging.Info().Msg("Basic authentication enabled")
		logging.Warn().Msg("Basic Auth transmits credentials with each request. Use HTTPS in production!")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("All endpoints are publicly accessible. Use only for local development or isolated networks.")
	}

	lockout := auth.NewLockoutManager(auth.NewMemoryLockoutStore(), &auth.LockoutConfig{
		MaxAttempts:     cfg.Security.LoginMaxAttempts,
		LockoutDuration: cfg.Security.LoginLockoutWindow,
	})

	authMW := auth.NewMiddleware(jwtManager, basicAuthManager, &cfg.Security)
	authHandlers := auth.NewHandlers(jwtManager, basicAuthManager, lockout, authMW)

	// RBAC enforcement only makes sense with authenticated identities.
	var authzMW *authz.Middleware
	if cfg.Security.AuthMode != "none" {
		enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
			ModelPath:      cfg.Security.Casbin.ModelPath,
			PolicyPath:     cfg.Security.Casbin.PolicyPath,
			AutoReload:     cfg.Security.Casbin.AutoReload,
			ReloadInterval: cfg.Security.Casbin.ReloadInterval,
			DefaultRole:    cfg.Security.Casbin.DefaultRole,
			CacheEnabled:   cfg.Security.Casbin.CacheEnabled,
			CacheTTL:       cfg.Security.Casbin.CacheTTL,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize RBAC enforcer")
		}
		defer enforcer.Close()
		authzMW = authz.NewMiddleware(enforcer)
		logging.Info().Msg("Casbin RBAC enforcement enabled")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(db, activityTracker, dlqStore, profiles, cfg, wsHub)
	defer handler.Close()

	swaggerEnabled := cfg.Server.Environment == "development"
	router := api.NewRouter(handler, authHandlers, authMW, authzMW, swaggerEnabled)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Storage layer: DLQ garbage collection and retention pruning.
	tree.AddStorageService(dlqStore)
	if cfg.Retention.Enabled {
		tree.AddStorageService(services.NewPrunerService(db, cfg.Retention.MaxAge, cfg.Retention.PruneInterval))
		logging.Info().Dur("max_age", cfg.Retention.MaxAge).Msg("Retention pruner enabled")
	}

	// Tracking layer: session tracker, heartbeat sweeps, live updates.
	tree.AddTrackingService(activityTracker)
	tree.AddTrackingService(services.NewHeartbeatService(activityTracker, cfg.Tracker.HeartbeatInterval))
	tree.AddTrackingService(services.NewWebSocketHubService(wsHub))

	// Optional NATS ingest (requires build with -tags nats).
	if err := initIngest(cfg, db, wsHub, tree); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event ingest")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
