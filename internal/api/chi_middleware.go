// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
)

// RateLimitConfig describes one rate limit tier.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Rate limit tiers. Write paths are tighter than reads, login is
// tightest to slow credential stuffing, health is effectively open for
// orchestrator probes.
var (
	RateLimitAuth   = RateLimitConfig{Requests: 5, Window: time.Minute}
	RateLimitLogin  = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
	RateLimitAPI    = RateLimitConfig{Requests: 100, Window: time.Minute}
	RateLimitWrite  = RateLimitConfig{Requests: 30, Window: time.Minute}
)

// ChiMiddleware provides chi-native middleware configured from the
// security settings.
type ChiMiddleware struct {
	cfg  *config.SecurityConfig
	cors *cors.Cors
}

// NewChiMiddleware creates the middleware set from security config.
func NewChiMiddleware(cfg *config.SecurityConfig) *ChiMiddleware {
	return &ChiMiddleware{
		cfg: cfg,
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			ExposedHeaders:   []string{"ETag"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	}
}

// CORS returns the CORS handler as chi middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors.Handler
}

// RateLimitCustom returns per-IP rate limiting middleware for the given
// tier. Disabled entirely when rate limiting is turned off in config.
func (m *ChiMiddleware) RateLimitCustom(tier RateLimitConfig) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(tier.Requests, tier.Window)
}

// APISecurityHeaders sets standard security headers on API responses.
// HSTS is only sent when the request arrived over TLS.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDWithLogging wraps chi's RequestID middleware and copies the
// generated ID into the logging context so every log line carries it,
// along with a fresh correlation ID.
func RequestIDWithLogging(next http.Handler) http.Handler {
	return chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// http.Handler middleware signature.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// chiPathValue copies chi URL parameters into the request's PathValue
// store so handlers stay router-agnostic.
func chiPathValue(params ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range params {
				if v := chi.URLParam(r, p); v != "" {
					r.SetPathValue(p, v)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
