// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/auth"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/authz"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/middleware"
)

// Router assembles the HTTP surface: API handlers, authentication,
// authorization, and the middleware stack.
type Router struct {
	handler       *Handler
	authHandlers  *auth.Handlers
	authMW        *auth.Middleware
	authzMW       *authz.Middleware
	chiMW         *ChiMiddleware
	swaggerEnable bool
}

// NewRouter creates a Router from its assembled parts. authzMW may be
// nil when Casbin enforcement is disabled; role checks then fall back to
// the JWT role claim inside the handlers.
func NewRouter(handler *Handler, authHandlers *auth.Handlers, authMW *auth.Middleware, authzMW *authz.Middleware, swaggerEnable bool) *Router {
	return &Router{
		handler:       handler,
		authHandlers:  authHandlers,
		authMW:        authMW,
		authzMW:       authzMW,
		chiMW:         NewChiMiddleware(&handler.config.Security),
		swaggerEnable: swaggerEnable,
	}
}

// authorize wraps a handler with Casbin request authorization when an
// enforcer is configured.
func (rt *Router) authorize(next http.HandlerFunc) http.HandlerFunc {
	if rt.authzMW == nil {
		return next
	}
	return rt.authzMW.AuthorizeRequest(next)
}

// SetupChi builds the chi router with the full middleware stack and all
// API routes.
func (rt *Router) SetupChi() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware, outermost first.
	r.Use(RequestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.chiMW.CORS())
	r.Use(chiMiddleware(middleware.Compression))

	// Health endpoints: no auth so orchestrator probes always succeed.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rt.chiMW.RateLimitCustom(RateLimitHealth))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	// Authentication endpoints. Login gets the strictest rate limit.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.With(rt.chiMW.RateLimitCustom(RateLimitLogin)).Post("/login", rt.authHandlers.Login)
		r.With(rt.chiMW.RateLimitCustom(RateLimitAuth)).
			Get("/userinfo", rt.authMW.Authenticate(rt.authHandlers.UserInfo))
		r.With(rt.chiMW.RateLimitCustom(RateLimitAuth)).
			Post("/logout", rt.authMW.Authenticate(rt.authHandlers.Logout))
	})

	// Activity tracking and aggregation.
	r.Route("/api/v1/activity", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(rt.authMW.Authenticate))

		r.With(rt.chiMW.RateLimitCustom(RateLimitWrite)).Post("/signals", rt.handler.Signals)
		r.With(rt.chiMW.RateLimitCustom(RateLimitWrite)).Post("/events", rt.handler.IngestEvent)
		r.With(rt.chiMW.RateLimitCustom(RateLimitAPI)).Get("/summary", rt.handler.Summary)
		r.With(rt.chiMW.RateLimitCustom(RateLimitAPI)).Get("/events", rt.handler.Events)
		r.With(rt.chiMW.RateLimitCustom(RateLimitAPI)).Get("/sessions", rt.authorize(rt.handler.Sessions))
	})

	// Event statistics.
	r.Route("/api/v1/stats", func(r chi.Router) {
		r.Use(rt.chiMW.RateLimitCustom(RateLimitAPI))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(rt.authMW.Authenticate))
		r.Get("/", rt.handler.Stats)
	})

	// Dead letter queue management, admin only via Casbin.
	r.Route("/api/v1/dlq", func(r chi.Router) {
		r.Use(rt.chiMW.RateLimitCustom(RateLimitAPI))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(rt.authMW.Authenticate))
		r.Use(chiPathValue("id"))

		r.Get("/entries", rt.authorize(rt.handler.DLQEntries))
		r.Get("/stats", rt.authorize(rt.handler.DLQStats))
		r.Post("/entries/{id}/replay", rt.authorize(rt.handler.DLQReplay))
		r.Delete("/entries/{id}", rt.authorize(rt.handler.DLQDelete))
	})

	// Retention administration.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(rt.chiMW.RateLimitCustom(RateLimitWrite))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(rt.authMW.Authenticate))
		r.Post("/prune", rt.authorize(rt.handler.Prune))
	})

	// WebSocket live stream. Compression is skipped for upgrades by the
	// compression middleware itself.
	r.With(chiMiddleware(rt.authMW.Authenticate)).Get("/api/v1/ws", rt.handler.WebSocket)

	// Prometheus metrics.
	r.Handle("/metrics", promhttp.Handler())

	if rt.swaggerEnable {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("list"),
			httpSwagger.DomID("swagger-ui"),
		))
	}

	return r
}
