// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package auth

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

// Handlers provides HTTP handlers for login and session introspection.
type Handlers struct {
	jwtManager *JWTManager
	basicAuth  *BasicAuthManager
	lockout    *LockoutManager
	secLog     *logging.SecurityLogger
	middleware *Middleware
}

// NewHandlers creates the auth handler set. The lockout manager may be
// nil, in which case login throttling is disabled.
func NewHandlers(jwtManager *JWTManager, basicAuth *BasicAuthManager, lockout *LockoutManager, mw *Middleware) *Handlers {
	return &Handlers{
		jwtManager: jwtManager,
		basicAuth:  basicAuth,
		lockout:    lockout,
		secLog:     logging.NewSecurityLogger(),
		middleware: mw,
	}
}

// Login authenticates a username/password pair and issues a JWT.
// POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request: invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Bad request: username and password are required", http.StatusBadRequest)
		return
	}

	ip := h.middleware.getClientIP(r)
	userAgent := r.Header.Get("User-Agent")

	if h.lockout != nil {
		locked, remaining, err := h.lockout.CheckLocked(r.Context(), req.Username)
		if err != nil {
			logging.Error().Err(err).Msg("Lockout check failed")
		}
		if locked {
			writeLockoutResponse(w, remaining)
			return
		}
	}

	if !h.basicAuth.VerifyPassword(req.Username, req.Password) {
		h.secLog.LogLoginFailure(req.Username, ip, userAgent, "invalid credentials")

		if h.lockout != nil {
			locked, remaining, err := h.lockout.RecordFailedAttempt(r.Context(), req.Username, ip)
			if err != nil {
				logging.Error().Err(err).Msg("Failed to record login attempt")
			}
			if locked {
				h.secLog.LogLockout(req.Username, ip)
				writeLockoutResponse(w, remaining)
				return
			}
		}

		http.Error(w, "Unauthorized: invalid username or password", http.StatusUnauthorized)
		return
	}

	if h.lockout != nil {
		if err := h.lockout.RecordSuccessfulLogin(r.Context(), req.Username); err != nil {
			logging.Error().Err(err).Msg("Failed to clear lockout state")
		}
	}

	role := models.RoleAdmin // the only password-backed account is the admin
	token, err := h.jwtManager.GenerateToken(req.Username, role)
	if err != nil {
		logging.Error().Err(err).Msg("Token generation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.secLog.LogLoginSuccess(req.Username, req.Username, ip, userAgent)

	resp := models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.jwtManager.SessionTimeout()),
		Username:  req.Username,
		Role:      role,
		UserID:    req.Username,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode login response")
	}
}

// UserInfo returns information about the authenticated user.
// GET /api/v1/auth/userinfo
func (h *Handlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized: not authenticated", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"username": claims.Username,
		"role":     claims.Role,
	}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode userinfo response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Logout clears the token cookie. Tokens are stateless, so the client
// is expected to discard its copy.
// POST /api/v1/auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"message": "Logged out successfully",
	}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode logout response")
	}
}
