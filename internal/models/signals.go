// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package models

// Signal kind constants name the client lifecycle signals consumed by the
// session tracker. Clients post these from their navigation and document
// visibility hooks.
const (
	// SignalPageChange reports navigation to a new logical page.
	SignalPageChange = "page_change"

	// SignalHidden reports the document becoming hidden (tab switch,
	// minimize). Closes the open session.
	SignalHidden = "hidden"

	// SignalVisible reports the document becoming visible again. Reopens
	// a session on the last known page.
	SignalVisible = "visible"

	// SignalUnload reports the page unloading. Closes the open session.
	SignalUnload = "unload"
)

// SignalRequest is the request body for the activity signals endpoint.
// Page is required for page_change and ignored for the other kinds.
type SignalRequest struct {
	Kind string `json:"kind" validate:"required,oneof=page_change hidden visible unload"`
	Page string `json:"page" validate:"required_if=Kind page_change,omitempty,max=512"`
}

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz/policy.csv.
const (
	// RoleViewer is the default role with read-only access to own data.
	RoleViewer = "viewer"

	// RoleAdmin has full access including retention and DLQ management.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	OpenSessions      int     `json:"open_sessions"`
	Uptime            float64 `json:"uptime_seconds"`
}
