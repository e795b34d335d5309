// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps the validator library in a thread-safe singleton with
// human-readable error translation and conversion to the API's
// VALIDATION_ERROR response format.
//
// # Quick Start
//
//	type SignalRequest struct {
//	    Kind string `validate:"required,oneof=page_change hidden visible unload"`
//	    Page string `validate:"required_if=Kind page_change,omitempty,max=512"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req SignalRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//	}
//
// # Error Message Translation
//
// Human-readable messages are generated for common validation tags:
//
//	required    -> "Kind is required"
//	oneof=a b   -> "Kind must be one of: a b"
//	max=512     -> "Page must be at most 512 characters"
//	gte=1       -> "Limit must be greater than or equal to 1"
//	required_if -> "Page is required for this signal kind"
//
// # Thread Safety
//
// The singleton validator is initialized once, caches struct reflection
// information, and is safe for concurrent use.
package validation
