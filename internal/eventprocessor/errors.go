// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package eventprocessor

import "errors"

var (
	// ErrInvalidEnvelope marks a malformed or out-of-range envelope.
	// Errors wrapping it are permanent and go straight to the poison
	// queue instead of the retry loop.
	ErrInvalidEnvelope = errors.New("invalid activity envelope")

	// ErrPipelineClosed is returned when publishing through a pipeline
	// that has already shut down.
	ErrPipelineClosed = errors.New("ingest pipeline is closed")

	// ErrNotBuilt is returned by the stub constructors when the binary
	// was compiled without the nats build tag.
	ErrNotBuilt = errors.New("event ingest not available: build with -tags=nats")
)
