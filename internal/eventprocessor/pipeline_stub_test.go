// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

//go:build !nats

package eventprocessor

import (
	"context"
	"errors"
	"testing"
)

func TestPipelineStubWithoutNATSTag(t *testing.T) {
	if _, err := NewPipeline(DefaultPipelineConfig(), nil, nil); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("NewPipeline = %v, want ErrNotBuilt", err)
	}

	var p Pipeline
	if err := p.Start(context.Background()); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Start = %v, want ErrNotBuilt", err)
	}
	if p.IsRunning() {
		t.Error("stub pipeline reports running")
	}
	p.Shutdown(context.Background())
}
