// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakePruner implements EventPruner, failing the first failCount calls
// with err before succeeding.
type fakePruner struct {
	calls     atomic.Int32
	failCount int32
	err       error
	pruned    int64
}

func (f *fakePruner) PruneEventsBefore(_ context.Context, _ time.Time) (int64, error) {
	call := f.calls.Add(1)
	if call <= f.failCount {
		return 0, f.err
	}
	return f.pruned, nil
}

func TestPrunerServicePrunesImmediatelyOnStart(t *testing.T) {
	pruner := &fakePruner{pruned: 42}
	svc := NewPrunerService(pruner, 400*24*time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for pruner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no prune ran on service start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestPrunerServiceRetriesTransientErrors(t *testing.T) {
	pruner := &fakePruner{
		failCount: 2,
		err:       errors.New("Transaction conflict: write-write conflict on events"),
	}
	svc := NewPrunerService(pruner, 400*24*time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Two transient failures back off one and two seconds before the
	// third attempt succeeds.
	deadline := time.After(10 * time.Second)
	for pruner.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("got %d prune attempts, want 3", pruner.calls.Load())
		case <-time.After(50 * time.Millisecond):
		}
	}

	select {
	case err := <-done:
		t.Fatalf("Serve returned %v after transient errors, want it to keep running", err)
	default:
	}
}

func TestPrunerServiceStopsOnNonTransientError(t *testing.T) {
	wantErr := errors.New("Binder Error: table events does not exist")
	pruner := &fakePruner{failCount: 100, err: wantErr}
	svc := NewPrunerService(pruner, 400*24*time.Hour, time.Hour)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, wantErr) {
			t.Errorf("Serve = %v, want %v", err, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return on non-transient error")
	}
	if got := pruner.calls.Load(); got != 1 {
		t.Errorf("prune attempts = %d, want 1 for non-transient error", got)
	}
}

func TestPrunerServiceGivesUpAfterRetryBudget(t *testing.T) {
	wantErr := errors.New("connection refused")
	pruner := &fakePruner{failCount: 100, err: wantErr}
	svc := NewPrunerService(pruner, 400*24*time.Hour, time.Hour)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	// One initial attempt plus three retries with growing backoff.
	select {
	case err := <-done:
		if !errors.Is(err, wantErr) {
			t.Errorf("Serve = %v, want %v", err, wantErr)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Serve did not return after exhausting retries")
	}
	if got := pruner.calls.Load(); got != 1+prunerMaxRetries {
		t.Errorf("prune attempts = %d, want %d", got, 1+prunerMaxRetries)
	}
}

func TestPrunerServiceDefaultInterval(t *testing.T) {
	svc := NewPrunerService(&fakePruner{}, 400*24*time.Hour, 0)
	if svc.interval != 12*time.Hour {
		t.Errorf("interval = %v, want 12h default", svc.interval)
	}
}

func TestPrunerServiceName(t *testing.T) {
	svc := NewPrunerService(&fakePruner{}, 400*24*time.Hour, time.Hour)
	if svc.String() != "retention-pruner" {
		t.Errorf("String() = %q, want retention-pruner", svc.String())
	}
}
