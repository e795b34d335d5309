// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package cache

import (
	"strings"
	"testing"
	"time"
)

func newTestCache(t *testing.T, opts Options) *Cache {
	t.Helper()
	c := New(opts)
	t.Cleanup(c.Stop)
	return c
}

func TestGetSetRoundTrip(t *testing.T) {
	c := newTestCache(t, Options{Name: "test", TTL: time.Minute})

	c.Set("key", "value")
	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if got.(string) != "value" {
		t.Errorf("Get() = %v, want value", got)
	}
}

func TestGetExpiredEntryIsMiss(t *testing.T) {
	c := newTestCache(t, Options{Name: "test", TTL: 10 * time.Millisecond})

	c.Set("key", "value")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("Get() hit on expired entry, want miss")
	}
}

func TestGetStaleServesExpiredWithinWindow(t *testing.T) {
	c := newTestCache(t, Options{
		Name:        "test",
		TTL:         10 * time.Millisecond,
		StaleMaxAge: time.Minute,
	})

	c.Set("key", "value")
	time.Sleep(20 * time.Millisecond)

	value, fresh, ok := c.GetStale("key")
	if !ok {
		t.Fatal("GetStale() miss, want stale hit")
	}
	if fresh {
		t.Error("GetStale() fresh = true, want false for expired entry")
	}
	if value.(string) != "value" {
		t.Errorf("GetStale() = %v, want value", value)
	}
}

func TestGetStaleFreshEntry(t *testing.T) {
	c := newTestCache(t, Options{Name: "test", TTL: time.Minute, StaleMaxAge: time.Minute})

	c.Set("key", "value")
	_, fresh, ok := c.GetStale("key")
	if !ok || !fresh {
		t.Errorf("GetStale() fresh=%v ok=%v, want true/true", fresh, ok)
	}
}

func TestGetStaleRejectsBeyondWindow(t *testing.T) {
	c := newTestCache(t, Options{
		Name:        "test",
		TTL:         5 * time.Millisecond,
		StaleMaxAge: 5 * time.Millisecond,
	})

	c.Set("key", "value")
	time.Sleep(25 * time.Millisecond)

	if _, _, ok := c.GetStale("key"); ok {
		t.Error("GetStale() served entry beyond stale window")
	}
}

func TestGetStaleDisabledWithoutWindow(t *testing.T) {
	c := newTestCache(t, Options{Name: "test", TTL: 5 * time.Millisecond})

	c.Set("key", "value")
	time.Sleep(15 * time.Millisecond)

	if _, _, ok := c.GetStale("key"); ok {
		t.Error("GetStale() served expired entry with stale reads disabled")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := newTestCache(t, Options{Name: "test", TTL: time.Minute})

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() hit after Delete()")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("Get() hit after Clear()")
	}
	if stats := c.GetStats(); stats.TotalKeys != 0 {
		t.Errorf("TotalKeys after Clear() = %d, want 0", stats.TotalKeys)
	}
}

func TestStatsAndHitRate(t *testing.T) {
	c := newTestCache(t, Options{Name: "test", TTL: time.Minute})

	c.Set("key", "value")
	c.Get("key")    // hit
	c.Get("absent") // miss

	stats := c.GetStats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if rate := c.HitRate(); rate != 50.0 {
		t.Errorf("HitRate() = %v, want 50.0", rate)
	}
}

func TestCleanupEvictsBeyondStaleWindow(t *testing.T) {
	c := newTestCache(t, Options{
		Name:        "test",
		TTL:         time.Millisecond,
		StaleMaxAge: time.Millisecond,
	})

	c.Set("key", "value")
	time.Sleep(10 * time.Millisecond)
	c.cleanup()

	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("TotalKeys after cleanup = %d, want 0", stats.TotalKeys)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		UserID string
		Window string
	}

	k1 := GenerateKey("summary", params{UserID: "u1", Window: "week"})
	k2 := GenerateKey("summary", params{UserID: "u1", Window: "week"})
	k3 := GenerateKey("summary", params{UserID: "u2", Window: "week"})

	if k1 != k2 {
		t.Error("GenerateKey() not deterministic for equal params")
	}
	if k1 == k3 {
		t.Error("GenerateKey() collision for different params")
	}
	if !strings.HasPrefix(k1, "summary:") {
		t.Errorf("GenerateKey() = %q, want summary: prefix", k1)
	}
}
