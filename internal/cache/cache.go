// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package cache provides a thread-safe in-memory cache with TTL support
// and stale reads. Summaries and stats are cached briefly to absorb
// repeated reads; when the database is unavailable, an expired entry
// within the stale window can still be served, flagged as stale.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
)

// Entry represents a cached item with expiration
type Entry struct {
	Data      interface{}
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Cache provides a thread-safe in-memory cache with TTL support
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	name        string
	ttl         time.Duration
	staleMaxAge time.Duration
	stats       Stats

	stopOnce sync.Once
	stop     chan struct{}
}

// Stats tracks cache performance metrics
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	StaleServed int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Options configures a cache instance.
type Options struct {
	// Name identifies the cache in metrics (e.g. "summary", "stats").
	Name string

	// TTL is the default freshness window for entries.
	TTL time.Duration

	// StaleMaxAge is how long past expiry an entry may still be served
	// as stale. Zero disables stale reads.
	StaleMaxAge time.Duration

	// CleanupInterval is how often expired entries are evicted.
	// Defaults to 5 minutes.
	CleanupInterval time.Duration
}

// New creates a cache with the given options and starts the background
// cleanup goroutine. Call Stop to shut the cleanup goroutine down.
func New(opts Options) *Cache {
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}

	c := &Cache{
		entries:     make(map[string]Entry),
		name:        name,
		ttl:         opts.TTL,
		staleMaxAge: opts.StaleMaxAge,
		stats: Stats{
			LastCleanup: time.Now(),
		},
		stop: make(chan struct{}),
	}

	go c.cleanupLoop(cleanupInterval)

	return c
}

// Get retrieves a fresh value from the cache by key. Expired entries
// are treated as misses; they are retained for stale reads and removed
// by the cleanup loop once past the stale window.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(entry.ExpiresAt) {
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// GetStale retrieves a value even if expired, as long as it is within
// the stale window. The second return value reports whether the entry
// is still fresh.
func (c *Cache) GetStale(key string) (value interface{}, fresh bool, ok bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false, false
	}

	now := time.Now()
	if !now.After(entry.ExpiresAt) {
		c.recordHit()
		return entry.Data, true, true
	}

	if c.staleMaxAge > 0 && now.Sub(entry.StoredAt) <= c.ttl+c.staleMaxAge {
		c.stats.mu.Lock()
		c.stats.StaleServed++
		c.stats.mu.Unlock()
		metrics.CacheStaleServed.WithLabelValues(c.name).Inc()
		return entry.Data, false, true
	}

	c.recordMiss()
	return nil, false, false
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(total))
}

// Delete removes a specific cache entry by key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.recordEviction()
}

// Clear removes all entries from the cache in a single atomic operation.
// Typically called after bulk data changes so clients receive fresh data.
func (c *Cache) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(0)
}

// GetStats returns a snapshot of current cache performance statistics.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		StaleServed: c.stats.StaleServed,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Stop terminates the background cleanup goroutine. Safe to call more
// than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// cleanupLoop periodically removes entries past the stale window
func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes all entries that can no longer be served, fresh or stale
func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()

	evictions := int64(0)
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt.Add(c.staleMaxAge)) {
			delete(c.entries, key)
			evictions++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = total
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(total))
	if evictions > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(evictions))
	}
}

// recordHit increments the hit counter
func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

// recordMiss increments the miss counter
func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

// recordEviction increments the eviction counter
func (c *Cache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
}

// GenerateKey creates a cache key from the method name and parameters
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	// Hash the JSON data for a compact key
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
