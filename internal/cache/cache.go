// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package cache provides the TTL cache and single-flight layer shared by the
// catalog client and the palette engine.
//
// Two instances exist at runtime: a short-TTL cache for raw catalog lookups
// and color samples, and a longer-TTL cache memoizing whole computed palettes
// per (listener, window) key. Both guarantee at most one in-flight computation
// per key: a second caller for the same key attaches to the first caller's
// pending result instead of issuing duplicate upstream work.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// Entry is one cached value. InsertedAt drives capacity eviction (oldest
// insertion first, not strict LRU); ExpiresAt drives TTL expiry.
type Entry struct {
	Data       interface{}
	InsertedAt time.Time
	ExpiresAt  time.Time
}

// Stats tracks cache effectiveness for the health endpoint.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int64
}

// Cache is a thread-safe in-memory cache with TTL expiry, a capacity bound,
// and per-key request coalescing via GetOrCompute.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	ttl      time.Duration
	capacity int

	statsMu sync.Mutex
	stats   Stats

	group singleflight.Group

	stopOnce sync.Once
	stop     chan struct{}
}

// cleanupInterval is how often the background sweep removes expired entries.
// Expired entries are also dropped opportunistically on Get.
const cleanupInterval = time.Minute

// New creates a cache whose entries expire after ttl and which holds at most
// capacity entries, evicting the oldest-inserted entries when over the bound.
// A background sweep runs until Close is called.
func New(ttl time.Duration, capacity int) *Cache {
	c := &Cache{
		entries:  make(map[string]Entry),
		ttl:      ttl,
		capacity: capacity,
		stop:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEviction(1)
		return nil, false
	}
	c.recordHit()
	return entry.Data, true
}

// Set stores value under key, evicting oldest-inserted entries if the
// capacity bound is exceeded.
func (c *Cache) Set(key string, value interface{}) {
	now := time.Now()

	c.mu.Lock()
	c.entries[key] = Entry{
		Data:       value,
		InsertedAt: now,
		ExpiresAt:  now.Add(c.ttl),
	}
	evicted := c.evictOverCapacityLocked()
	c.mu.Unlock()

	if evicted > 0 {
		c.recordEviction(int64(evicted))
	}
}

// GetOrCompute returns the cached value for key, or runs compute exactly once
// to produce it. Concurrent callers for the same key share the single pending
// computation; different keys compute fully in parallel. A failed computation
// caches nothing, so the next caller retries.
func (c *Cache) GetOrCompute(key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A previous holder of this flight may have published meanwhile.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, err
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of the hit/miss/eviction counters.
func (c *Cache) Snapshot() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	s := c.stats
	s.Keys = int64(c.Len())
	return s
}

// Close stops the background cleanup sweep.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// evictOverCapacityLocked removes oldest-inserted entries until the cache is
// within capacity. Caller must hold the write lock.
func (c *Cache) evictOverCapacityLocked() int {
	if c.capacity <= 0 {
		return 0
	}
	evicted := 0
	for len(c.entries) > c.capacity {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.InsertedAt.Before(oldest) {
				oldestKey = k
				oldest = e.InsertedAt
			}
		}
		delete(c.entries, oldestKey)
		evicted++
	}
	return evicted
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	now := time.Now()
	removed := int64(0)

	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.recordEviction(removed)
	}
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func (c *Cache) recordEviction(n int64) {
	c.statsMu.Lock()
	c.stats.Evictions += n
	c.statsMu.Unlock()
}

// GenerateKey builds a deterministic cache key from arbitrary parts by
// hashing their JSON encoding. Keys are stable across processes for
// JSON-stable inputs.
func GenerateKey(parts ...interface{}) string {
	data, err := json.Marshal(parts)
	if err != nil {
		// Fall back to the formatted value; only non-serializable parts
		// (channels, funcs) can land here and callers never pass those.
		data = []byte(fmt.Sprintf("%v", parts))
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:16])
}
