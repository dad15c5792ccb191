// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package cache provides a small in-process TTL cache used for search
// results, dashboard statistics, and verified auth tokens. Each instance
// owns its own lock and bounds; there is no shared global cache and no
// background sweeper. Expired entries are dropped lazily on read, and a
// full instance evicts its oldest entry on write.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// entry holds the serialized value plus the timestamps eviction and
// expiry work from. Values are stored as JSON bytes so every Get hands
// back an independent copy; callers can mutate results freely without
// corrupting the cached snapshot.
type entry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of a cache instance's counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`
}

// Cache is a fixed-capacity TTL cache keyed by string. The zero value is
// not usable; construct with New.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int

	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// New returns a cache holding at most maxEntries values, each valid for
// ttl after its Put. A non-positive maxEntries falls back to 1 so the
// cache degrades to single-entry rather than unbounded.
func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[V]{
		entries:    make(map[string]entry, maxEntries),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the value stored under key, if present and unexpired.
// The returned value is a fresh copy decoded from the stored snapshot.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.expired++
		c.misses++
		c.mu.Unlock()
		return zero, false
	}
	c.hits++
	data := e.data
	c.mu.Unlock()

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		// A snapshot that no longer decodes is unusable; treat as a miss.
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, false
	}
	return v, true
}

// Put stores value under key, replacing any existing entry. When the
// cache is full the entry with the oldest store time is evicted first.
// Values that cannot be serialized are silently not cached; the caller's
// slow path still produced a correct result.
func (c *Cache[V]) Put(key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{
		data:      data,
		storedAt:  now,
		expiresAt: now.Add(c.ttl),
	}
}

// Invalidate removes a single key. Removing an absent key is a no-op.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry but keeps the counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry, c.maxEntries)
	c.mu.Unlock()
}

// Len reports the number of stored entries, including any that have
// expired but not yet been read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the instance counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
}

// evictOldestLocked removes the entry with the earliest store time.
// Linear scan is fine at the capacities these caches run with.
func (c *Cache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Key derives a fixed-length cache key from the given parts. Parts are
// joined with an unlikely separator and hashed, so raw query text and
// token material never sit in memory as map keys.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}
