// Package cache stores computed regime comparisons so repeated requests for
// the same income and deductions skip the slab arithmetic.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a string key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	now        func() time.Time
	writes     int
	sweepEvery int
}

// defaultSweepEvery is how many writes pass between sweeps of expired entries.
const defaultSweepEvery = 256

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		now:        time.Now,
		sweepEvery: defaultSweepEvery,
	}
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !entry.expired(m.now()) {
		return entry.value, true, nil
	}

	// A concurrent Set may have refreshed the key since the read lock was released.
	m.mu.Lock()
	if current, ok := m.entries[key]; ok && current.expired(m.now()) {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return "", false, nil
}

// Set stores value under key. A ttl of 0 never expires. Every sweepEvery
// writes, expired entries are dropped so unread keys do not accumulate.
func (m *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	now := m.now()
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry
	m.writes++
	if m.sweepEvery > 0 && m.writes%m.sweepEvery == 0 {
		for k, e := range m.entries {
			if e.expired(now) {
				delete(m.entries, k)
			}
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error {
	return nil
}
