package remote

import (
	"context"
	"sync"
	"time"

	"inventory-agent/core/model"

	"golang.org/x/sync/singleflight"
)

// cacheEntry holds one lookup result. A nil record caches "absent".
type cacheEntry struct {
	// Record is the fetched record, nil when the device does not exist.
	Record *model.RemoteRecord

	// Built is the timestamp when this entry was fetched.
	Built time.Time
}

// isExpired returns true if this entry has expired based on ttl.
func (e cacheEntry) isExpired(ttl time.Duration) bool {
	if ttl == 0 {
		return true // No caching
	}
	return time.Since(e.Built) > ttl
}

// lookupCache stores lookups keyed by identity.
// Concurrent lookups for the same identity share one request.
type lookupCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	sf      singleflight.Group
	ttl     time.Duration
}

func newLookupCache(ttl time.Duration) *lookupCache {
	return &lookupCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// getOrLoad returns the cached record for identity, or loads it if the
// entry is missing or expired. Errors are never cached.
func (c *lookupCache) getOrLoad(ctx context.Context, identity string, load func(context.Context) (*model.RemoteRecord, error)) (*model.RemoteRecord, error) {
	// Fast path: check if entry exists and is fresh
	c.mu.RLock()
	entry, exists := c.entries[identity]
	c.mu.RUnlock()

	if exists && !entry.isExpired(c.ttl) {
		return entry.Record, nil
	}

	// Slow path: load using singleflight to prevent stampedes
	result, err, _ := c.sf.Do(identity, func() (interface{}, error) {
		c.mu.RLock()
		entry, exists := c.entries[identity]
		c.mu.RUnlock()

		if exists && !entry.isExpired(c.ttl) {
			return entry.Record, nil
		}

		record, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[identity] = cacheEntry{Record: record, Built: time.Now()}
			c.mu.Unlock()
		}
		return record, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*model.RemoteRecord), nil
}

// invalidate drops every entry.
func (c *lookupCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
