// Package cache is the in-process read cache for API responses. Every
// entry carries the ETag served with it, so conditional requests can be
// answered without rebuilding the payload. Coherence across processes
// comes from invalidation, not short TTLs: mutations drop the affected
// key families directly and via the database notification listener.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TTLs by read path. Live state moves every poll cycle, so it stays
// barely ahead of the scheduler tick; grids and winner lists can ride
// longer because mutations invalidate them explicitly.
const (
	TTLLiveState = 5 * time.Second
	TTLEventList = 30 * time.Second
	TTLPoolGrid  = 2 * time.Minute
	TTLWinners   = 15 * time.Second
	TTLLedger    = 15 * time.Second
)

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Cache maps response keys to their serialized bodies. A disabled
// cache accepts every call and stores nothing, so handlers never
// branch on configuration.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
}

// New creates a cache. A disabled cache runs no sweeper.
func New(enabled bool) *Cache {
	c := &Cache{entries: make(map[string]entry), enabled: enabled}
	if enabled {
		go c.sweepLoop()
	}
	return c
}

// Get returns the stored body and its ETag. Expired entries miss; the
// sweeper reclaims them later.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists || time.Now().After(e.expiresAt) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Set stores a body under the key and returns its ETag. The ETag is
// computed even when the cache is disabled so conditional responses
// keep working.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	c.entries[key] = entry{data: data, etag: etag, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return etag
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix removes every key under a prefix. Mutation handlers
// use this to drop all reads touching a pool or game in one call.
func (c *Cache) InvalidatePrefix(prefix string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// CacheStats is the health-endpoint view of the cache.
type CacheStats struct {
	Enabled     bool `json:"enabled"`
	TotalKeys   int  `json:"total_keys"`
	ActiveKeys  int  `json:"active_keys"`
	ExpiredKeys int  `json:"expired_keys"`
}

// Stats counts live and expired entries.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	st := CacheStats{Enabled: c.enabled, TotalKeys: len(c.entries)}
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			st.ActiveKeys++
		}
	}
	st.ExpiredKeys = st.TotalKeys - st.ActiveKeys
	return st
}

// sweepLoop reclaims expired entries so keys written once and never
// read again do not accumulate.
func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

// ComputeETag derives a weak ETag from the serialized body.
func ComputeETag(data []byte) string {
	sum := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}

// CheckETagMatch evaluates an If-None-Match header against the current
// ETag. Only exact and wildcard matches count; list syntax is not
// supported.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	switch ifNoneMatch {
	case "":
		return false
	case "*":
		return true
	}
	return ifNoneMatch == etag
}
