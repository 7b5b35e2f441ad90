package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"equity-backtest/internal/model"
)

// CacheEntry represents a cached provider response.
type CacheEntry struct {
	Series    *model.Series
	ExpiresAt time.Time
}

// SeriesCache provides in-memory caching of fetched price series.
//
// ⚠️ WARNING: This cache is for LOCAL DEVELOPMENT ONLY.
//
// Caching provider responses may violate the provider's terms of use.
// Review them before enabling, and never enable in production.
// The cache is automatically disabled when API_ENV=production.
type SeriesCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
}

var globalCache *SeriesCache
var cacheOnce sync.Once

// GetCache returns the global cache instance if caching is enabled via
// ENABLE_PRICE_CACHE=true, or nil when disabled.
func GetCache() *SeriesCache {
	if os.Getenv("ENABLE_PRICE_CACHE") != "true" {
		return nil
	}
	if os.Getenv("API_ENV") == "production" {
		return nil
	}

	cacheOnce.Do(func() {
		ttl := 1 * time.Hour
		if ttlStr := os.Getenv("PRICE_CACHE_TTL"); ttlStr != "" {
			if parsed, err := time.ParseDuration(ttlStr); err == nil {
				ttl = parsed
			}
		}

		globalCache = &SeriesCache{
			store: make(map[string]*CacheEntry),
			ttl:   ttl,
		}

		go globalCache.cleanup()
	})

	return globalCache
}

// Get retrieves a cached series if available and not expired.
func (c *SeriesCache) Get(key string) (*model.Series, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Series, true
}

// Set stores a series in the cache.
func (c *SeriesCache) Set(key string, series *model.Series) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Series:    series,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache.
func (c *SeriesCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

func (c *SeriesCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.store {
			if now.After(entry.ExpiresAt) {
				delete(c.store, key)
			}
		}
		c.mu.Unlock()
	}
}

// GenerateCacheKey creates a deterministic cache key for one provider query.
func GenerateCacheKey(provider, symbol, interval string, start, end time.Time) string {
	keyStr := fmt.Sprintf("%s:%s:%s:%s:%s",
		provider,
		symbol,
		interval,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
