package ephemeris

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gnomonworks/sundial-forge/model"
)

// DefaultCacheSize bounds the cache at roughly a month of quarter-hour
// sweeps for a handful of sites.
const DefaultCacheSize = 4096

// cacheKey quantizes a query: coordinates to 1e-4 deg (about 11 m),
// time to the minute. The sun moves a quarter arc-minute per minute,
// well inside the validator tiers.
type cacheKey struct {
	lat, lon int64
	minute   int64
}

func keyFor(loc model.Location, t time.Time) cacheKey {
	return cacheKey{
		lat:    int64(math.Round(loc.Latitude * 1e4)),
		lon:    int64(math.Round(loc.Longitude * 1e4)),
		minute: t.UTC().Unix() / 60,
	}
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

// Cache fronts a Source with a bounded position cache. Day sweeps ask
// for the same instants over and over when grading several candidate
// builds for one site; the cache collapses those to one solar
// computation each. Eviction is insertion-ordered.
type Cache struct {
	inner Source
	max   int

	mu        sync.RWMutex
	entries   map[cacheKey]model.SunPosition
	order     []cacheKey
	hits      int64
	misses    int64
	evictions int64
}

// NewCache wraps inner with a cache of the given capacity; capacities
// below 1 use the default.
func NewCache(inner Source, capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		inner:   inner,
		max:     capacity,
		entries: make(map[cacheKey]model.SunPosition, capacity),
		order:   make([]cacheKey, 0, capacity),
	}
}

// SunAt implements Source.
func (c *Cache) SunAt(ctx context.Context, loc model.Location, t time.Time) (model.SunPosition, error) {
	key := keyFor(loc, t)

	c.mu.RLock()
	pos, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.recordHit()
		return pos, nil
	}

	pos, err := c.inner.SunAt(ctx, loc, t)
	if err != nil {
		return model.SunPosition{}, err
	}
	c.recordMiss()

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
			c.evictions++
		}
		c.entries[key] = pos
		c.order = append(c.order, key)
	}
	c.mu.Unlock()
	return pos, nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
		Capacity:  c.max,
	}
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
