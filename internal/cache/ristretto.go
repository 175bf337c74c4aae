// Package cache provides a hot in-memory read-through cache backed by
// Ristretto, used in front of the URI dictionary and the vector index's
// metadata lookups. There is no L2/Redis tier here: the spec has no
// requirement for a cache shared across processes, unlike the ingest lock
// in internal/lock which genuinely needs cross-process coordination.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
)

// Cache is a hot read-through cache for small serialized values keyed by
// string (uri->id entries, vector metadata blobs, SPARQL result pages).
type Cache struct {
	store     *ristretto.Cache[string, []byte]
	ttl       time.Duration
	maxCost   int64
	logger    *zap.Logger
	metrics   Metrics
	metricsMu sync.Mutex
}

// Metrics tracks cache performance.
type Metrics struct {
	Hits      int64
	Misses    int64
}

// New creates a hot cache with the given max cost (a budget on the total
// byte length of cached values, since Set charges len(value) per entry) and
// per-entry TTL. maxCost defaults to 10,000 and ttl to 5 minutes when zero.
func New(maxCost int64, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	if maxCost == 0 {
		maxCost = 10000
	}
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: create ristretto store: %w", err)
	}

	return &Cache{
		store:   store,
		ttl:     ttl,
		maxCost: maxCost,
		logger:  logger.Named("cache"),
	}, nil
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	val, found := c.store.Get(key)
	if found {
		c.recordHit()
		return val, true
	}
	c.recordMiss()
	return nil, false
}

// Set stores a value under key and schedules its expiry after the
// configured TTL.
func (c *Cache) Set(key string, data []byte) {
	c.store.SetWithTTL(key, data, int64(len(data)), c.ttl)
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.store.Del(key)
}

// GetOrCompute returns the cached value for key, computing and storing it
// via fn on a miss.
func (c *Cache) GetOrCompute(key string, fn func() ([]byte, error)) ([]byte, error) {
	if data, found := c.Get(key); found {
		return data, nil
	}
	data, err := fn()
	if err != nil {
		return nil, err
	}
	c.Set(key, data)
	return data, nil
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.store.Clear()
}

// Stats returns a snapshot of cache metrics.
func (c *Cache) Stats() map[string]interface{} {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()

	return map[string]interface{}{
		"max_cost":    c.maxCost,
		"hits":        c.metrics.Hits,
		"misses":      c.metrics.Misses,
		"hit_rate":    c.hitRate(),
		"ttl_seconds": c.ttl.Seconds(),
	}
}

func (c *Cache) hitRate() float64 {
	total := c.metrics.Hits + c.metrics.Misses
	if total == 0 {
		return 0
	}
	return float64(c.metrics.Hits) / float64(total)
}

func (c *Cache) recordHit() {
	c.metricsMu.Lock()
	c.metrics.Hits++
	c.metricsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.metricsMu.Lock()
	c.metrics.Misses++
	c.metricsMu.Unlock()
}

// ResetMetrics zeroes the hit/miss counters.
func (c *Cache) ResetMetrics() {
	c.metricsMu.Lock()
	c.metrics = Metrics{}
	c.metricsMu.Unlock()
}

// Close releases cache resources.
func (c *Cache) Close() error {
	c.store.Close()
	return nil
}
