package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// ResultCache memoizes solver results by order, interval and norm
type ResultCache[V any] struct {
	cache *Cache[V]
}

// NewResultCache creates a result cache
func NewResultCache[V any](cfg Config) *ResultCache[V] {
	return &ResultCache[V]{cache: New[V](cfg)}
}

// ResultKey generates a cache key from the exact bits of the interval, so
// only identical requests share an entry
func ResultKey(k int, ymin, ymax float64, norm string) string {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:], uint64(k))
	binary.BigEndian.PutUint64(buf[8:], math.Float64bits(ymin))
	binary.BigEndian.PutUint64(buf[16:], math.Float64bits(ymax))
	hash := sha256.Sum256(append(buf[:], norm...))
	return "result:" + hex.EncodeToString(hash[:16])
}

// Get retrieves a cached result
func (c *ResultCache[V]) Get(k int, ymin, ymax float64, norm string) (V, bool) {
	return c.cache.Get(ResultKey(k, ymin, ymax, norm))
}

// Set caches a result
func (c *ResultCache[V]) Set(k int, ymin, ymax float64, norm string, v V) {
	c.cache.Set(ResultKey(k, ymin, ymax, norm), v)
}

// Stats returns cache statistics
func (c *ResultCache[V]) Stats() map[string]interface{} {
	hits, misses, rate := c.cache.Stats()
	return map[string]interface{}{
		"results_cache_size": c.cache.Size(),
		"results_hits":       hits,
		"results_misses":     misses,
		"results_hit_rate":   rate,
	}
}

// Clear drops every cached result
func (c *ResultCache[V]) Clear() {
	c.cache.Clear()
}

// Close stops the cleanup goroutine
func (c *ResultCache[V]) Close() {
	c.cache.Close()
}
