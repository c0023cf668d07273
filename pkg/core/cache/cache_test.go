package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c := New[int](Config{MaxItems: 4, TTL: time.Minute})
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	hits, misses, rate := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.InDelta(t, 50.0, rate, 1e-12)

	c.Delete("a")
	assert.Equal(t, 0, c.Size())
}

func TestCacheExpiry(t *testing.T) {
	c := New[string](Config{MaxItems: 4, TTL: time.Minute})
	defer c.Close()

	c.SetWithTTL("short", "x", time.Millisecond)
	c.SetWithTTL("forever", "y", 0)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok, "expired entry returned")
	v, ok := c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	c.SetWithTTL("short", "x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	c.cleanup()
	assert.Equal(t, 1, c.Size())
}

func TestCacheEvictsOldest(t *testing.T) {
	c := New[int](Config{MaxItems: 2})
	defer c.Close()

	c.Set("first", 1)
	time.Sleep(time.Millisecond)
	c.Set("second", 2)
	time.Sleep(time.Millisecond)
	c.Set("second", 22) // overwrite does not evict
	assert.Equal(t, 2, c.Size())

	c.Set("third", 3)
	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("first")
	assert.False(t, ok, "oldest entry kept")
	v, _ := c.Get("second")
	assert.Equal(t, 22, v)
}

func TestGetOrSet(t *testing.T) {
	c := New[float64](DefaultConfig())
	defer c.Close()

	calls := 0
	fn := func() (float64, error) {
		calls++
		return 0.5, nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet("k", fn)
		require.NoError(t, err)
		assert.Equal(t, 0.5, v)
	}
	assert.Equal(t, 1, calls)

	_, err := c.GetOrSet("bad", func() (float64, error) { return 0, errors.New("diverged") })
	assert.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok, "error result cached")

	c.Clear()
	c.Close()
	c.Close() // idempotent
}

func TestResultCache(t *testing.T) {
	rc := NewResultCache[[]float64](DefaultConfig())
	defer rc.Close()

	rc.Set(3, 4, 8, "absolute", []float64{0.18, 0.49, 1.04})

	got, ok := rc.Get(3, 4, 8, "absolute")
	require.True(t, ok)
	assert.Len(t, got, 3)

	for _, miss := range []struct {
		k          int
		ymin, ymax float64
		norm       string
	}{
		{4, 4, 8, "absolute"},
		{3, 4, 8.000000000000002, "absolute"},
		{3, 4, 8, "relative"},
	} {
		_, ok := rc.Get(miss.k, miss.ymin, miss.ymax, miss.norm)
		assert.False(t, ok, "unexpected hit for %+v", miss)
	}

	stats := rc.Stats()
	assert.Equal(t, 1, stats["results_cache_size"])
	assert.Equal(t, int64(1), stats["results_hits"])
	assert.Equal(t, int64(3), stats["results_misses"])

	assert.NotEqual(t, ResultKey(1, 2, 3, "absolute"), ResultKey(1, 3, 2, "absolute"))
	rc.Clear()
	_, ok = rc.Get(3, 4, 8, "absolute")
	assert.False(t, ok)
}
