package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheGetSetDelete(t *testing.T) {
	c, err := New(100, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	_, found := c.Get("uri:http://synapse.os/e/1")
	assert.False(t, found)

	c.Set("uri:http://synapse.os/e/1", []byte("42"))
	c.store.Wait()

	val, found := c.Get("uri:http://synapse.os/e/1")
	require.True(t, found)
	assert.Equal(t, []byte("42"), val)

	c.Delete("uri:http://synapse.os/e/1")
	c.store.Wait()
	_, found = c.Get("uri:http://synapse.os/e/1")
	assert.False(t, found)
}

func TestCacheGetOrCompute(t *testing.T) {
	c, err := New(100, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	val, err := c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("computed"), val)
	c.store.Wait()

	val, err = c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("computed"), val)
	assert.Equal(t, 1, calls, "second call should hit cache, not recompute")
}

func TestCacheStatsHitRate(t *testing.T) {
	c, err := New(100, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", []byte("1"))
	c.store.Wait()
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.InDelta(t, 0.5, stats["hit_rate"], 0.001)
}
