package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	values map[string][]byte
	sets   int
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string][]byte{}}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.sets++
	c.values[key] = value
}

func TestFetchLoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	loads := 0
	load := func(context.Context) ([]byte, error) {
		loads++
		return []byte(`{"pageviews":42}`), nil
	}

	raw, err := Fetch(ctx, cache, "pageviews:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, `{"pageviews":42}`, string(raw))
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, cache.sets)

	raw, err = Fetch(ctx, cache, "pageviews:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, `{"pageviews":42}`, string(raw))
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, cache.sets)
}

func TestFetchLoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()

	_, err := Fetch(ctx, cache, "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	assert.Error(t, err)
	assert.Zero(t, cache.sets)
}

func TestNilRedisCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c *RedisCache

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", []byte("v"), time.Minute)

	// Fetch over a nil cache still serves the loader's value.
	raw, err := Fetch(ctx, c, "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(raw))
}
