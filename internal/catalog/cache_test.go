package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheReadThrough(t *testing.T) {
	cache, mr := newTestCache(t)

	loads := 0
	loader := func(ctx context.Context) ([]Permission, error) {
		loads++
		return []Permission{{ID: 1, Name: "doc:read"}}, nil
	}

	perms, err := cache.Fetch(context.Background(), loader)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists("catalog:permissions"))

	// Second fetch must come from Redis.
	perms, err = cache.Fetch(context.Background(), loader)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, 1, loads)
}

func TestCacheFallsThroughWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	perms, err := cache.Fetch(context.Background(), func(ctx context.Context) ([]Permission, error) {
		return []Permission{{ID: 1, Name: "doc:read"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, perms, 1)
}

func TestCacheLoaderErrorPropagates(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Fetch(context.Background(), func(ctx context.Context) ([]Permission, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
}

func TestCacheNilClientDisablesCaching(t *testing.T) {
	var cache *Cache

	perms, err := cache.Fetch(context.Background(), func(ctx context.Context) ([]Permission, error) {
		return []Permission{{ID: 1, Name: "doc:read"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, perms, 1)
}

func TestCacheInvalidate(t *testing.T) {
	cache, mr := newTestCache(t)

	_, err := cache.Fetch(context.Background(), func(ctx context.Context) ([]Permission, error) {
		return []Permission{{ID: 1, Name: "doc:read"}}, nil
	})
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog:permissions"))

	require.NoError(t, cache.Invalidate(context.Background()))
	assert.False(t, mr.Exists("catalog:permissions"))
}
