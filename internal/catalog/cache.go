package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "catalog:permissions"

// Cache is a Redis read-through cache holding the full permission catalog.
// The catalog is immutable within a deploy, so a TTL-bounded copy cannot go
// stale in a way that matters. Role data is never cached here.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Fetch loads the cached catalog or populates it using the loader.
// Redis failures fall through to the loader.
func (c *Cache) Fetch(ctx context.Context, loader func(context.Context) ([]Permission, error)) ([]Permission, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var perms []Permission
		if err := json.Unmarshal(raw, &perms); err == nil {
			return perms, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	perms, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(perms); err == nil {
		_ = c.client.Set(ctx, cacheKey, data, c.ttl).Err()
	}
	return perms, nil
}

// Invalidate drops the cached catalog, used after reseeding.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey).Err()
}
