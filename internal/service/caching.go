package service

import (
	"context"
	"encoding/json"
	"time"

	"opensails/internal/cache"
)

const defaultCacheTTL = 5 * time.Minute

// Caching bundles the read-through cache and the invalidator used after
// committed writes. A zero value disables both.
type Caching struct {
	Client      *cache.Client
	Invalidator *cache.Invalidator
	TTL         time.Duration
}

func (c Caching) ttl() time.Duration {
	if c.TTL <= 0 {
		return defaultCacheTTL
	}
	return c.TTL
}

// readThrough serves key from the cache or fills it from load. Cache
// failures behave like a miss.
func readThrough[T any](ctx context.Context, c Caching, key string, load func() (T, error)) (T, error) {
	if data, _ := c.Client.Get(ctx, key); data != nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if payload, err := json.Marshal(value); err == nil {
		_ = c.Client.Set(ctx, key, payload, c.ttl())
	}
	return value, nil
}
