package delivery

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores geocode results. Implementations swallow their own errors.
type Cache interface {
	Get(ctx context.Context, query string) (Point, bool)
	Set(ctx context.Context, query string, p Point, ttl time.Duration)
}

type RedisCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisCache(addr, password string) *RedisCache {
	return &RedisCache{
		Client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		Prefix: "geocode:",
	}
}

func (c *RedisCache) key(query string) string {
	return c.Prefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *RedisCache) Get(ctx context.Context, query string) (Point, bool) {
	if c == nil || c.Client == nil {
		return Point{}, false
	}
	raw, err := c.Client.Get(ctx, c.key(query)).Result()
	if err != nil {
		return Point{}, false
	}
	var p Point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Point{}, false
	}
	return p, true
}

func (c *RedisCache) Set(ctx context.Context, query string, p Point, ttl time.Duration) {
	if c == nil || c.Client == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, c.key(query), raw, ttl).Err()
}

func (c *RedisCache) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
