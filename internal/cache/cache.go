package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a JSON-backed Redis cache bound to one value type. A zero ttl keeps
// keys until they are deleted.
type ViewCache[T any] struct {
	client goredis.Cmdable
	ttl    time.Duration
	log    *slog.Logger
}

func NewViewCache[T any](client goredis.Cmdable, ttl time.Duration, log *slog.Logger) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl, log: log}
}

// Get returns (nil, false) on any miss, connection error or decode error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("view cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn("view cache decode failed", "key", key, "err", err)
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Write failures are logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("view cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("view cache write failed", "key", key, "err", err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("view cache delete failed", "key", key, "err", err)
	}
}
