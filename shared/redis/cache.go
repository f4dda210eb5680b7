package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache is a JSON-backed Redis cache for read model projections of type
// T, keyed by entity id under a fixed prefix. A TTL of 0 keeps keys forever.
type ViewCache[T any] struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewViewCache[T any](client goredis.Cmdable, prefix string, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *ViewCache[T]) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

// Get returns (nil, false) on a miss or when the entry cannot be decoded.
func (c *ViewCache[T]) Get(ctx context.Context, id int64) (*T, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Debug("view cache read failed", zap.String("key", c.key(id)), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("view cache entry corrupt", zap.String("key", c.key(id)), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// Set stores value. Write failures are logged, never returned: a cold cache
// falls back to PostgreSQL.
func (c *ViewCache[T]) Set(ctx context.Context, id int64, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.String("key", c.key(id)), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", c.key(id)), zap.Error(err))
	}
}

// Delete removes the entries for ids.
func (c *ViewCache[T]) Delete(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("view cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
