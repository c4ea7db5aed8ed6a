package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a read-through cache over redis. Values are stored as JSON.
// Entries are removed by explicit pattern invalidation (see Invalidate);
// the TTL is only a safety net, correctness does not depend on it.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func New(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// GetOrCompute returns the cached value for key, or invokes compute on a
// miss and stores the result. A redis read failure degrades to computing the
// value directly rather than failing the request.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		c.logger.WithField("key", key).Warn("Discarding undecodable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed, computing directly")
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to store cache entry")
	}

	return value, nil
}

// Invalidate removes every key matching the glob pattern. Deleting keys that
// are already gone is a no-op, so the operation is safe to re-run.
func (c *Cache) Invalidate(ctx context.Context, pattern string) (int64, error) {
	var removed int64

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan cache keys: %w", err)
	}

	return removed, nil
}
