// Package cache is a fail-safe Redis cache: an unreachable Redis behaves like a cache miss
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps redis.Client and swallows connectivity errors
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a cache on top of an existing Redis client
func New(client *redis.Client, logger *zap.Logger) *Client {
	return &Client{client: client, logger: logger}
}

// Get returns the value, or nil if it is missing or Redis is unavailable
func (c *Client) Get(ctx context.Context, key string) []byte {
	if c == nil || c.client == nil {
		return nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return res
}

// Set stores the value with a TTL, ignoring Redis errors
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys, ignoring Redis errors
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// GetJSON decodes a cached JSON value into dest. Returns false on a miss or a corrupt entry.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) bool {
	data := c.Get(ctx, key)
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores value encoded as JSON
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value is not encodable", zap.String("key", key), zap.Error(err))
		return
	}
	c.Set(ctx, key, data, ttl)
}
