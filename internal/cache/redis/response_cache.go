package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pricescope/internal/pricer"
)

const keyPrefix = "prices:"

// ResponseCache is the redis-backed response cache, used when several
// dashboard replicas should share one validity window. Values are stored as
// JSON with the window as the key TTL.
type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewResponseCache connects to redis at addr and verifies the connection.
func NewResponseCache(ctx context.Context, addr string, ttl time.Duration, logger *zap.Logger) (*ResponseCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	return &ResponseCache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// Close releases the redis connection.
func (c *ResponseCache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached price map for key, or false if absent, expired, or
// unreadable. Redis trouble degrades to a miss; a rerun of the pipeline is
// always safe.
func (c *ResponseCache) Get(ctx context.Context, key string) (map[string]float64, bool) {
	payload, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("redis cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var prices map[string]float64
	if err := json.Unmarshal(payload, &prices); err != nil {
		c.logger.Debug("redis cache payload invalid", zap.Error(err))
		return nil, false
	}
	return prices, true
}

// Set stores the price map under key for the validity window.
func (c *ResponseCache) Set(ctx context.Context, key string, prices map[string]float64) {
	payload, err := json.Marshal(prices)
	if err != nil {
		c.logger.Warn("redis cache payload marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache write failed", zap.Error(err))
	}
}

var _ pricer.ResponseCache = (*ResponseCache)(nil)
