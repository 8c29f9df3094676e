package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

const candleCacheKeyPrefix = "candles"

// CachedGateway wraps a Gateway with a Redis-backed candle cache. Any Redis
// error is treated as a cache miss and logged at Debug — it never fails the
// caller, matching the store's documented degrade-gracefully contract.
type CachedGateway struct {
	inner Gateway
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedGateway wraps inner with a Redis cache using the given TTL for
// each (symbol, interval) entry.
func NewCachedGateway(inner Gateway, rdb *redis.Client, ttl time.Duration) *CachedGateway {
	return &CachedGateway{inner: inner, rdb: rdb, ttl: ttl}
}

func candleCacheKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("%s:%s:%s:%d", candleCacheKeyPrefix, symbol, interval, limit)
}

// GetCandles serves from cache when available, else delegates to inner and
// populates the cache on success.
func (c *CachedGateway) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]pipeline.Candle, error) {
	key := candleCacheKey(symbol, interval, limit)

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var candles []pipeline.Candle
			if jsonErr := json.Unmarshal(raw, &candles); jsonErr == nil {
				return candles, nil
			}
			log.Debug().Str("key", key).Msg("candle cache entry corrupt, treating as miss")
		} else if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("candle cache read failed, falling through to gateway")
		}
	}

	candles, err := c.inner.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil && len(candles) > 0 {
		if raw, err := json.Marshal(candles); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				log.Debug().Err(err).Str("key", key).Msg("candle cache write failed, continuing without cache")
			}
		}
	}

	return candles, nil
}
