// Package cache holds the short-lived Redis cache for availability
// listings. A read may serve a slightly stale snapshot within the TTL;
// every booking write invalidates the affected (room, date) key so a
// confirmed booking is never reported free after the write is
// acknowledged.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"frontdesk/internal/metrics"
)

// AvailabilityCache caches serialized availability responses per
// (room, date). Nil-safe: a nil cache disables caching entirely.
type AvailabilityCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func New(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *AvailabilityCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &AvailabilityCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func key(roomID int64, date string) string {
	return fmt.Sprintf("availability:%d:%s", roomID, date)
}

// Get returns the cached payload for (room, date), if present.
func (c *AvailabilityCache) Get(ctx context.Context, roomID int64, date string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key(roomID, date)).Bytes()
	if err == redis.Nil {
		metrics.IncCache("miss")
		return nil, false
	}
	if err != nil {
		metrics.IncCache("error")
		c.logger.Warn().Err(err).Msg("cache get failed")
		return nil, false
	}
	metrics.IncCache("hit")
	return data, true
}

// Set stores the payload; failures are logged and swallowed, the cache is
// best-effort.
func (c *AvailabilityCache) Set(ctx context.Context, roomID int64, date string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key(roomID, date), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache set failed")
	}
}

// Invalidate drops the cached listing after a booking write.
func (c *AvailabilityCache) Invalidate(ctx context.Context, roomID int64, date string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(roomID, date)).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache invalidate failed")
	}
}
