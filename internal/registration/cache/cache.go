package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-events/internal/logger"
)

const spotsKeyPrefix = "event_spots:"

// DefaultTTL keeps spots counts fresh enough for the public event page while
// shielding the database from repeated counts.
const DefaultTTL = 30 * time.Second

// Client is the slice of the redis API the cache uses. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SpotsCache caches the approved-attendee count per event in Redis. A miss
// or any Redis failure falls back to the database count; the cache is never
// consulted inside a registration transaction.
type SpotsCache struct {
	Client Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewSpotsCache(client Client, log *logger.Logger) *SpotsCache {
	return &SpotsCache{Client: client, TTL: DefaultTTL, Logger: log}
}

func (c *SpotsCache) GetSpotsUsed(ctx context.Context, eventID string) (int, bool) {
	val, err := c.Client.Get(ctx, spotsKeyPrefix+eventID).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Spots cache read failed for event %s: %v", eventID, err))
		return 0, false
	}

	used, err := strconv.Atoi(val)
	if err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Spots cache held garbage for event %s: %q", eventID, val))
		return 0, false
	}
	return used, true
}

func (c *SpotsCache) SetSpotsUsed(ctx context.Context, eventID string, used int) {
	if err := c.Client.Set(ctx, spotsKeyPrefix+eventID, used, c.TTL).Err(); err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Spots cache write failed for event %s: %v", eventID, err))
	}
}

func (c *SpotsCache) Invalidate(ctx context.Context, eventID string) {
	if err := c.Client.Del(ctx, spotsKeyPrefix+eventID).Err(); err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Spots cache invalidation failed for event %s: %v", eventID, err))
	}
}
