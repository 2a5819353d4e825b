package campaign

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const listCacheKey = "campaigns:list:v1"

// ListCache serves the campaign listing from Redis. Absent or unreadable
// entries fall through to the repository; cache failures never fail the
// request.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewListCache builds the listing cache. A nil client disables caching.
func NewListCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ListCache {
	return &ListCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached listing, reporting whether it was present.
func (c *ListCache) Get(ctx context.Context) ([]Campaign, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, listCacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("campaign list cache read failed", "error", err)
		}
		return nil, false
	}
	var campaigns []Campaign
	if err := json.Unmarshal([]byte(raw), &campaigns); err != nil {
		c.logger.Warn("campaign list cache decode failed", "error", err)
		return nil, false
	}
	return campaigns, true
}

// Set stores the listing, best effort.
func (c *ListCache) Set(ctx context.Context, campaigns []Campaign) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(campaigns)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listCacheKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("campaign list cache write failed", "error", err)
	}
}

// Invalidate drops the cached listing after a write.
func (c *ListCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, listCacheKey).Err(); err != nil {
		c.logger.Warn("campaign list cache invalidation failed", "error", err)
	}
}
