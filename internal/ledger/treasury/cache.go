package treasury

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryCacheKey = "treasury:summary"

// SummaryCache keeps the balance summary in Redis so dashboard polling does
// not hit Postgres on every request. A nil client disables caching.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func (c *SummaryCache) Get(ctx context.Context) (Summary, bool) {
	if c == nil || c.client == nil {
		return Summary{}, false
	}
	payload, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

func (c *SummaryCache) Set(ctx context.Context, summary Summary) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	c.client.Set(ctx, summaryCacheKey, payload, c.ttl)
}

// Invalidate drops the cached summary after any balance change.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, summaryCacheKey)
}
