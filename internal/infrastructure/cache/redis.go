package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davsubmarine/airesearch/internal/config"
	"github.com/davsubmarine/airesearch/internal/domain"
	"github.com/davsubmarine/airesearch/internal/ports"
)

// RedisSummaryCache keeps recently generated summaries keyed by paper id so a
// retried enrichment pass does not pay for the generation API twice.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SummaryCache = (*RedisSummaryCache)(nil)

// NewRedisSummaryCache connects to the configured Redis instance.
func NewRedisSummaryCache(cfg config.CacheConfig) *RedisSummaryCache {
	return &RedisSummaryCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		ttl: cfg.TTL(),
	}
}

// Get returns the cached summary for a paper, or nil on a miss.
func (c *RedisSummaryCache) Get(ctx context.Context, paperID string) (*domain.Summary, error) {
	raw, err := c.client.Get(ctx, cacheKey(paperID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get %s: %w", paperID, err)
	}

	var summary domain.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return nil, nil
	}
	return &summary, nil
}

// Set stores one summary under its paper id.
func (c *RedisSummaryCache) Set(ctx context.Context, summary domain.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", summary.PaperID, err)
	}
	if err := c.client.Set(ctx, cacheKey(summary.PaperID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", summary.PaperID, err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

func cacheKey(paperID string) string {
	return "summary:" + paperID
}
