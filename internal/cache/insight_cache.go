// internal/cache/insight_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tobihealthops/requiva-go/internal/config"
)

const (
	insightKeyPrefix     = "insights"
	insightScanBatchSize = 100
)

// InsightCache stores serialized analytics results keyed by component
// and dataset content hash. Because the hash pins the exact snapshot,
// entries never go stale, TTL just bounds memory.
type InsightCache interface {
	Get(ctx context.Context, component, datasetHash string, params string, dest interface{}) (bool, error)
	Set(ctx context.Context, component, datasetHash string, params string, value interface{}) error
	InvalidateAll(ctx context.Context) error
}

type redisInsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopInsightCache struct{}

func NewInsightCache(cfg config.CacheConfig) (InsightCache, error) {
	if !cfg.Enabled {
		return &noopInsightCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisInsightCache{client: client, ttl: ttl}, nil
}

func NewNoopInsightCache() InsightCache {
	return &noopInsightCache{}
}

func (c *redisInsightCache) Get(ctx context.Context, component, datasetHash, params string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, buildInsightKey(component, datasetHash, params)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s insight cache: %w", component, err)
	}
	return true, nil
}

func (c *redisInsightCache) Set(ctx context.Context, component, datasetHash, params string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s insight cache: %w", component, err)
	}

	if err := c.client.Set(ctx, buildInsightKey(component, datasetHash, params), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInsightCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, insightKeyPrefix+":", insightScanBatchSize)
}

func (n *noopInsightCache) Get(ctx context.Context, component, datasetHash, params string, dest interface{}) (bool, error) {
	return false, nil
}

func (n *noopInsightCache) Set(ctx context.Context, component, datasetHash, params string, value interface{}) error {
	return nil
}

func (n *noopInsightCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildInsightKey(component, datasetHash, params string) string {
	if params == "" {
		return fmt.Sprintf("%s:%s:%s", insightKeyPrefix, component, datasetHash)
	}
	return fmt.Sprintf("%s:%s:%s:%s", insightKeyPrefix, component, datasetHash, params)
}
