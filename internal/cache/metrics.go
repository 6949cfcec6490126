package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seodash/seodash/internal/model"
)

// Cache key prefixes and TTLs.
const (
	metricsKeyPrefix      = "metrics:"
	metricsIndexKeyPrefix = "metrics:index:"

	// DefaultMetricsTTL is the TTL for cached metrics responses.
	DefaultMetricsTTL = 5 * time.Minute
)

// MetricsKey builds the cache key for a website's metrics window.
// The day component keeps a cached "last N days" window from outliving its day.
func MetricsKey(websiteID int64, days int, day model.Date) string {
	return metricsKeyPrefix + strconv.FormatInt(websiteID, 10) + ":" + strconv.Itoa(days) + ":" + day.String()
}

// metricsIndexKey tracks every metrics key written for a website.
func metricsIndexKey(websiteID int64) string {
	return metricsIndexKeyPrefix + strconv.FormatInt(websiteID, 10)
}

// GetMetrics retrieves a cached metrics window.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetMetrics(ctx context.Context, websiteID int64, days int, day model.Date) ([]model.MetricSample, error) {
	data, err := c.client.Get(ctx, MetricsKey(websiteID, days, day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var samples []model.MetricSample
	if err := json.Unmarshal(data, &samples); err != nil {
		// Corrupt entry: treat as a miss, it will be overwritten.
		return nil, ErrCacheMiss
	}

	return samples, nil
}

// SetMetrics stores a metrics window with the given TTL.
func (c *Cache) SetMetrics(ctx context.Context, websiteID int64, days int, day model.Date, samples []model.MetricSample, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMetricsTTL
	}

	data, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	key := MetricsKey(websiteID, days, day)
	indexKey := metricsIndexKey(websiteID)

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, indexKey, key)
	pipe.Expire(ctx, indexKey, ttl+time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache metrics: %w", err)
	}

	return nil
}

// InvalidateMetrics drops every cached window of a website.
func (c *Cache) InvalidateMetrics(ctx context.Context, websiteID int64) error {
	indexKey := metricsIndexKey(websiteID)

	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read metrics index: %w", err)
	}

	keys = append(keys, indexKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate metrics: %w", err)
	}

	return nil
}
