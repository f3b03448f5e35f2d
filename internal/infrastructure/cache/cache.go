// Package cache keeps recent analysis results in Redis so repeated lookups
// for the same property and evaluation day skip recomputation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/metrics"
)

// ResultCache stores OpportunityResult snapshots keyed by property and
// evaluation day. Results are calendar-sensitive, so the key includes the
// date: a cached December read must never serve a January request. Entries
// are the tenant-neutral analysis; callers personalize after reading, so
// one cached property can serve any tenant on the same day.
type ResultCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Registry
}

// New builds a cache over an existing Redis client. The metrics registry
// may be nil.
func New(client *redis.Client, ttl time.Duration, reg *metrics.Registry) *ResultCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &ResultCache{client: client, ttl: ttl, metrics: reg}
}

// Key builds the cache key for a property at an evaluation time.
func Key(propertyID string, asOf time.Time) string {
	return fmt.Sprintf("leaselens:result:%s:%s", propertyID, asOf.Format("2006-01-02"))
}

// Get returns the cached result for propertyID at asOf, or (nil, nil) on a
// miss. Transport errors are returned, not swallowed, so callers can decide
// whether to degrade.
func (c *ResultCache) Get(ctx context.Context, propertyID string, asOf time.Time) (*negotiation.OpportunityResult, error) {
	data, err := c.client.Get(ctx, Key(propertyID, asOf)).Bytes()
	if err == redis.Nil {
		if c.metrics != nil {
			c.metrics.CacheMisses.Inc()
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", propertyID, err)
	}

	var result negotiation.OpportunityResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		log.Warn().Str("property_id", propertyID).Err(err).Msg("Discarding corrupt cache entry")
		if c.metrics != nil {
			c.metrics.CacheMisses.Inc()
		}
		return nil, nil
	}

	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
	return &result, nil
}

// Set stores a result under its property/day key with the cache TTL.
func (c *ResultCache) Set(ctx context.Context, result negotiation.OpportunityResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", result.PropertyID, err)
	}
	if err := c.client.Set(ctx, Key(result.PropertyID, result.EvaluatedAt), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", result.PropertyID, err)
	}
	return nil
}
