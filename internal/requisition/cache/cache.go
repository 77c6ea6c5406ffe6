// Package cache provides a Redis read-through cache for the donor discover
// feed. Entries are keyed by donor, page, and a generation counter that is
// bumped on every terminal transition, so invalidation never has to scan keys.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"lifelink/internal/platform/redis"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
)

const (
	keyPrefix     = "lifelink:discover"
	generationKey = keyPrefix + ":gen"
)

// DiscoverCache caches discover pages in Redis with a TTL.
type DiscoverCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds a discover cache. ttl must be positive.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) (*DiscoverCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	return &DiscoverCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns a cached page. A miss, a stale generation, or any Redis error
// all report !ok; the caller falls through to the store.
func (c *DiscoverCache) Get(ctx context.Context, donorID domain.DonorID, page, limit int) ([]requisition.Requisition, bool) {
	key, err := c.key(ctx, donorID, page, limit)
	if err != nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var out []requisition.Requisition
	if err := json.Unmarshal(raw, &out); err != nil {
		c.warn(ctx, "discarding undecodable cache entry", err)
		return nil, false
	}
	return out, true
}

// Set stores a page under the current generation. Failures are logged and
// swallowed; caching is best effort.
func (c *DiscoverCache) Set(ctx context.Context, donorID domain.DonorID, page, limit int, rs []requisition.Requisition) {
	key, err := c.key(ctx, donorID, page, limit)
	if err != nil {
		return
	}

	raw, err := json.Marshal(rs)
	if err != nil {
		c.warn(ctx, "failed to encode cache entry", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.warn(ctx, "failed to write cache entry", err)
	}
}

// Invalidate bumps the generation counter, orphaning every cached page.
// Orphaned entries age out via TTL.
func (c *DiscoverCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.warn(ctx, "failed to bump cache generation", err)
	}
}

func (c *DiscoverCache) key(ctx context.Context, donorID domain.DonorID, page, limit int) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s:%d:%d", keyPrefix, gen, donorID, page, limit), nil
}

func (c *DiscoverCache) warn(ctx context.Context, msg string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "error", err)
	}
}
