package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "beacon/pkg/domain"
)

const displayNameKeyPrefix = "beacon:display_name:"

// DefaultDisplayNameTTL bounds how stale a cached display name may get.
const DefaultDisplayNameTTL = 10 * time.Minute

// CacheMetrics records display-name cache outcomes.
type CacheMetrics interface {
	IncDisplayNameCacheHit()
	IncDisplayNameCacheMiss()
}

// RedisCache caches display names in front of another Directory. Only names
// are cached; existence and membership checks always reach the source so a
// removed recipient is noticed immediately.
type RedisCache struct {
	Directory
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics CacheMetrics
}

type CacheOption func(*RedisCache)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) { c.logger = logger }
}

func WithCacheMetrics(m CacheMetrics) CacheOption {
	return func(c *RedisCache) { c.metrics = m }
}

func NewRedisCache(source Directory, client *redis.Client, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		Directory: source,
		client:    client,
		ttl:       DefaultDisplayNameTTL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DisplayName reads through the cache. Redis failures degrade to the source.
func (c *RedisCache) DisplayName(ctx context.Context, userID id.UserID) (string, error) {
	key := displayNameKeyPrefix + userID.String()
	name, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if c.metrics != nil {
			c.metrics.IncDisplayNameCacheHit()
		}
		return name, nil
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "display name cache read failed", "error", err, "user_id", userID.String())
	}
	if c.metrics != nil {
		c.metrics.IncDisplayNameCacheMiss()
	}

	name, err = c.Directory.DisplayName(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "display name cache write failed", "error", err, "user_id", userID.String())
	}
	return name, nil
}
