package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/novadent/dental-portal/pkg/logging"
)

// ServiceSource is the uncached lookup the cache falls back to.
type ServiceSource interface {
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
}

// CachedRepository is a read-through Redis cache in front of the catalog.
// Slot generation hits the catalog on every candidate fetch, so the hot
// entries are kept warm here.
type CachedRepository struct {
	source ServiceSource
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedRepository wraps a source with a Redis read-through cache.
func NewCachedRepository(source ServiceSource, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if source == nil {
		panic("catalog: service source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{source: source, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedRepository) key(id uuid.UUID) string {
	return fmt.Sprintf("catalog:service:%s", id)
}

// GetService returns the cached service, falling back to the source on miss.
// Cache failures degrade to the source rather than failing the request.
func (c *CachedRepository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, c.key(id)).Bytes()
		if err == nil {
			var svc Service
			if err := json.Unmarshal(data, &svc); err == nil {
				return &svc, nil
			}
			c.logger.Warn("catalog cache entry corrupt, refetching", "service_id", id)
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", "error", err, "service_id", id)
		}
	}

	svc, err := c.source.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(svc); err == nil {
			if err := c.redis.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
				c.logger.Warn("catalog cache write failed", "error", err, "service_id", id)
			}
		}
	}
	return svc, nil
}

// ListServices goes straight to the source. The list backs the booking form's
// service picker; per-entry caching covers the hot path, and caching the full
// list would add invalidation churn for little gain.
func (c *CachedRepository) ListServices(ctx context.Context) ([]Service, error) {
	return c.source.ListServices(ctx)
}

// Invalidate drops a cached service after catalog management updates it.
func (c *CachedRepository) Invalidate(ctx context.Context, id uuid.UUID) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("catalog: invalidate service: %w", err)
	}
	return nil
}
