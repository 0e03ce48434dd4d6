package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
	"go.uber.org/zap"
)

// CachedEngine caches the entity list of an engine in Redis. Directions are never cached.
// Cache failures are logged and fall through to the engine.
type CachedEngine struct {
	next   venue.Engine
	rdb    redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEngine wraps next. mapID scopes the cache key.
func NewCachedEngine(next venue.Engine, rdb redis.UniversalClient, mapID string, ttl time.Duration, logger *zap.Logger) *CachedEngine {
	return &CachedEngine{
		next:   next,
		rdb:    rdb,
		key:    "wayfinder:entities:" + mapID,
		ttl:    ttl,
		logger: logger,
	}
}

// Entities returns the cached list, loading and storing it on a miss.
func (e *CachedEngine) Entities(ctx context.Context) ([]venue.Entity, error) {
	raw, err := e.rdb.Get(ctx, e.key).Bytes()
	switch {
	case err == nil:
		var entities []venue.Entity
		if jsonErr := json.Unmarshal(raw, &entities); jsonErr == nil {
			return entities, nil
		}
		e.logger.Warn("discarding corrupt entity cache", zap.String("key", e.key))
	case !errors.Is(err, redis.Nil):
		e.logger.Warn("entity cache read failed", zap.String("key", e.key), zap.Error(err))
	}

	entities, err := e.next.Entities(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entities); err == nil {
		if err := e.rdb.Set(ctx, e.key, data, e.ttl).Err(); err != nil {
			e.logger.Warn("entity cache write failed", zap.String("key", e.key), zap.Error(err))
		}
	}
	return entities, nil
}

// Directions delegates to the wrapped engine.
func (e *CachedEngine) Directions(ctx context.Context, from, to venue.Entity, opts venue.DirectionsOptions) (*venue.Directions, error) {
	return e.next.Directions(ctx, from, to, opts)
}

// Invalidate drops the cached entity list.
func (e *CachedEngine) Invalidate(ctx context.Context) error {
	return e.rdb.Del(ctx, e.key).Err()
}
