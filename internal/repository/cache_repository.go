package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
)

type cacheMetricsRecorder interface {
	RecordCacheOperation(hit bool)
}

// CacheRepository provides helpers around Redis interactions for cached
// reference data.
type CacheRepository struct {
	client  *redis.Client
	logger  *zap.Logger
	metrics cacheMetricsRecorder
}

// NewCacheRepository constructs a cache repository. metrics may be nil.
func NewCacheRepository(client *redis.Client, logger *zap.Logger, metrics cacheMetricsRecorder) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger, metrics: metrics}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r == nil || r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		r.recordCache(false)
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.recordCache(false)
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	r.recordCache(true)
	return nil
}

func (r *CacheRepository) recordCache(hit bool) {
	if r.metrics != nil {
		r.metrics.RecordCacheOperation(hit)
	}
}

// Set marshals the provided value and stores it with the given TTL. Failures
// are logged and swallowed so a degraded cache never blocks check-in.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r == nil || r.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("marshal cache value", zap.String("key", key), zap.Error(err))
		return
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.logger.Warn("redis set", zap.String("key", key), zap.Error(err))
	}
}

// Delete drops a cached key.
func (r *CacheRepository) Delete(ctx context.Context, key string) {
	if r == nil || r.client == nil {
		return
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("redis del", zap.String("key", key), zap.Error(err))
	}
}
