package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheService orchestrates catalog cache operations. Cache failures degrade
// to the database path and are logged, never surfaced to callers.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true on a cache hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	err := s.repo.Get(ctx, key, dest)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(true)
	}
	return true
}

// Set stores the value in cache using the default TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Set(ctx, key, value, s.defaultTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes the cached value for a key.
func (s *CacheService) Invalidate(ctx context.Context, key string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
