package cache

import (
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReportCacheFactory creates report caches based on configuration
type ReportCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReportCacheFactoryOption is a functional option for configuring the factory
type ReportCacheFactoryOption func(*ReportCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReportCacheFactory creates a new factory
func NewReportCacheFactory(cfg config.RedisConfig, opts ...ReportCacheFactoryOption) *ReportCacheFactory {
	f := &ReportCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based report cache
func (f *ReportCacheFactory) CreateRedisCache() (shared.ReportCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisReportCache(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis report cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory report cache
// This is suitable for single-instance deployments and testing
func (f *ReportCacheFactory) CreateInMemoryCache() shared.ReportCache {
	return NewInMemoryReportCache()
}

// CreateCache creates a report cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory when allowed.
func (f *ReportCacheFactory) CreateCache() (shared.ReportCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis report cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for report cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory report cache. "+
		"Cached reports will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

var _ shared.ReportCache = (*RedisReportCache)(nil)
var _ shared.ReportCache = (*InMemoryReportCache)(nil)
