package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReportCache implements ReportCache using Redis
// This is suitable for distributed deployments where multiple instances
// should serve reports from a shared cache
type RedisReportCache struct {
	client      *redis.Client
	keyPrefix   string
	ownedClient bool
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisReportCache creates a new Redis-based report cache
func NewRedisReportCache(cfg RedisConfig) (*RedisReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisReportCache{
		client:      client,
		keyPrefix:   "report:",
		ownedClient: true,
	}, nil
}

// NewRedisReportCacheWithClient creates a cache with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisReportCacheWithClient(client *redis.Client, keyPrefix string) *RedisReportCache {
	if keyPrefix == "" {
		keyPrefix = "report:"
	}
	return &RedisReportCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached payload for the key, or a miss when absent
func (c *RedisReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached report: %w", err)
	}
	return payload, true, nil
}

// Set stores the payload under the key with the given TTL
func (c *RedisReportCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// InvalidatePrefix removes every cached entry whose key starts with prefix.
// Uses SCAN rather than KEYS so large keyspaces are not blocked.
func (c *RedisReportCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate cached report: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached reports: %w", err)
	}
	return nil
}

// Close closes the Redis connection when this cache owns the client
func (c *RedisReportCache) Close() error {
	if !c.ownedClient {
		return nil
	}
	return c.client.Close()
}
