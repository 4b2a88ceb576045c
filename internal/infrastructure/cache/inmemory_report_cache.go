package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// entry represents a cached payload with expiration
type entry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryReportCache implements ReportCache using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryReportCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReportCache creates a new in-memory report cache
// It starts a background goroutine to clean up expired entries
func NewInMemoryReportCache() *InMemoryReportCache {
	cache := &InMemoryReportCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached payload for the key, or a miss when absent or expired
func (c *InMemoryReportCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}

	// Copy so callers cannot mutate the cached payload
	payload := make([]byte, len(e.payload))
	copy(payload, e.payload)
	return payload, true, nil
}

// Set stores the payload under the key with the given TTL
func (c *InMemoryReportCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		payload:   stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// InvalidatePrefix removes every cached entry whose key starts with prefix
func (c *InMemoryReportCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryReportCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

// Len returns the number of cached entries, including expired ones
// not yet collected. Intended for tests.
func (c *InMemoryReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryReportCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryReportCache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
