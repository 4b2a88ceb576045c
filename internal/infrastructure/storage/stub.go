package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// StubStorage keeps objects in memory. It backs development setups and
// tests where no S3-compatible backend is available.
type StubStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL is used when building download URLs
	BaseURL string
}

// NewStubStorage creates a new StubStorage
func NewStubStorage() *StubStorage {
	return &StubStorage{
		objects: make(map[string][]byte),
		BaseURL: "https://storage.invalid",
	}
}

// Put stores an object under the given key
func (s *StubStorage) Put(_ context.Context, key, _ string, data []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored
	return nil
}

// Get retrieves an object by key
func (s *StubStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// DownloadURL returns a synthetic URL for the object
func (s *StubStorage) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", time.Time{}, ErrObjectNotFound
	}

	expiresAt := time.Now().Add(expiresIn)
	url := fmt.Sprintf("%s/%s?expires=%s", s.BaseURL, key, expiresAt.Format(time.RFC3339))
	return url, expiresAt, nil
}

// Delete removes an object
func (s *StubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports how many objects are stored
func (s *StubStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Ensure StubStorage implements ObjectStorage
var _ ObjectStorage = (*StubStorage)(nil)
