package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryReportCache_SetAndGet(t *testing.T) {
	cache := NewInMemoryReportCache()
	defer cache.Close()
	ctx := context.Background()

	payload := []byte(`{"debit_total":"1000"}`)
	err := cache.Set(ctx, "trial_balance:20240101:20240131", payload, time.Minute)
	require.NoError(t, err)

	got, hit, err := cache.Get(ctx, "trial_balance:20240101:20240131")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload, got)
}

func TestInMemoryReportCache_Miss(t *testing.T) {
	cache := NewInMemoryReportCache()
	defer cache.Close()

	got, hit, err := cache.Get(context.Background(), "trial_balance:missing")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, got)
}

func TestInMemoryReportCache_Expiration(t *testing.T) {
	cache := NewInMemoryReportCache()
	defer cache.Close()
	ctx := context.Background()

	err := cache.Set(ctx, "trial_balance:short", []byte("x"), 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, hit, err := cache.Get(ctx, "trial_balance:short")
	require.NoError(t, err)
	assert.False(t, hit, "expired entry should be a miss")
}

func TestInMemoryReportCache_InvalidatePrefix(t *testing.T) {
	cache := NewInMemoryReportCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "trial_balance:20240101:20240131", []byte("a"), time.Minute))
	require.NoError(t, cache.Set(ctx, "trial_balance:20240201:20240229", []byte("b"), time.Minute))
	require.NoError(t, cache.Set(ctx, "other:key", []byte("c"), time.Minute))

	err := cache.InvalidatePrefix(ctx, "trial_balance:")
	require.NoError(t, err)

	_, hit, err := cache.Get(ctx, "trial_balance:20240101:20240131")
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = cache.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.True(t, hit, "entries outside the prefix must survive")
}

func TestInMemoryReportCache_GetReturnsCopy(t *testing.T) {
	cache := NewInMemoryReportCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("original"), time.Minute))

	got, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	got[0] = 'X'

	again, _, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestInMemoryReportCache_CloseIdempotent(t *testing.T) {
	cache := NewInMemoryReportCache()
	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())
}
