package iot

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterStore_Basic(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	limiter := store.GetLimiter("pond-01")
	require.NotNil(t, limiter)
	assert.Equal(t, 1.0, float64(limiter.Limit()))
	assert.Equal(t, 2, limiter.Burst())
}

func TestRateLimiterStore_CustomLimit(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	store.SetLimiter("pond-02", 5, 10)
	limiter := store.GetLimiter("pond-02")

	assert.Equal(t, 5.0, float64(limiter.Limit()))
	assert.Equal(t, 10, limiter.Burst())
}

func TestRateLimiterStore_NormalizesDeviceID(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	store.SetLimiter("pond-03", 7, 3)

	assert.Same(t, store.GetLimiter("POND-03"), store.GetLimiter(" pond-03 "))
	assert.Equal(t, 7.0, float64(store.GetLimiter("POND-03").Limit()))
}

func TestRateLimiterStore_Concurrency(t *testing.T) {
	store := NewRateLimiterStore(10, 5)
	deviceID := uuid.NewString()

	var wg sync.WaitGroup

	// Launch 100 goroutines that access GetLimiter concurrently
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter := store.GetLimiter(deviceID)
			if limiter == nil {
				t.Error("expected limiter, got nil")
			}
		}()
	}

	wg.Wait()

	first := store.GetLimiter(deviceID)
	assert.Same(t, first, store.GetLimiter(deviceID))
}

func TestRateLimiter_Enforcement(t *testing.T) {
	store := NewRateLimiterStore(2, 2) // 2 events/sec

	deviceID := uuid.NewString()

	// Consume two tokens
	require.True(t, store.Allow(deviceID))
	require.True(t, store.Allow(deviceID))

	// This call should fail immediately
	assert.False(t, store.Allow(deviceID), "expected third call to be rate limited")

	// Wait for refill
	time.Sleep(600 * time.Millisecond)
	assert.True(t, store.Allow(deviceID), "expected one token to be available after refill")
}

func TestRateLimiterStore_Prune(t *testing.T) {
	store := NewRateLimiterStore(1, 1)

	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	store.GetLimiter("pond-quiet")
	store.SetLimiter("pond-custom", 5, 5)

	clock = clock.Add(10 * time.Minute)
	store.GetLimiter("pond-busy")

	pruned := store.Prune(clock.Add(-time.Minute))
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 2, store.Len())

	// the custom bucket is kept even though it is as old as the pruned one
	assert.Equal(t, 5.0, float64(store.GetLimiter("POND-CUSTOM").Limit()))

	// a pruned device comes back with a fresh default bucket
	assert.True(t, store.Allow("pond-quiet"))
	assert.Equal(t, 3, store.Len())
}
