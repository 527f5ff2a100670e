package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, ttl time.Duration) *QueryCache {
	t.Helper()

	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cache, err := NewQueryCache(backend, ttl)
	require.NoError(t, err)

	return cache
}

func TestQueryCacheRoundTrip(t *testing.T) {
	cache := setupTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "believer", 0, 10)
	assert.False(t, ok)

	body := []byte(`{"success":true,"data":{"results":[]}}`)
	cache.Put(ctx, "believer", 0, 10, body)

	got, ok := cache.Get(ctx, "believer", 0, 10)
	require.True(t, ok)
	assert.Equal(t, body, got)

	// Different parameters miss.
	_, ok = cache.Get(ctx, "believer", 1, 10)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "believer", 0, 20)
	assert.False(t, ok)
}

func TestQueryCacheDisabled(t *testing.T) {
	cache := setupTestCache(t, 0)
	ctx := context.Background()

	cache.Put(ctx, "believer", 0, 10, []byte("body"))

	_, ok := cache.Get(ctx, "believer", 0, 10)
	assert.False(t, ok)
}

func TestQueryCacheExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping TTL expiry test in short mode")
	}

	cache := setupTestCache(t, time.Second)
	ctx := context.Background()

	cache.Put(ctx, "believer", 0, 10, []byte("body"))

	time.Sleep(2100 * time.Millisecond)

	_, ok := cache.Get(ctx, "believer", 0, 10)
	assert.False(t, ok)
}

func TestFingerprintStable(t *testing.T) {
	assert.Equal(t, fingerprint("believer", 0, 10), fingerprint("believer", 0, 10))
	assert.NotEqual(t, fingerprint("believer", 0, 10), fingerprint("thunder", 0, 10))
}
