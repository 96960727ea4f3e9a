package envelopecache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/oceanchat/oceanchat/internal/domain/routing"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache(clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	env := routing.Envelope{Success: true, OriginalQuery: "pacific temperature", Count: 3}

	require.NoError(t, cache.Set(context.Background(), "envelope:pacific temperature", env, time.Minute))

	got, ok, err := cache.Get(context.Background(), "envelope:pacific temperature")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, env, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	cache := NewMemoryCache(nil)

	_, ok, err := cache.Get(context.Background(), "envelope:nothing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	cache := NewMemoryCache(clock)

	require.NoError(t, cache.Set(context.Background(), "k", routing.Envelope{Success: true}, time.Minute))
	clock.Advance(61 * time.Second)

	_, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	cache := NewMemoryCache(clock)

	require.NoError(t, cache.Set(context.Background(), "k", routing.Envelope{Success: true}, 0))
	clock.Advance(240 * time.Hour)

	_, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
}
