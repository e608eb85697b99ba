package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ttl, zerolog.Nop()), mr
}

func TestCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1, "2026-03-09")
	assert.False(t, ok)

	c.Set(ctx, 1, "2026-03-09", []byte(`{"slots":[]}`))

	got, ok := c.Get(ctx, 1, "2026-03-09")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"slots":[]}`), got)

	// Other rooms and dates are unaffected.
	_, ok = c.Get(ctx, 2, "2026-03-09")
	assert.False(t, ok)
	_, ok = c.Get(ctx, 1, "2026-03-10")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, 1, "2026-03-09", []byte(`payload`))
	c.Invalidate(ctx, 1, "2026-03-09")

	_, ok := c.Get(ctx, 1, "2026-03-09")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	c.Set(ctx, 1, "2026-03-09", []byte(`payload`))
	mr.FastForward(time.Minute)

	_, ok := c.Get(ctx, 1, "2026-03-09")
	assert.False(t, ok)
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *AvailabilityCache

	_, ok := c.Get(context.Background(), 1, "2026-03-09")
	assert.False(t, ok)
	c.Set(context.Background(), 1, "2026-03-09", []byte(`x`))
	c.Invalidate(context.Background(), 1, "2026-03-09")
}

func TestNew_DisabledWithoutClientOrTTL(t *testing.T) {
	assert.Nil(t, New(nil, time.Minute, zerolog.Nop()))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	assert.Nil(t, New(rdb, 0, zerolog.Nop()))
}
