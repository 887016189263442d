package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLimiterBurst(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewClientLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestClientLimiterCleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewClientLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(5 * time.Minute)
	l.Allow("b")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 1, l.Len())
}

func TestLimiterWithoutRedisAllowsEverything(t *testing.T) {
	ctx := context.Background()
	l := New(nil)

	ok, err := l.CheckAndSetCooldown(ctx, "user", "apply", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	exceeded, err := l.Exceeded(ctx, "alice", "login", 1)
	require.NoError(t, err)
	assert.False(t, exceeded)

	n, err := l.Hit(ctx, "alice", "login", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	var nilLimiter *Limiter
	ok, err = nilLimiter.CheckAndSetCooldown(ctx, "user", "apply", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiterWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	l := New(rdb)

	ok, err := l.CheckAndSetCooldown(ctx, "u1", "apply", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.CheckAndSetCooldown(ctx, "u1", "apply", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := l.CooldownTTL(ctx, "u1", "apply")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, ttl)

	require.NoError(t, l.ClearCooldown(ctx, "u1", "apply"))
	ok, err = l.CheckAndSetCooldown(ctx, "u1", "apply", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	for i := int64(1); i <= 3; i++ {
		n, err := l.Hit(ctx, "alice", "login", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	exceeded, err := l.Exceeded(ctx, "alice", "login", 3)
	require.NoError(t, err)
	assert.True(t, exceeded)

	mr.FastForward(2 * time.Minute)
	exceeded, err = l.Exceeded(ctx, "alice", "login", 3)
	require.NoError(t, err)
	assert.False(t, exceeded)
}
