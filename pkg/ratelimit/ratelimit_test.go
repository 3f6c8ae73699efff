package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenLimiter(start time.Time) (*LocalRateLimiter, *time.Time) {
	l := NewLocalRateLimiter(time.Minute)
	now := start
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLocalRateLimiter_BurstThenReject(t *testing.T) {
	l, _ := frozenLimiter(time.Unix(1_700_000_000, 0))
	ctx := context.Background()
	limit := PerSecond(2, 3)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "ip:1", limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}

	res, err := l.Allow(ctx, "ip:1", limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 500*time.Millisecond, res.RetryAfter)

	other, err := l.Allow(ctx, "ip:2", limit)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestLocalRateLimiter_Refills(t *testing.T) {
	l, now := frozenLimiter(time.Unix(1_700_000_000, 0))
	ctx := context.Background()
	limit := PerSecond(1, 1)

	res, err := l.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	*now = now.Add(time.Second)
	res, err = l.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalRateLimiter_EvictsIdleKeys(t *testing.T) {
	l, now := frozenLimiter(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	_, err := l.Allow(ctx, "a", PerSecond(1, 1))
	require.NoError(t, err)
	_, err = l.Allow(ctx, "b", PerSecond(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())

	*now = now.Add(2 * time.Minute)
	_, err = l.Allow(ctx, "c", PerSecond(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestLocalRateLimiter_InvalidLimit(t *testing.T) {
	_, err := NewLocalRateLimiter(0).Allow(context.Background(), "k", Limit{})
	assert.Error(t, err)
}
