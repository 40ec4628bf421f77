package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/nearmatch/internal/cache"
	"github.com/oggyb/nearmatch/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	return cache.NewRedisCache(cfg), mr
}

func TestCooldown_MarkAndExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	in, err := c.InCooldown(ctx, 7)
	require.NoError(t, err)
	assert.False(t, in)

	require.NoError(t, c.MarkCooldown(ctx, 7, 99, time.Minute))
	in, err = c.InCooldown(ctx, 7)
	require.NoError(t, err)
	assert.True(t, in)

	mr.FastForward(2 * time.Minute)
	in, err = c.InCooldown(ctx, 7)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestCooldown_NonPositiveTTLIsIgnored(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.MarkCooldown(ctx, 1, 1, 0))
	in, err := c.InCooldown(ctx, 1)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestClearCooldown(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.MarkCooldown(ctx, 1, 5, time.Hour))
	require.NoError(t, c.MarkCooldown(ctx, 2, 5, time.Hour))
	require.NoError(t, c.ClearCooldown(ctx, 1, 2))

	in, _ := c.InCooldown(ctx, 1)
	assert.False(t, in)
	in, _ = c.InCooldown(ctx, 2)
	assert.False(t, in)
}

func TestPairLock_IsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	assert.Equal(t, c.KeyForPairLock(3, 9), c.KeyForPairLock(9, 3))

	ok, release, err := c.AcquirePairLock(ctx, 3, 9, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok2, _, err := c.AcquirePairLock(ctx, 9, 3, time.Second)
	require.NoError(t, err)
	assert.False(t, ok2)

	release()
	ok3, release3, err := c.AcquirePairLock(ctx, 9, 3, time.Second)
	require.NoError(t, err)
	assert.True(t, ok3)
	release3()
}

func TestPairLock_ExpiredHolderKeepsNewLock(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	ok, staleRelease, err := c.AcquirePairLock(ctx, 1, 2, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	ok, release, err := c.AcquirePairLock(ctx, 2, 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	staleRelease()
	assert.True(t, mr.Exists(c.KeyForPairLock(1, 2)))

	release()
	assert.False(t, mr.Exists(c.KeyForPairLock(1, 2)))
}

func TestAppendEvent(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.AppendEvent(ctx, "events", map[string]interface{}{"event": "Match Create"}, 100))

	n, err := c.Client.XLen(ctx, "events").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
