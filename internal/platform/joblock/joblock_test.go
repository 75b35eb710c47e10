package joblock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisLocker) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLocker(client, "test:")
}

func TestRedisLocker_SecondAcquireIsRejected(t *testing.T) {
	_, l := setupRedis(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "approve-referrals", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "approve-referrals", time.Minute)
	assert.True(t, errors.Is(err, ErrHeld))

	release()

	release2, err := l.Acquire(ctx, "approve-referrals", time.Minute)
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_ExpiresAfterTTL(t *testing.T) {
	mr, l := setupRedis(t)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "expire-gifts", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = l.Acquire(ctx, "expire-gifts", time.Second)
	assert.NoError(t, err)
}

func TestRedisLocker_ReleaseDoesNotDropForeignLock(t *testing.T) {
	mr, l := setupRedis(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "payout-referrals", time.Second)
	require.NoError(t, err)

	// el lock expira y otra ejecución lo toma
	mr.FastForward(2 * time.Second)
	_, err = l.Acquire(ctx, "payout-referrals", time.Minute)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists("test:payout-referrals"))
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "job", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	release()
	_, err = l.Acquire(ctx, "job", time.Minute)
	assert.NoError(t, err)
}
