package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/adapters/redis"
)

func newTestLocker(t *testing.T) (*redis.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewLocker(client), mr
}

func TestLocker_AcquireRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("bramble:lock:s1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("bramble:lock:s1"))
}

func TestLocker_ContendedTimesOut(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	shortCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(shortCtx, "s1", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}

func TestLocker_UnlockIsOwnershipSafe(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	// Simulate expiry followed by another holder taking the lock.
	mr.FastForward(2 * time.Minute)
	unlock2, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	// The stale unlock must not release the new holder's lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("bramble:lock:s1"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("bramble:lock:s1"))
}
