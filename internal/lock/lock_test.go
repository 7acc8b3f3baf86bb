package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Exclusive(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "run", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = locker.Acquire(ctx, "other", time.Minute)
	assert.NoError(t, err, "different keys do not contend")

	require.NoError(t, release(ctx))
	_, err = locker.Acquire(ctx, "run", time.Minute)
	assert.NoError(t, err)
}

func TestLocalLocker_Expiry(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Date(2024, 2, 1, 6, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := locker.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = locker.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err, "expired lock can be taken over")

	// The stale holder's release must not free the new owner's lock.
	require.NoError(t, first(ctx))
	_, err = locker.Acquire(ctx, "run", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestRedisLocker_RejectsZeroTTL(t *testing.T) {
	locker := NewRedisLocker(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	_, err := locker.Acquire(context.Background(), "run", 0)
	assert.Error(t, err)
}

func TestRedisLocker_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	locker := NewRedisLocker(client, "vivid:test:lock:")
	ctx := context.Background()
	if err := locker.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	release, err := locker.Acquire(ctx, "run", 5*time.Second)
	require.NoError(t, err)
	_, err = locker.Acquire(ctx, "run", 5*time.Second)
	assert.ErrorIs(t, err, ErrLocked)
	require.NoError(t, release(ctx))

	again, err := locker.Acquire(ctx, "run", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
