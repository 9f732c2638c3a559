package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgverify-jobs/internal/common/config"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestAcquireRunLock(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	ok, err := client.AcquireRunLock(ctx, "tat:run-lock", "owner-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second caller is rejected while the lock is held.
	ok, err = client.AcquireRunLock(ctx, "tat:run-lock", "owner-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcquireRunLock_ExpiresAfterTTL(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	ok, err := client.AcquireRunLock(ctx, "tat:run-lock", "owner-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = client.AcquireRunLock(ctx, "tat:run-lock", "owner-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseRunLock(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	ok, err := client.AcquireRunLock(ctx, "tat:run-lock", "owner-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, client.ReleaseRunLock(ctx, "tat:run-lock", "owner-1"))

	ok, err = client.AcquireRunLock(ctx, "tat:run-lock", "owner-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseRunLock_NotOwner(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	ok, err := client.AcquireRunLock(ctx, "tat:run-lock", "owner-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing with the wrong owner leaves the lock in place.
	require.NoError(t, client.ReleaseRunLock(ctx, "tat:run-lock", "owner-2"))

	ok, err = client.AcquireRunLock(ctx, "tat:run-lock", "owner-3", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseRunLock_MissingKey(t *testing.T) {
	client, _ := newTestRedis(t)

	assert.NoError(t, client.ReleaseRunLock(context.Background(), "tat:run-lock", "owner-1"))
}
