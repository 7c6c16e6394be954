package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMutexFixture(t *testing.T, ttl, wait time.Duration) (*AllocationMutex, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAllocationMutex(client, "test:alloc", ttl, wait), mr
}

func TestAllocationMutexAcquireRelease(t *testing.T) {
	mutex, mr := newMutexFixture(t, time.Second, 100*time.Millisecond)

	release, err := mutex.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:alloc"))

	release()
	assert.False(t, mr.Exists("test:alloc"))
}

func TestAllocationMutexContention(t *testing.T) {
	mutex, _ := newMutexFixture(t, time.Second, 120*time.Millisecond)

	release, err := mutex.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = mutex.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestAllocationMutexReacquireAfterRelease(t *testing.T) {
	mutex, _ := newMutexFixture(t, time.Second, 100*time.Millisecond)

	release, err := mutex.Acquire(context.Background())
	require.NoError(t, err)
	release()

	release2, err := mutex.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestAllocationMutexReleaseIsTokenScoped(t *testing.T) {
	mutex, mr := newMutexFixture(t, time.Second, 100*time.Millisecond)

	release, err := mutex.Acquire(context.Background())
	require.NoError(t, err)

	// lock expired and was taken by someone else
	require.NoError(t, mr.Set("test:alloc", "other-token"))
	release()
	assert.True(t, mr.Exists("test:alloc"))
}

func TestAllocationMutexContextCancelled(t *testing.T) {
	mutex, _ := newMutexFixture(t, time.Second, 5*time.Second)

	release, err := mutex.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err = mutex.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
