package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired means the allocation mutex could not be taken within
// the configured wait window.
var ErrLockNotAcquired = errors.New("allocation lock not acquired")

// release only deletes the key when it still holds our token, so an expired
// lock cannot release somebody else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// AllocationMutex serialises membership identifier allocation across
// processes using a Redis SET NX lock.
type AllocationMutex struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	wait   time.Duration
}

// NewAllocationMutex constructs the mutex with a lock TTL and an acquisition
// wait budget.
func NewAllocationMutex(client *redis.Client, key string, ttl, wait time.Duration) *AllocationMutex {
	if key == "" {
		key = "membership:alloc:lock"
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &AllocationMutex{client: client, key: key, ttl: ttl, wait: wait}
}

// Acquire takes the lock, blocking up to the wait budget, and returns a
// release function. Callers must invoke the release function exactly once.
func (m *AllocationMutex) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(m.wait)

	for {
		ok, err := m.client.SetNX(ctx, m.key, token, m.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, m.client, []string{m.key}, token).Err()
			}
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
