package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL     = 5 * time.Second
	defaultLockRetry   = 25 * time.Millisecond
	releaseLockTimeout = 2 * time.Second
)

// ErrLockTimeout is returned when a lock could not be taken before the wait
// budget ran out.
var ErrLockTimeout = errors.New("lock wait timed out")

// releaseScript deletes the key only while it still holds our token, so a
// holder whose lease expired cannot free somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`)

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Locker is a lease-based mutex over SET NX PX. It serializes tracking id
// allocation for one day across every API instance sharing the Redis.
type Locker struct {
	client lockClient
	ttl    time.Duration
	retry  time.Duration
	wait   time.Duration
}

// NewLocker returns a Locker whose leases expire after ttl. Callers wait at
// most twice the ttl for a busy lock.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{client: client, ttl: ttl, retry: defaultLockRetry, wait: 2 * ttl}
}

// Lock blocks until key is held, ctx ends or the wait budget is spent. The
// returned func releases the lease.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("acquire %s: %w", key, ErrLockTimeout)
		case <-time.After(l.retry):
		}
	}
}

// release runs on its own short context so a cancelled request still frees
// its lease.
func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseLockTimeout)
	defer cancel()
	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}
