package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/bramble/pkg/ports"
)

// ErrLockAcquire is returned when a lock cannot be acquired before the
// context is done.
var ErrLockAcquire = errors.New("failed to acquire lock")

// unlockScript deletes the lock key only if we still own it.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Locker implements ports.DistributedLocker using Redis SET NX.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a locker from an existing client.
func NewLocker(client *backend.Client) *Locker {
	return &Locker{
		client: client,
		prefix: "bramble:lock:",
	}
}

// Lock acquires a lock on key, polling until the context is done. The
// returned UnlockFunc releases the lock only if this caller still holds it.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + key
	// The value identifies this holder so unlock cannot release a lock
	// that expired and was re-acquired by someone else.
	value := fmt.Sprintf("%d", time.Now().UnixNano())

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, value, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			unlock := func(ctx context.Context) error {
				if err := l.client.Eval(ctx, unlockScript, []string{lockKey}, value).Err(); err != nil {
					return fmt.Errorf("failed to release lock: %w", err)
				}
				return nil
			}
			return unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockAcquire, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
