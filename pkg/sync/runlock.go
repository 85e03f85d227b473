package sync

import (
	"context"
	"errors"
	"time"

	"github.com/parlwatch/hemicycle/pkg/redis"
)

const runLockKey = "sync-run"

// RedisRunLock enforces the single-active-run invariant with a redis
// advisory lock, so the guard holds even with multiple API instances.
type RedisRunLock struct {
	locker *redis.Locker
	ttl    time.Duration
}

// NewRedisRunLock creates a run lock with the given lease. The lease bounds
// how long a crashed run can block the next one.
func NewRedisRunLock(locker *redis.Locker, ttl time.Duration) *RedisRunLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisRunLock{
		locker: locker,
		ttl:    ttl,
	}
}

// Acquire takes the run lock or returns ErrRunInProgress
func (l *RedisRunLock) Acquire(ctx context.Context) (UnlockFunc, error) {
	lock, err := l.locker.Acquire(ctx, runLockKey, l.ttl)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, ErrRunInProgress
		}
		return nil, err
	}

	return func(ctx context.Context) error {
		return lock.Release(ctx)
	}, nil
}
