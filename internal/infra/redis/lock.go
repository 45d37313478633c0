package redis

import (
	"context"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.Locker = (*RedisLocker)(nil)

// RedisLocker is a single-instance SETNX lock with a random owner token.
type RedisLocker struct {
	cli     RedisClient
	retries int
	backoff time.Duration
}

// NewLocker retries a busy lock for about two seconds, long enough for a
// concurrent checkout to finish registering its customer.
func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c, retries: 20, backoff: 100 * time.Millisecond}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < l.retries; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl)
		switch {
		case err != nil:
			lastErr = err
		case ok:
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrLockBusy
}

// Unlock is a no-op when the lock expired and was taken by someone else.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.cli.CompareAndDelete(ctx, key, token)
	return err
}
