package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only while it still carries our token, so an expired
// holder never frees a lock someone else has since taken.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker shares locks between server replicas. Every key expires after
// TTL so a crashed holder cannot wedge a resource.
type RedisLocker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	retry  time.Duration
	token  func() string
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: "carbooking:lock:",
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		token:  uuid.NewString,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	if len(keys) == 0 {
		return noop, nil
	}

	for {
		unlock, err := l.tryAcquire(ctx, keys)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	if len(keys) == 0 {
		return noop, nil
	}
	return l.tryAcquire(ctx, keys)
}

func (l *RedisLocker) tryAcquire(ctx context.Context, keys []string) (Unlock, error) {
	token := l.token()
	taken := make([]string, 0, len(keys))

	for _, k := range keys {
		ok, err := l.client.SetNX(ctx, l.prefix+k, token, l.ttl).Result()
		if err != nil {
			l.release(taken, token)
			return nil, fmt.Errorf("lock: acquire %s: %w", k, err)
		}
		if !ok {
			l.release(taken, token)
			return nil, ErrNotAcquired
		}
		taken = append(taken, k)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(taken, token) })
	}, nil
}

func (l *RedisLocker) release(keys []string, token string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, k := range keys {
		if err := l.client.Eval(ctx, unlockScript, []string{l.prefix + k}, token).Err(); err != nil {
			slog.Warn("lock release failed; key will expire", "key", k, "err", err)
		}
	}
}
