package lock

import (
	"context"
	"sync"
)

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	if len(keys) == 0 {
		return noop, nil
	}

	taken := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquireOne(ctx, k); err != nil {
			l.release(taken)
			return nil, err
		}
		taken = append(taken, k)
	}
	return l.unlocker(taken), nil
}

func (l *LocalLocker) TryAcquire(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if _, busy := l.held[k]; busy {
			return nil, ErrNotAcquired
		}
	}
	for _, k := range keys {
		l.held[k] = make(chan struct{})
	}
	return l.unlocker(keys), nil
}

func (l *LocalLocker) acquireOne(ctx context.Context, key string) error {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *LocalLocker) unlocker(keys []string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(keys) })
	}
}

func (l *LocalLocker) release(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if ch, ok := l.held[k]; ok {
			close(ch)
			delete(l.held, k)
		}
	}
}
