// Package lock serializes work on named keys, such as the car and driver a
// reservation decision touches.
package lock

import (
	"context"
	"errors"
	"slices"
)

// ErrNotAcquired is returned by TryAcquire when a key is held elsewhere.
var ErrNotAcquired = errors.New("lock: not acquired")

// Unlock releases everything an Acquire call obtained. It is safe to call more than once.
type Unlock func()

// Locker hands out exclusive access to a set of keys.
// Keys are taken in sorted order so overlapping sets cannot deadlock.
type Locker interface {
	// Acquire blocks until every key is held or ctx is done.
	Acquire(ctx context.Context, keys ...string) (Unlock, error)
	// TryAcquire takes every key or none, without waiting.
	TryAcquire(ctx context.Context, keys ...string) (Unlock, error)
}

// normalize drops empty keys, sorts and dedupes.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func noop() {}
