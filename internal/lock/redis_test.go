package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	l := NewRedisLocker(client, 10*time.Second)
	l.token = func() string { return "tok" }
	l.retry = time.Millisecond
	return l, mock
}

func TestRedisAcquireAndRelease(t *testing.T) {
	l, mock := newTestRedisLocker(t)

	mock.ExpectSetNX("carbooking:lock:car:1", "tok", 10*time.Second).SetVal(true)
	mock.ExpectSetNX("carbooking:lock:driver:2", "tok", 10*time.Second).SetVal(true)
	mock.ExpectEval(unlockScript, []string{"carbooking:lock:car:1"}, "tok").SetVal(int64(1))
	mock.ExpectEval(unlockScript, []string{"carbooking:lock:driver:2"}, "tok").SetVal(int64(1))

	unlock, err := l.Acquire(context.Background(), "driver:2", "car:1")
	require.NoError(t, err)
	unlock()
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTryAcquireRollsBackPartialSet(t *testing.T) {
	l, mock := newTestRedisLocker(t)

	mock.ExpectSetNX("carbooking:lock:car:1", "tok", 10*time.Second).SetVal(true)
	mock.ExpectSetNX("carbooking:lock:driver:2", "tok", 10*time.Second).SetVal(false)
	mock.ExpectEval(unlockScript, []string{"carbooking:lock:car:1"}, "tok").SetVal(int64(1))

	_, err := l.TryAcquire(context.Background(), "car:1", "driver:2")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAcquireSurfacesBackendError(t *testing.T) {
	l, mock := newTestRedisLocker(t)

	boom := errors.New("connection refused")
	mock.ExpectSetNX("carbooking:lock:car:1", "tok", 10*time.Second).SetErr(boom)

	_, err := l.Acquire(context.Background(), "car:1")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAcquireGivesUpWithContext(t *testing.T) {
	l, mock := newTestRedisLocker(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 1000; i++ {
		mock.ExpectSetNX("carbooking:lock:car:1", "tok", 10*time.Second).SetVal(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Acquire(ctx, "car:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisNoKeysIsNoop(t *testing.T) {
	l, mock := newTestRedisLocker(t)

	unlock, err := l.Acquire(context.Background(), "", "")
	require.NoError(t, err)
	unlock()
	assert.NoError(t, mock.ExpectationsWereMet())
}
