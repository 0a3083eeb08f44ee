package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/nekogravitycat/car-booking-backend/internal/lock"
)

const triggerJobName = "reservation-reminders"

// NewScheduler runs the trigger every interval. Passes never overlap; with a
// shared locker only one replica runs each pass.
func NewScheduler(trigger *Trigger, interval time.Duration, clock clockwork.Clock, locker lock.Locker, logger *slog.Logger) (gocron.Scheduler, error) {
	opts := []gocron.SchedulerOption{gocron.WithLogger(logger)}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	if locker != nil {
		opts = append(opts, gocron.WithDistributedLocker(leaderLocker{locker: locker}))
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			rep, err := trigger.RunOnce(ctx)
			if err != nil {
				logger.Error("reminder pass skipped", "err", err)
				return
			}
			logger.Debug("reminder pass finished",
				"scanned", rep.Scanned, "sent", rep.Sent, "failed", rep.Failed, "skipped", rep.Skipped)
		}),
		gocron.WithName(triggerJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule reminder job: %w", err)
	}
	return s, nil
}

// leaderLocker adapts lock.Locker to gocron's distributed locking.
type leaderLocker struct {
	locker lock.Locker
}

func (l leaderLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	unlock, err := l.locker.TryAcquire(ctx, "job:"+key)
	if err != nil {
		return nil, err
	}
	return heldLock(unlock), nil
}

type heldLock lock.Unlock

func (h heldLock) Unlock(context.Context) error {
	h()
	return nil
}
