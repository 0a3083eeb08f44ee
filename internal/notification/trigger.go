package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
)

// Reminder is a notice owed for a reservation at a point in time.
type Reminder struct {
	Notice   booking.Notice
	Kind     Kind
	Audience Audience
}

// Due lists the reminders r is owed at now. It reads nothing but its arguments.
func Due(now time.Time, r *booking.Reservation, span booking.Span, nearEnd time.Duration) []Reminder {
	var out []Reminder
	switch r.Status {
	case booking.StatusApproved:
		if !r.Notified.Start && !now.Before(span.Start) {
			out = append(out, Reminder{booking.NoticeStart, KindDepartReminder, AudienceRequester})
		}
		if !r.Notified.AdminNoShow && now.After(span.End) {
			out = append(out, Reminder{booking.NoticeAdminNoShow, KindAdminNoShow, AudienceAdmin})
		}
	case booking.StatusActive:
	default:
		return nil
	}

	// Whole minutes left, rounded down.
	left := span.End.Sub(now).Truncate(time.Minute)
	if !r.Notified.NearEnd && left > 0 && left <= nearEnd {
		out = append(out, Reminder{booking.NoticeNearEnd, KindNearEndReminder, AudienceRequester})
	}
	return out
}

type Sender interface {
	Send(ctx context.Context, ev Event) error
}

type TriggerConfig struct {
	Zone          booking.Zone
	Clock         clockwork.Clock
	NearEndWindow time.Duration
}

// Report summarizes one pass.
type Report struct {
	Scanned int
	Sent    int
	Failed  int
	Skipped int
}

// Trigger scans live reservations and sends each owed reminder once.
type Trigger struct {
	repo    booking.Repository
	sender  Sender
	zone    booking.Zone
	clock   clockwork.Clock
	nearEnd time.Duration
	logger  *slog.Logger
}

func NewTrigger(repo booking.Repository, sender Sender, cfg TriggerConfig, logger *slog.Logger) *Trigger {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Trigger{
		repo:    repo,
		sender:  sender,
		zone:    cfg.Zone,
		clock:   cfg.Clock,
		nearEnd: cfg.NearEndWindow,
		logger:  logger,
	}
}

// RunOnce performs a single pass. A failed scan skips the whole pass.
//
// The flag is claimed before sending: a reminder that fails to deliver is
// logged and not retried, while a reminder whose flag could not be written
// stays eligible for the next pass.
func (t *Trigger) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	now := t.clock.Now()

	live, err := t.repo.Find(ctx, booking.Query{Statuses: []booking.Status{booking.StatusApproved, booking.StatusActive}})
	if err != nil {
		return rep, err
	}

	for _, r := range live {
		rep.Scanned++
		span, err := t.zone.Resolve(r.Window)
		if err != nil {
			t.logger.WarnContext(ctx, "skipping reservation with unreadable window", "reservation_id", r.ID)
			continue
		}

		for _, due := range Due(now, r, span, t.nearEnd) {
			won, err := t.repo.MarkNotified(ctx, r, due.Notice)
			if err != nil {
				rep.Skipped++
				t.logger.WarnContext(ctx, "could not record reminder, will retry",
					"reservation_id", r.ID, "notice", due.Notice, "err", err)
				continue
			}
			if !won {
				continue
			}

			ev := Event{Kind: due.Kind, Audience: due.Audience, Reservation: r}
			if err := t.sender.Send(ctx, ev); err != nil {
				rep.Failed++
				t.logger.ErrorContext(ctx, "reminder delivery failed",
					"reservation_id", r.ID, "kind", due.Kind, "err", err)
				continue
			}
			rep.Sent++
		}
	}
	return rep, nil
}
