package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

// Directory resolves a requester id to where they can be reached.
type Directory interface {
	Contact(ctx context.Context, userID string) (Recipient, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type userDirectory struct {
	users UserLookup
}

func NewUserDirectory(users UserLookup) Directory {
	return &userDirectory{users: users}
}

func (d *userDirectory) Contact(ctx context.Context, userID string) (Recipient, error) {
	u, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return Recipient{}, err
	}
	return Recipient{Name: u.DisplayName(), LineID: u.LineUserID, Email: u.Email}, nil
}

// Dispatcher turns events into delivered messages.
type Dispatcher struct {
	sink      Sink
	directory Directory
	admin     *AdminChannel
	logger    *slog.Logger
}

func NewDispatcher(sink Sink, directory Directory, admin *AdminChannel, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, directory: directory, admin: admin, logger: logger}
}

func (d *Dispatcher) Send(ctx context.Context, ev Event) error {
	to, err := d.resolve(ctx, ev)
	if err != nil {
		return err
	}
	if err := d.sink.Deliver(ctx, to, Compose(ev)); err != nil {
		return fmt.Errorf("deliver %s for %s: %w", ev.Kind, ev.Reservation.ID, err)
	}
	return nil
}

func (d *Dispatcher) resolve(ctx context.Context, ev Event) (Recipient, error) {
	switch ev.Audience {
	case AudienceAdmin:
		to := d.admin.Recipient()
		if to.LineID == "" && to.Email == "" {
			return Recipient{}, ErrNoRecipient
		}
		return to, nil
	case AudienceRequester:
		if ev.Reservation.Requester == booking.MaintenanceRequester {
			return Recipient{}, ErrNoRecipient
		}
		to, err := d.directory.Contact(ctx, ev.Reservation.Requester)
		if err != nil {
			return Recipient{}, fmt.Errorf("look up requester %s: %w", ev.Reservation.Requester, err)
		}
		return to, nil
	}
	return Recipient{}, fmt.Errorf("unknown audience %q", ev.Audience)
}

// ReservationChanged implements booking.Notifier.
func (d *Dispatcher) ReservationChanged(ctx context.Context, change booking.Change, r *booking.Reservation) {
	var ev Event
	switch change {
	case booking.ChangeCreated:
		ev = Event{Kind: KindNewRequest, Audience: AudienceAdmin}
	case booking.ChangeApproved:
		ev = Event{Kind: KindApproved, Audience: AudienceRequester}
	case booking.ChangeRejected:
		ev = Event{Kind: KindRejected, Audience: AudienceRequester}
	case booking.ChangeCancelled:
		ev = Event{Kind: KindCancelled, Audience: AudienceRequester}
	case booking.ChangeExtended:
		ev = Event{Kind: KindExtended, Audience: AudienceAdmin}
	default:
		return
	}
	ev.Reservation = r

	if err := d.Send(ctx, ev); err != nil {
		d.logger.WarnContext(ctx, "lifecycle notification not delivered",
			"kind", ev.Kind, "reservation_id", r.ID, "err", err)
	}
}
