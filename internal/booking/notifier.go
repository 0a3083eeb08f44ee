package booking

import "context"

// Change names a lifecycle step that people may want to hear about.
type Change string

const (
	ChangeCreated   Change = "created"
	ChangeApproved  Change = "approved"
	ChangeRejected  Change = "rejected"
	ChangeCancelled Change = "cancelled"
	ChangeStarted   Change = "started"
	ChangeCompleted Change = "completed"
	ChangeExtended  Change = "extended"
)

// Notifier is told about lifecycle changes after they are stored.
// Delivery problems are the notifier's to log; they never undo the change.
type Notifier interface {
	ReservationChanged(ctx context.Context, change Change, r *Reservation)
}

type nopNotifier struct{}

func (nopNotifier) ReservationChanged(context.Context, Change, *Reservation) {}
