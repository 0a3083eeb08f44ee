package notification

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrNotAddressable means the recipient has no address this sink can use.
	ErrNotAddressable = errors.New("notification: recipient not addressable")
	// ErrNoRecipient means no configured sink could reach the recipient.
	ErrNoRecipient = errors.New("notification: no reachable recipient")
)

type Sink interface {
	Deliver(ctx context.Context, to Recipient, msg Message) error
}

// MultiSink delivers to every sink that can address the recipient.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, to Recipient, msg Message) error {
	var errs []error
	delivered := false
	for _, s := range m {
		err := s.Deliver(ctx, to, msg)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, ErrNotAddressable):
		default:
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if !delivered {
		return ErrNoRecipient
	}
	return nil
}

// LogSink writes messages to the log instead of sending them.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(ctx context.Context, to Recipient, msg Message) error {
	s.Logger.InfoContext(ctx, "notification",
		"kind", msg.Kind,
		"to", to.Name,
		"reservation_id", msg.ReservationID,
		"subject", msg.Subject,
	)
	return nil
}
