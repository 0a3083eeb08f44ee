// Package notification decides when people should hear about a reservation
// and delivers the message over LINE, mail or the log.
package notification

import (
	"github.com/nekogravitycat/car-booking-backend/internal/booking"
)

type Kind string

const (
	KindDepartReminder  Kind = "depart-reminder"
	KindNearEndReminder Kind = "near-end-reminder"
	KindAdminNoShow     Kind = "admin-no-show"
	KindNewRequest      Kind = "new-request"
	KindApproved        Kind = "approved"
	KindRejected        Kind = "rejected"
	KindCancelled       Kind = "cancelled"
	KindExtended        Kind = "extended"
)

type Audience string

const (
	AudienceRequester Audience = "requester"
	AudienceAdmin     Audience = "admin"
)

// Event is one message owed to one audience about one reservation.
type Event struct {
	Kind        Kind
	Audience    Audience
	Reservation *booking.Reservation
}

// Recipient is a resolved delivery address. Empty fields are not reachable.
type Recipient struct {
	Name   string
	LineID string
	Email  string
}

type Message struct {
	Kind          Kind
	Subject       string
	Body          string
	ReservationID string
}
