package notification

import (
	"fmt"
	"strings"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
)

// Compose renders the plain-text message for ev.
func Compose(ev Event) Message {
	r := ev.Reservation
	when := fmt.Sprintf("%s %s - %s %s", r.Window.StartDate, r.Window.StartTime, r.Window.EndDate, r.Window.EndTime)

	var subject string
	var lines []string
	switch ev.Kind {
	case KindDepartReminder:
		subject = "Time to depart"
		lines = []string{"Your car reservation starts now.", when, "Record the start odometer when you pick up the car."}
	case KindNearEndReminder:
		subject = "Reservation ending soon"
		lines = []string{"Your car reservation ends at " + r.Window.EndTime + ".", "Extend it in the app if you need more time."}
	case KindAdminNoShow:
		subject = "Reservation not started"
		lines = []string{"An approved reservation ended without being started.", when}
	case KindNewRequest:
		subject = "New car request"
		lines = []string{"A new reservation is waiting for approval.", when}
		if r.Remarks != "" {
			lines = append(lines, "Remarks: "+r.Remarks)
		}
	case KindApproved:
		subject = "Reservation approved"
		lines = []string{"Your car reservation was approved.", when}
	case KindRejected:
		subject = "Reservation rejected"
		lines = []string{"Your car reservation was rejected.", when}
		if r.RejectionReason != "" {
			lines = append(lines, "Reason: "+r.RejectionReason)
		}
	case KindCancelled:
		subject = "Reservation cancelled"
		lines = []string{"Your car reservation was cancelled.", when}
		if r.CancelledBy != "" {
			lines = append(lines, "Cancelled by: "+r.CancelledBy)
		}
	case KindExtended:
		subject = "Reservation extended"
		lines = []string{"A reservation now ends at " + r.Window.EndDate + " " + r.Window.EndTime + "."}
	default:
		subject = "Reservation update"
		lines = []string{when}
	}
	if ev.Audience == AudienceAdmin && r.Requester != booking.MaintenanceRequester {
		lines = append(lines, "Reservation: "+r.ID)
	}

	return Message{
		Kind:          ev.Kind,
		Subject:       subject,
		Body:          strings.Join(lines, "\n"),
		ReservationID: r.ID,
	}
}
