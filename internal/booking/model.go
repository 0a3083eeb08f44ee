package booking

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "reservation not found")
	ErrMalformedWindow   = apperror.New(http.StatusBadRequest, "dates must be YYYY-MM-DD and times HH:MM")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, "end time must be after start time")
	ErrStartTimePast     = apperror.New(http.StatusBadRequest, "cannot book a start time in the past")
	ErrInvalidStatus     = apperror.New(http.StatusBadRequest, "invalid reservation status")
	ErrResourceRequired  = apperror.New(http.StatusBadRequest, "a car or a driver is required")
	ErrCarRequired       = apperror.New(http.StatusBadRequest, "a car must be assigned before approval")
	ErrDriverRequired    = apperror.New(http.StatusBadRequest, "this request needs a driver assigned")
	ErrReasonRequired    = apperror.New(http.StatusBadRequest, "a rejection reason is required")
	ErrOdometerRequired  = apperror.New(http.StatusBadRequest, "a non-negative odometer reading is required")
	ErrInvalidExpense    = apperror.New(http.StatusBadRequest, "expenses cannot be negative")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
	ErrCarNotFound       = apperror.New(http.StatusNotFound, "car not found")
	ErrDriverNotFound    = apperror.New(http.StatusNotFound, "driver not found")
	ErrConflict          = apperror.New(http.StatusConflict, "resource is already booked for that time")
	ErrConcurrentChange  = apperror.New(http.StatusConflict, "reservation was changed by someone else, reload and retry")
	ErrInvalidTransition = apperror.New(http.StatusUnprocessableEntity, "action not allowed in the reservation's current status")
	ErrTooEarly          = apperror.New(http.StatusUnprocessableEntity, "the reservation window has not started yet")
	ErrOdometerBackwards = apperror.New(http.StatusUnprocessableEntity, "end odometer must be greater than start odometer")
	ErrExtendNotLater    = apperror.New(http.StatusUnprocessableEntity, "new end time must be after the current end time")
	ErrStoreUnavailable  = apperror.New(http.StatusServiceUnavailable, "reservation store unavailable, try again")
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusActive      Status = "active"
	StatusCompleted   Status = "completed"
	StatusMaintenance Status = "maintenance"
	StatusCancelled   Status = "cancelled"
)

// BlockingStatuses hold their car and driver exclusively for their window.
var BlockingStatuses = []Status{StatusApproved, StatusActive, StatusMaintenance}

var allStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected, StatusActive,
	StatusCompleted, StatusMaintenance, StatusCancelled,
}

func (s Status) Valid() bool {
	return slices.Contains(allStatuses, s)
}

func (s Status) Blocking() bool {
	return slices.Contains(BlockingStatuses, s)
}

// MaintenanceRequester is recorded as the requester of operator-created blocks.
const MaintenanceRequester = "ADMIN"

// Notice names one of the sticky reminder flags on a reservation.
type Notice string

const (
	NoticeStart       Notice = "start"
	NoticeNearEnd     Notice = "near_end"
	NoticeAdminNoShow Notice = "admin_no_show"
)

// Notified records which reminders already went out. A flag only goes back
// to false when an extension moves the window end.
type Notified struct {
	Start       bool
	NearEnd     bool
	AdminNoShow bool
}

func (n Notified) Has(notice Notice) bool {
	switch notice {
	case NoticeStart:
		return n.Start
	case NoticeNearEnd:
		return n.NearEnd
	case NoticeAdminNoShow:
		return n.AdminNoShow
	}
	return false
}

type Expense struct {
	FuelCost float64
	TollCost float64
}

type Reservation struct {
	ID              string
	Requester       string
	CarID           string // empty when unassigned
	DriverID        string // empty when unassigned
	Window          Window
	UseDriver       bool
	Remarks         string
	Status          Status
	RejectionReason string
	CancelledBy     string
	StartOdometer   *int64
	EndOdometer     *int64
	Expense         Expense
	Notified        Notified
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsMaintenance reports whether r is an operator block rather than a request.
func (r *Reservation) IsMaintenance() bool {
	return r.Status == StatusMaintenance
}

// Query selects reservations. Zero fields do not filter. CarID and DriverID
// combine with OR: a reservation matches when it uses either resource.
type Query struct {
	Statuses  []Status
	CarID     string
	DriverID  string
	Requester string
	ExcludeID string
}

// Filter is what list endpoints accept.
type Filter struct {
	Requester string
	Status    Status
}
