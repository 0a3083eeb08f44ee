package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

type Axis string

const (
	AxisCar    Axis = "car"
	AxisDriver Axis = "driver"
)

// ConflictError identifies the reservation that holds a requested resource.
// It unwraps to ErrConflict.
type ConflictError struct {
	Axis          Axis
	ReservationID string
	Busy          Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already booked %s %s to %s %s",
		e.Axis, e.Busy.StartDate, e.Busy.StartTime, e.Busy.EndDate, e.Busy.EndTime)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// asAppError carries the conflict detail to the client as a 409.
func (e *ConflictError) asAppError() error {
	return apperror.Wrap(e, ErrConflict.Code, e.Error())
}

// Detector checks candidate spans against the blocking reservations in the store.
type Detector struct {
	repo Repository
	zone Zone
}

func NewDetector(repo Repository, zone Zone) *Detector {
	return &Detector{repo: repo, zone: zone}
}

// FindConflict returns the first blocking reservation, other than excludeID,
// whose span overlaps span on carID or driverID. A car clash is reported in
// preference to a driver clash. With neither id there is nothing to protect.
func (d *Detector) FindConflict(ctx context.Context, span Span, carID, driverID, excludeID string) (*ConflictError, error) {
	if carID == "" && driverID == "" {
		return nil, nil
	}

	candidates, err := d.repo.Find(ctx, Query{
		Statuses:  BlockingStatuses,
		CarID:     carID,
		DriverID:  driverID,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, err
	}

	var driverClash *ConflictError
	for _, c := range candidates {
		// An unreadable window blocks its resources until someone fixes it.
		cs, err := d.zone.Resolve(c.Window)
		if err != nil {
			slog.WarnContext(ctx, "treating unreadable window as busy", "reservation_id", c.ID)
		} else if !cs.Overlaps(span) {
			continue
		}
		if carID != "" && c.CarID == carID {
			return &ConflictError{Axis: AxisCar, ReservationID: c.ID, Busy: c.Window}, nil
		}
		if driverClash == nil && driverID != "" && c.DriverID == driverID {
			driverClash = &ConflictError{Axis: AxisDriver, ReservationID: c.ID, Busy: c.Window}
		}
	}
	return driverClash, nil
}

// Busy returns the car and driver ids held by blocking reservations overlapping span.
func (d *Detector) Busy(ctx context.Context, span Span) (cars, drivers map[string]bool, err error) {
	blocking, err := d.repo.Find(ctx, Query{Statuses: BlockingStatuses})
	if err != nil {
		return nil, nil, err
	}

	cars = make(map[string]bool)
	drivers = make(map[string]bool)
	for _, r := range blocking {
		rs, err := d.zone.Resolve(r.Window)
		if err == nil && !rs.Overlaps(span) {
			continue
		}
		if r.CarID != "" {
			cars[r.CarID] = true
		}
		if r.DriverID != "" {
			drivers[r.DriverID] = true
		}
	}
	return cars, drivers, nil
}
