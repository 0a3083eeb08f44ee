package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nekogravitycat/car-booking-backend/internal/fleet"
	"github.com/nekogravitycat/car-booking-backend/internal/lock"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

type CreateRequest struct {
	Requester   string
	Window      Window
	UseDriver   bool
	Remarks     string
	Maintenance bool
	CarID       string
	DriverID    string
}

// StatusRequest asks for a transition to Status. Only the fields the target
// status needs are read.
type StatusRequest struct {
	Status          Status
	CarID           string
	DriverID        string
	RejectionReason string
	CancelledBy     string
	StartOdometer   *int64
	EndOdometer     *int64
}

type ExtendRequest struct {
	EndDate string
	EndTime string
}

// Actor is the authenticated caller of an owner-scoped operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

type Availability struct {
	Cars    []*fleet.Car
	Drivers []*fleet.Driver
}

// Fleet is the slice of the fleet service reservations depend on.
type Fleet interface {
	GetCar(ctx context.Context, id string) (*fleet.Car, error)
	GetDriver(ctx context.Context, id string) (*fleet.Driver, error)
	ListCars(ctx context.Context) ([]*fleet.Car, error)
	ListDrivers(ctx context.Context) ([]*fleet.Driver, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Reservation, error)
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, error)
	// SetStatus returns a nil reservation when cancelling removed a maintenance block.
	SetStatus(ctx context.Context, id string, req StatusRequest, actor Actor) (*Reservation, error)
	Extend(ctx context.Context, id string, req ExtendRequest, actor Actor) (*Reservation, error)
	UpdateExpense(ctx context.Context, id string, e Expense) (*Reservation, error)
	Delete(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, w Window) (*Availability, error)
}

type Config struct {
	Zone         Zone
	Clock        clockwork.Clock
	BookingGrace time.Duration
	StoreTimeout time.Duration
}

type service struct {
	repo     Repository
	fleet    Fleet
	locker   lock.Locker
	notifier Notifier
	detector *Detector
	zone     Zone
	clock    clockwork.Clock
	grace    time.Duration
	timeout  time.Duration
}

func NewService(repo Repository, fleet Fleet, locker lock.Locker, notifier Notifier, cfg Config) Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &service{
		repo:     repo,
		fleet:    fleet,
		locker:   locker,
		notifier: notifier,
		detector: NewDetector(repo, cfg.Zone),
		zone:     cfg.Zone,
		clock:    cfg.Clock,
		grace:    cfg.BookingGrace,
		timeout:  cfg.StoreTimeout,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	span, err := s.zone.Resolve(req.Window)
	if err != nil {
		return nil, err
	}
	if !span.Valid() {
		return nil, ErrInvalidTimeRange
	}

	res := &Reservation{
		Requester: req.Requester,
		CarID:     req.CarID,
		DriverID:  req.DriverID,
		Window:    req.Window,
		UseDriver: req.UseDriver,
		Remarks:   strings.TrimSpace(req.Remarks),
		Status:    StatusPending,
	}

	if !req.Maintenance {
		// Operators may block time retroactively; requesters may not.
		if span.Start.Before(s.clock.Now().Add(-s.grace)) {
			return nil, ErrStartTimePast
		}
		if err := s.repo.Create(ctx, res); err != nil {
			return nil, storeErr(err)
		}
		s.notify(ctx, ChangeCreated, res)
		return res, nil
	}

	if req.CarID == "" && req.DriverID == "" {
		return nil, ErrResourceRequired
	}
	if err := s.checkFleet(ctx, req.CarID, req.DriverID); err != nil {
		return nil, err
	}
	res.Requester = MaintenanceRequester
	res.Status = StatusMaintenance

	unlock, err := s.lockResources(ctx, req.CarID, req.DriverID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.ensureFree(ctx, span, req.CarID, req.DriverID, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, storeErr(err)
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.repo.GetByID(ctx, id)
	return res, storeErr(err)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := Query{Requester: filter.Requester}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		q.Statuses = []Status{filter.Status}
	}
	out, err := s.repo.Find(ctx, q)
	return out, storeErr(err)
}

func (s *service) SetStatus(ctx context.Context, id string, req StatusRequest, actor Actor) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	switch req.Status {
	case StatusApproved, StatusRejected:
		if !actor.IsAdmin {
			return nil, ErrPermissionDenied
		}
	default:
		if !actor.IsAdmin && res.Requester != actor.UserID {
			return nil, ErrPermissionDenied
		}
	}

	switch req.Status {
	case StatusApproved:
		return s.approve(ctx, res, req.CarID, req.DriverID)
	case StatusRejected:
		return s.reject(ctx, res, req.RejectionReason)
	case StatusCancelled:
		return s.cancel(ctx, res, req.CancelledBy)
	case StatusActive:
		return s.start(ctx, res, req.StartOdometer)
	case StatusCompleted:
		return s.complete(ctx, res, req.EndOdometer)
	default:
		// pending and maintenance are only ever entered through Create.
		return nil, ErrInvalidTransition
	}
}

func (s *service) approve(ctx context.Context, res *Reservation, carID, driverID string) (*Reservation, error) {
	if res.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	// Fall back to whatever the requester asked for.
	if carID == "" {
		carID = res.CarID
	}
	if driverID == "" {
		driverID = res.DriverID
	}
	if carID == "" {
		return nil, ErrCarRequired
	}
	if res.UseDriver && driverID == "" {
		return nil, ErrDriverRequired
	}
	if err := s.checkFleet(ctx, carID, driverID); err != nil {
		return nil, err
	}

	span, err := s.zone.Resolve(res.Window)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockResources(ctx, carID, driverID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.ensureFree(ctx, span, carID, driverID, res.ID); err != nil {
		return nil, err
	}

	res.CarID = carID
	res.DriverID = driverID
	res.Status = StatusApproved
	if err := s.repo.Update(ctx, res, StatusPending); err != nil {
		return nil, storeErr(err)
	}
	unlock()
	s.notify(ctx, ChangeApproved, res)
	return res, nil
}

func (s *service) reject(ctx context.Context, res *Reservation, reason string) (*Reservation, error) {
	if res.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	res.Status = StatusRejected
	res.RejectionReason = reason
	if err := s.repo.Update(ctx, res, StatusPending); err != nil {
		return nil, storeErr(err)
	}
	s.notify(ctx, ChangeRejected, res)
	return res, nil
}

func (s *service) cancel(ctx context.Context, res *Reservation, by string) (*Reservation, error) {
	switch res.Status {
	case StatusMaintenance:
		if err := s.repo.Delete(ctx, res.ID); err != nil {
			return nil, storeErr(err)
		}
		return nil, nil
	case StatusPending, StatusApproved:
	default:
		return nil, ErrInvalidTransition
	}

	prev := res.Status
	res.Status = StatusCancelled
	res.CancelledBy = strings.TrimSpace(by)
	if err := s.repo.Update(ctx, res, prev); err != nil {
		return nil, storeErr(err)
	}
	s.notify(ctx, ChangeCancelled, res)
	return res, nil
}

func (s *service) start(ctx context.Context, res *Reservation, odometer *int64) (*Reservation, error) {
	if res.Status != StatusApproved {
		return nil, ErrInvalidTransition
	}
	if odometer == nil || *odometer < 0 {
		return nil, ErrOdometerRequired
	}

	span, err := s.zone.Resolve(res.Window)
	if err != nil {
		return nil, err
	}
	if s.clock.Now().Before(span.Start) {
		return nil, ErrTooEarly
	}

	res.Status = StatusActive
	res.StartOdometer = odometer
	if err := s.repo.Update(ctx, res, StatusApproved); err != nil {
		return nil, storeErr(err)
	}
	s.notify(ctx, ChangeStarted, res)
	return res, nil
}

func (s *service) complete(ctx context.Context, res *Reservation, odometer *int64) (*Reservation, error) {
	if res.Status != StatusActive {
		return nil, ErrInvalidTransition
	}
	if odometer == nil || *odometer < 0 {
		return nil, ErrOdometerRequired
	}
	if res.StartOdometer != nil && *odometer <= *res.StartOdometer {
		return nil, ErrOdometerBackwards
	}

	res.Status = StatusCompleted
	res.EndOdometer = odometer
	if err := s.repo.Update(ctx, res, StatusActive); err != nil {
		return nil, storeErr(err)
	}
	s.notify(ctx, ChangeCompleted, res)
	return res, nil
}

func (s *service) Extend(ctx context.Context, id string, req ExtendRequest, actor Actor) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if !actor.IsAdmin && res.Requester != actor.UserID {
		return nil, ErrPermissionDenied
	}
	if res.Status != StatusApproved && res.Status != StatusActive {
		return nil, ErrInvalidTransition
	}

	oldEnd, err := s.zone.Instant(res.Window.EndDate, res.Window.EndTime)
	if err != nil {
		return nil, err
	}
	newEnd, err := s.zone.Instant(req.EndDate, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !newEnd.After(oldEnd) {
		return nil, ErrExtendNotLater
	}

	unlock, err := s.lockResources(ctx, res.CarID, res.DriverID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Only the added tail needs checking; the rest is already ours.
	if err := s.ensureFree(ctx, Span{Start: oldEnd, End: newEnd}, res.CarID, res.DriverID, res.ID); err != nil {
		return nil, err
	}

	prev := res.Window
	res.Window.EndDate = req.EndDate
	res.Window.EndTime = req.EndTime
	if err := s.repo.Extend(ctx, res, prev); err != nil {
		return nil, storeErr(err)
	}
	res.Notified.NearEnd = false
	res.Notified.AdminNoShow = false
	unlock()
	s.notify(ctx, ChangeExtended, res)
	return res, nil
}

func (s *service) UpdateExpense(ctx context.Context, id string, e Expense) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if e.FuelCost < 0 || e.TollCost < 0 {
		return nil, ErrInvalidExpense
	}
	if err := s.repo.UpdateExpense(ctx, id, e); err != nil {
		return nil, storeErr(err)
	}
	res, err := s.repo.GetByID(ctx, id)
	return res, storeErr(err)
}

func (s *service) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return storeErr(s.repo.Delete(ctx, id))
}

func (s *service) CheckAvailability(ctx context.Context, w Window) (*Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	span, err := s.zone.Resolve(w)
	if err != nil {
		return nil, err
	}
	if !span.Valid() {
		return nil, ErrInvalidTimeRange
	}

	busyCars, busyDrivers, err := s.detector.Busy(ctx, span)
	if err != nil {
		return nil, storeErr(err)
	}

	cars, err := s.fleet.ListCars(ctx)
	if err != nil {
		return nil, err
	}
	drivers, err := s.fleet.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}

	out := &Availability{Cars: []*fleet.Car{}, Drivers: []*fleet.Driver{}}
	for _, c := range cars {
		if c.Status == fleet.StatusAvailable && !busyCars[c.ID] {
			out.Cars = append(out.Cars, c)
		}
	}
	for _, d := range drivers {
		if d.Status == fleet.StatusAvailable && !busyDrivers[d.ID] {
			out.Drivers = append(out.Drivers, d)
		}
	}
	return out, nil
}

// ensureFree must run while the resources are locked.
func (s *service) ensureFree(ctx context.Context, span Span, carID, driverID, excludeID string) error {
	conflict, err := s.detector.FindConflict(ctx, span, carID, driverID, excludeID)
	if err != nil {
		return storeErr(err)
	}
	if conflict != nil {
		return conflict.asAppError()
	}
	return nil
}

func (s *service) checkFleet(ctx context.Context, carID, driverID string) error {
	if carID != "" {
		if _, err := s.fleet.GetCar(ctx, carID); err != nil {
			if errors.Is(err, fleet.ErrCarNotFound) {
				return ErrCarNotFound
			}
			return err
		}
	}
	if driverID != "" {
		if _, err := s.fleet.GetDriver(ctx, driverID); err != nil {
			if errors.Is(err, fleet.ErrDriverNotFound) {
				return ErrDriverNotFound
			}
			return err
		}
	}
	return nil
}

func (s *service) lockResources(ctx context.Context, carID, driverID string) (lock.Unlock, error) {
	var keys []string
	if carID != "" {
		keys = append(keys, "car:"+carID)
	}
	if driverID != "" {
		keys = append(keys, "driver:"+driverID)
	}
	unlock, err := s.locker.Acquire(ctx, keys...)
	if err != nil {
		return nil, apperror.Derive(ErrStoreUnavailable, err)
	}
	return unlock, nil
}

func (s *service) notify(ctx context.Context, change Change, res *Reservation) {
	snapshot := *res
	s.notifier.ReservationChanged(context.WithoutCancel(ctx), change, &snapshot)
}

// storeErr keeps domain errors as they are and turns anything else from
// the store into ErrStoreUnavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Derive(ErrStoreUnavailable, err)
}
