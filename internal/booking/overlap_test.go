package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	"github.com/nekogravitycat/car-booking-backend/internal/booking/bookingtest"
)

func window(date, from, to string) booking.Window {
	return booking.Window{StartDate: date, StartTime: from, EndDate: date, EndTime: to}
}

func span(t *testing.T, w booking.Window) booking.Span {
	t.Helper()
	s, err := zone.Resolve(w)
	require.NoError(t, err)
	return s
}

func TestFindConflictWithoutResources(t *testing.T) {
	repo := bookingtest.NewRepository()
	repo.ErrFind = errors.New("must not be queried")
	d := booking.NewDetector(repo, zone)

	c, err := d.FindConflict(context.Background(), span(t, window("2025-03-10", "09:00", "10:00")), "", "", "")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflictIgnoresNonBlockingStatuses(t *testing.T) {
	repo := bookingtest.NewRepository()
	for _, st := range []booking.Status{booking.StatusPending, booking.StatusRejected, booking.StatusCompleted, booking.StatusCancelled} {
		repo.Seed(&booking.Reservation{Requester: "u", CarID: carA, Window: window("2025-03-10", "09:00", "12:00"), Status: st})
	}
	d := booking.NewDetector(repo, zone)

	c, err := d.FindConflict(context.Background(), span(t, window("2025-03-10", "10:00", "11:00")), carA, "", "")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflictPrefersCarAxis(t *testing.T) {
	repo := bookingtest.NewRepository()
	driverHolder := repo.Seed(&booking.Reservation{
		Requester: "u1", CarID: carB, DriverID: driverA,
		Window: window("2025-03-10", "09:00", "12:00"), Status: booking.StatusApproved,
	})
	carHolder := repo.Seed(&booking.Reservation{
		Requester: "u2", CarID: carA,
		Window: window("2025-03-10", "10:30", "11:30"), Status: booking.StatusMaintenance,
	})
	d := booking.NewDetector(repo, zone)

	c, err := d.FindConflict(context.Background(), span(t, window("2025-03-10", "10:00", "11:00")), carA, driverA, "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, booking.AxisCar, c.Axis)
	assert.Equal(t, carHolder.ID, c.ReservationID)

	c, err = d.FindConflict(context.Background(), span(t, window("2025-03-10", "10:00", "11:00")), carC, driverA, "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, booking.AxisDriver, c.Axis)
	assert.Equal(t, driverHolder.ID, c.ReservationID)
	assert.ErrorIs(t, c, booking.ErrConflict)
}

func TestFindConflictExcludesSelfAndAbutting(t *testing.T) {
	repo := bookingtest.NewRepository()
	self := repo.Seed(&booking.Reservation{
		Requester: "u", CarID: carA, Window: window("2025-03-10", "09:00", "12:00"), Status: booking.StatusActive,
	})
	repo.Seed(&booking.Reservation{
		Requester: "u", CarID: carA, Window: window("2025-03-10", "12:00", "14:00"), Status: booking.StatusApproved,
	})
	d := booking.NewDetector(repo, zone)

	c, err := d.FindConflict(context.Background(), span(t, window("2025-03-10", "09:00", "12:00")), carA, "", self.ID)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflictSpansMidnight(t *testing.T) {
	repo := bookingtest.NewRepository()
	repo.Seed(&booking.Reservation{
		Requester: "u", CarID: carA, Status: booking.StatusApproved,
		Window: booking.Window{StartDate: "2025-03-10", StartTime: "22:00", EndDate: "2025-03-11", EndTime: "02:00"},
	})
	d := booking.NewDetector(repo, zone)

	c, err := d.FindConflict(context.Background(), span(t, window("2025-03-11", "01:00", "03:00")), carA, "", "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, booking.AxisCar, c.Axis)
}

func TestFindConflictPropagatesStoreError(t *testing.T) {
	repo := bookingtest.NewRepository()
	boom := errors.New("db down")
	repo.ErrFind = boom
	d := booking.NewDetector(repo, zone)

	_, err := d.FindConflict(context.Background(), span(t, window("2025-03-10", "09:00", "10:00")), carA, "", "")
	assert.ErrorIs(t, err, boom)
}

func TestUnreadableWindowBlocksItsResources(t *testing.T) {
	repo := bookingtest.NewRepository()
	broken := repo.Seed(&booking.Reservation{
		Requester: "u", CarID: carA, DriverID: driverA, Status: booking.StatusApproved,
		Window: booking.Window{StartDate: "10/03/2025", StartTime: "09:00", EndDate: "2025-03-10", EndTime: "12:00"},
	})
	d := booking.NewDetector(repo, zone)
	ctx := context.Background()
	s := span(t, window("2025-03-20", "09:00", "10:00"))

	c, err := d.FindConflict(ctx, s, carA, "", "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, booking.AxisCar, c.Axis)
	assert.Equal(t, broken.ID, c.ReservationID)

	c, err = d.FindConflict(ctx, s, carB, "", "")
	require.NoError(t, err)
	assert.Nil(t, c)

	cars, drivers, err := d.Busy(ctx, s)
	require.NoError(t, err)
	assert.True(t, cars[carA])
	assert.True(t, drivers[driverA])
}
