package booking_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	"github.com/nekogravitycat/car-booking-backend/internal/testutil"
)

func newPgxRepo(t *testing.T) (booking.Repository, *pgxpool.Pool) {
	t.Helper()
	pool := testutil.NewPool(t)
	testutil.Truncate(t, pool, "reservations", "cars", "drivers")
	return booking.NewPgxRepository(pool), pool
}

func insertCar(t *testing.T, pool *pgxpool.Pool, plate string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO cars (name, plate) VALUES ($1, $2) RETURNING id`, "car "+plate, plate).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPgxRepositoryStatusCompareAndSwap(t *testing.T) {
	repo, pool := newPgxRepo(t)
	ctx := context.Background()
	carID := insertCar(t, pool, "A-1")

	res := &booking.Reservation{
		Requester: "alice",
		Window:    window("2025-03-10", "09:00", "12:00"),
		Status:    booking.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, res))
	require.NotEmpty(t, res.ID)

	approved := *res
	approved.Status = booking.StatusApproved
	approved.CarID = carID
	require.NoError(t, repo.Update(ctx, &approved, booking.StatusPending))

	stale := *res
	stale.Status = booking.StatusRejected
	stale.RejectionReason = "too late"
	assert.ErrorIs(t, repo.Update(ctx, &stale, booking.StatusPending), booking.ErrConcurrentChange)

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusApproved, got.Status)
	assert.Equal(t, carID, got.CarID)
	assert.Empty(t, got.RejectionReason)

	missing := approved
	missing.ID = "00000000-0000-0000-0000-000000000000"
	assert.ErrorIs(t, repo.Update(ctx, &missing, booking.StatusApproved), booking.ErrNotFound)
}

func TestPgxRepositoryFindByResource(t *testing.T) {
	repo, pool := newPgxRepo(t)
	ctx := context.Background()
	carA := insertCar(t, pool, "A-1")
	carB := insertCar(t, pool, "B-1")

	seed := []*booking.Reservation{
		{Requester: "alice", CarID: carA, Status: booking.StatusApproved, Window: window("2025-03-10", "09:00", "12:00")},
		{Requester: "bob", CarID: carB, Status: booking.StatusApproved, Window: window("2025-03-10", "09:00", "12:00")},
		{Requester: "carol", CarID: carA, Status: booking.StatusCancelled, Window: window("2025-03-10", "09:00", "12:00")},
		{Requester: booking.MaintenanceRequester, CarID: carA, Status: booking.StatusMaintenance, Window: window("2025-03-11", "08:00", "17:00")},
	}
	for _, r := range seed {
		require.NoError(t, repo.Create(ctx, r))
	}

	got, err := repo.Find(ctx, booking.Query{Statuses: booking.BlockingStatuses, CarID: carA})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{seed[0].ID, seed[3].ID}, ids)

	got, err = repo.Find(ctx, booking.Query{Statuses: booking.BlockingStatuses, CarID: carA, ExcludeID: seed[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, seed[3].ID, got[0].ID)

	got, err = repo.Find(ctx, booking.Query{Requester: "bob"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, carB, got[0].CarID)
}

func TestPgxRepositoryMarkNotifiedAndExtend(t *testing.T) {
	repo, _ := newPgxRepo(t)
	ctx := context.Background()

	res := &booking.Reservation{
		Requester: "alice",
		Status:    booking.StatusActive,
		Window:    window("2025-03-10", "09:00", "12:00"),
	}
	require.NoError(t, repo.Create(ctx, res))

	ok, err := repo.MarkNotified(ctx, res, booking.NoticeNearEnd)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkNotified(ctx, res, booking.NoticeNearEnd)
	require.NoError(t, err)
	assert.False(t, ok, "a flag is claimed once")

	prev := res.Window
	extended := *res
	extended.Window.EndTime = "14:00"
	require.NoError(t, repo.Extend(ctx, &extended, prev))

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "14:00", got.Window.EndTime)
	assert.False(t, got.Notified.NearEnd)

	ok, err = repo.MarkNotified(ctx, res, booking.NoticeAdminNoShow)
	require.NoError(t, err)
	assert.False(t, ok, "a scan that saw the old end cannot claim a flag")
	got, err = repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, got.Notified.AdminNoShow)

	ok, err = repo.MarkNotified(ctx, got, booking.NoticeNearEnd)
	require.NoError(t, err)
	assert.True(t, ok)

	again := *res
	again.Window.EndTime = "15:00"
	assert.ErrorIs(t, repo.Extend(ctx, &again, prev), booking.ErrConcurrentChange)

	require.NoError(t, repo.UpdateExpense(ctx, res.ID, booking.Expense{FuelCost: 850.5, TollCost: 60}))
	got, err = repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Expense{FuelCost: 850.5, TollCost: 60}, got.Expense)
	assert.Equal(t, "14:00", got.Window.EndTime)

	require.NoError(t, repo.Delete(ctx, res.ID))
	_, err = repo.GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}
