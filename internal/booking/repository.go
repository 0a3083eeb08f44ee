package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	// Find returns matching reservations, newest first.
	Find(ctx context.Context, q Query) ([]*Reservation, error)
	// Update writes the lifecycle fields of r, provided the stored status still
	// equals expected. It returns ErrConcurrentChange when it does not.
	// Reminder flags and expenses are left alone.
	Update(ctx context.Context, r *Reservation, expected Status) error
	// Extend moves the window end of r and clears the end-related reminder
	// flags, provided status and the previous end are unchanged.
	Extend(ctx context.Context, r *Reservation, prev Window) error
	UpdateExpense(ctx context.Context, id string, e Expense) error
	Delete(ctx context.Context, id string) error
	// MarkNotified flips one reminder flag of r from false to true, provided
	// the stored status and window end still equal those of r. It reports
	// false when the flag was already set or r is stale, so only one caller
	// ever wins and a moved window is judged again on the next scan.
	MarkNotified(ctx context.Context, r *Reservation, notice Notice) (bool, error)
}

var noticeColumns = map[Notice]string{
	NoticeStart:       "notified_start",
	NoticeNearEnd:     "notified_near_end",
	NoticeAdminNoShow: "notified_admin_no_show",
}

var reservationColumns = []string{
	"id", "requester", "car_id", "driver_id",
	"start_date", "start_time", "end_date", "end_time",
	"use_driver", "remarks", "status", "rejection_reason", "cancelled_by",
	"start_odometer", "end_odometer", "fuel_cost", "toll_cost",
	"notified_start", "notified_near_end", "notified_admin_no_show",
	"created_at", "updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	query, args, err := psql.Insert("reservations").
		Columns(
			"requester", "car_id", "driver_id",
			"start_date", "start_time", "end_date", "end_time",
			"use_driver", "remarks", "status",
		).
		Values(
			res.Requester, nullable(res.CarID), nullable(res.DriverID),
			res.Window.StartDate, res.Window.StartTime, res.Window.EndDate, res.Window.EndTime,
			res.UseDriver, res.Remarks, string(res.Status),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return fmt.Errorf("create reservation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) Find(ctx context.Context, q Query) ([]*Reservation, error) {
	sb := psql.Select(reservationColumns...).From("reservations")

	if len(q.Statuses) > 0 {
		sb = sb.Where(squirrel.Eq{"status": statusStrings(q.Statuses)})
	}
	var uses squirrel.Or
	if q.CarID != "" {
		uses = append(uses, squirrel.Eq{"car_id": q.CarID})
	}
	if q.DriverID != "" {
		uses = append(uses, squirrel.Eq{"driver_id": q.DriverID})
	}
	if len(uses) > 0 {
		sb = sb.Where(uses)
	}
	if q.Requester != "" {
		sb = sb.Where(squirrel.Eq{"requester": q.Requester})
	}
	if q.ExcludeID != "" {
		sb = sb.Where(squirrel.NotEq{"id": q.ExcludeID})
	}

	query, args, err := sb.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find reservations failed: %w", err)
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Reservation, expected Status) error {
	query, args, err := psql.Update("reservations").
		Set("car_id", nullable(res.CarID)).
		Set("driver_id", nullable(res.DriverID)).
		Set("status", string(res.Status)).
		Set("rejection_reason", nullable(res.RejectionReason)).
		Set("cancelled_by", nullable(res.CancelledBy)).
		Set("start_odometer", res.StartOdometer).
		Set("end_odometer", res.EndOdometer).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID, "status": string(expected)}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrStale(ctx, res.ID)
		}
		return fmt.Errorf("update reservation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Extend(ctx context.Context, res *Reservation, prev Window) error {
	query, args, err := psql.Update("reservations").
		Set("end_date", res.Window.EndDate).
		Set("end_time", res.Window.EndTime).
		Set("notified_near_end", false).
		Set("notified_admin_no_show", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{
			"id":       res.ID,
			"status":   string(res.Status),
			"end_date": prev.EndDate,
			"end_time": prev.EndTime,
		}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build extend reservation query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrStale(ctx, res.ID)
		}
		return fmt.Errorf("extend reservation failed: %w", err)
	}
	res.Notified.NearEnd = false
	res.Notified.AdminNoShow = false
	return nil
}

func (r *pgxRepository) UpdateExpense(ctx context.Context, id string, e Expense) error {
	query, args, err := psql.Update("reservations").
		Set("fuel_cost", e.FuelCost).
		Set("toll_cost", e.TollCost).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update expense query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update expense failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM reservations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete reservation failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) MarkNotified(ctx context.Context, res *Reservation, notice Notice) (bool, error) {
	column, ok := noticeColumns[notice]
	if !ok {
		return false, fmt.Errorf("unknown notice %q", notice)
	}

	query, args, err := psql.Update("reservations").
		Set(column, true).
		Where(squirrel.Eq{
			"id":       res.ID,
			"status":   string(res.Status),
			"end_date": res.Window.EndDate,
			"end_time": res.Window.EndTime,
			column:     false,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark notified query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark notified failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// missOrStale explains why a guarded write touched no rows.
func (r *pgxRepository) missOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM reservations WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("check reservation existence failed: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConcurrentChange
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var (
		res                          Reservation
		carID, driverID              *string
		rejectionReason, cancelledBy *string
	)
	if err := row.Scan(
		&res.ID, &res.Requester, &carID, &driverID,
		&res.Window.StartDate, &res.Window.StartTime, &res.Window.EndDate, &res.Window.EndTime,
		&res.UseDriver, &res.Remarks, &res.Status, &rejectionReason, &cancelledBy,
		&res.StartOdometer, &res.EndOdometer, &res.Expense.FuelCost, &res.Expense.TollCost,
		&res.Notified.Start, &res.Notified.NearEnd, &res.Notified.AdminNoShow,
		&res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	res.CarID = deref(carID)
	res.DriverID = deref(driverID)
	res.RejectionReason = deref(rejectionReason)
	res.CancelledBy = deref(cancelledBy)
	return &res, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
