package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CreateCar(ctx context.Context, c *Car) error
	GetCar(ctx context.Context, id string) (*Car, error)
	ListCars(ctx context.Context) ([]*Car, error)
	UpdateCar(ctx context.Context, c *Car) error
	DeleteCar(ctx context.Context, id string) error

	CreateDriver(ctx context.Context, d *Driver) error
	GetDriver(ctx context.Context, id string) (*Driver, error)
	ListDrivers(ctx context.Context) ([]*Driver, error)
	UpdateDriver(ctx context.Context, d *Driver) error
	DeleteDriver(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) CreateCar(ctx context.Context, c *Car) error {
	const query = `
		INSERT INTO cars (name, plate, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, c.Name, c.Plate, string(c.Status)).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPlateTaken
		}
		return fmt.Errorf("create car failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetCar(ctx context.Context, id string) (*Car, error) {
	const query = `
		SELECT id, name, plate, status, created_at
		FROM cars
		WHERE id = $1
	`
	var c Car
	if err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Plate, &c.Status, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("get car failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) ListCars(ctx context.Context) ([]*Car, error) {
	const query = `
		SELECT id, name, plate, status, created_at
		FROM cars
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cars failed: %w", err)
	}
	defer rows.Close()

	var cars []*Car
	for rows.Next() {
		var c Car
		if err := rows.Scan(&c.ID, &c.Name, &c.Plate, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan car failed: %w", err)
		}
		cars = append(cars, &c)
	}
	return cars, rows.Err()
}

func (r *pgxRepository) UpdateCar(ctx context.Context, c *Car) error {
	const query = `
		UPDATE cars
		SET name = $2, plate = $3, status = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Plate, string(c.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPlateTaken
		}
		return fmt.Errorf("update car failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCarNotFound
	}
	return nil
}

func (r *pgxRepository) DeleteCar(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete car failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCarNotFound
	}
	return nil
}

func (r *pgxRepository) CreateDriver(ctx context.Context, d *Driver) error {
	const query = `
		INSERT INTO drivers (name, phone, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query, d.Name, d.Phone, string(d.Status)).Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("create driver failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetDriver(ctx context.Context, id string) (*Driver, error) {
	const query = `
		SELECT id, name, phone, status, created_at
		FROM drivers
		WHERE id = $1
	`
	var d Driver
	if err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("get driver failed: %w", err)
	}
	return &d, nil
}

func (r *pgxRepository) ListDrivers(ctx context.Context) ([]*Driver, error) {
	const query = `
		SELECT id, name, phone, status, created_at
		FROM drivers
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drivers failed: %w", err)
	}
	defer rows.Close()

	var drivers []*Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan driver failed: %w", err)
		}
		drivers = append(drivers, &d)
	}
	return drivers, rows.Err()
}

func (r *pgxRepository) UpdateDriver(ctx context.Context, d *Driver) error {
	const query = `
		UPDATE drivers
		SET name = $2, phone = $3, status = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, d.ID, d.Name, d.Phone, string(d.Status))
	if err != nil {
		return fmt.Errorf("update driver failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverNotFound
	}
	return nil
}

func (r *pgxRepository) DeleteDriver(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete driver failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
