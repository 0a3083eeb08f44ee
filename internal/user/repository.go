package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id string, t time.Time) error
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{pool: pool}
}

var userColumns = []string{
	"id", "username", "password_hash", "first_name", "last_name", "email", "phone",
	"department", "role", "line_user_id", "is_active", "must_change_password",
	"created_at", "last_login_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxUserRepository) getOne(ctx context.Context, where squirrel.Eq) (*User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query failed: %w", err)
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return u, nil
}

func (r *pgxUserRepository) Create(ctx context.Context, u *User) error {
	query, args, err := psql.Insert("users").
		Columns(
			"username", "password_hash", "first_name", "last_name", "email", "phone",
			"department", "role", "is_active", "must_change_password",
		).
		Values(
			u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Email, u.Phone,
			u.Department, string(u.Role), u.IsActive, u.MustChangePassword,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create user query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, t)
	if err != nil {
		return fmt.Errorf("update last login failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	sb := psql.Select(userColumns...).From("users")
	if filter.Department != "" {
		sb = sb.Where(squirrel.Eq{"department": filter.Department})
	}
	if filter.Role != "" {
		sb = sb.Where(squirrel.Eq{"role": string(filter.Role)})
	}
	if filter.IsActive != nil {
		sb = sb.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	query, args, err := sb.OrderBy("username ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user failed: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *pgxUserRepository) Update(ctx context.Context, u *User) error {
	var lineID *string
	if u.LineUserID != "" {
		lineID = &u.LineUserID
	}

	query, args, err := psql.Update("users").
		Set("password_hash", u.PasswordHash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("email", u.Email).
		Set("phone", u.Phone).
		Set("department", u.Department).
		Set("role", string(u.Role)).
		Set("line_user_id", lineID).
		Set("is_active", u.IsActive).
		Set("must_change_password", u.MustChangePassword).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrLineAlreadyLinked
		}
		return fmt.Errorf("update user failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u      User
		lineID *string
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.Department, &u.Role, &lineID, &u.IsActive, &u.MustChangePassword,
		&u.CreatedAt, &u.LastLoginAt,
	); err != nil {
		return nil, err
	}
	if lineID != nil {
		u.LineUserID = *lineID
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var e *pgconn.PgError
	return errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation
}
