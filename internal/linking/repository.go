package linking

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
	// Replace drops the user's previous token and stores t.
	Replace(ctx context.Context, t *Token) error
	// Consume deletes and returns the token with the given code.
	Consume(ctx context.Context, code string) (*Token, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Replace(ctx context.Context, t *Token) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM link_tokens WHERE user_id = $1`, t.UserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO link_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
			t.Code, t.UserID, t.ExpiresAt)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrCodeCollision
		}
		return fmt.Errorf("replace link token failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Consume(ctx context.Context, code string) (*Token, error) {
	t := Token{Code: code}
	err := r.pool.QueryRow(ctx,
		`DELETE FROM link_tokens WHERE token = $1 RETURNING user_id, expires_at`, code,
	).Scan(&t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("consume link token failed: %w", err)
	}
	return &t, nil
}
