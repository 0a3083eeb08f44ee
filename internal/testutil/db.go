// Package testutil holds helpers for integration tests. They skip when
// TEST_DB_DSN is unset so unit tests run without a database.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/car-booking-backend/internal/db"
)

const dsnEnv = "TEST_DB_DSN"

var (
	migrateOnce sync.Once
	migrateErr  error
)

// NewPool returns a pool on a migrated test database, closed at test cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}

	migrateOnce.Do(func() {
		migrateErr = db.Migrate(context.Background(), dsn)
	})
	if migrateErr != nil {
		t.Fatalf("testutil: migrate: %v", migrateErr)
	}

	pool, err := db.NewPool(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil: open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// Truncate empties the given tables.
func Truncate(t *testing.T, pool *pgxpool.Pool, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := pool.Exec(context.Background(), "TRUNCATE "+table+" CASCADE"); err != nil {
			t.Fatalf("testutil: truncate %s: %v", table, err)
		}
	}
}
