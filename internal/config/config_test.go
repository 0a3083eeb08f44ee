package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffset(t *testing.T) {
	loc, err := ParseOffset("+07:00")
	require.NoError(t, err)
	_, off := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7*3600, off)

	loc, err = ParseOffset("-03:30")
	require.NoError(t, err)
	_, off = time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -(3*3600 + 30*60), off)

	loc, err = ParseOffset("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	for _, bad := range []string{"7", "+7:00", "+15:00", "+07:60", ""} {
		_, err := ParseOffset(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")
}

func TestLoadRejectsEmptyOffset(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/cars")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TIME_OFFSET", "")

	cfg, err := Load()
	assert.ErrorContains(t, err, "TIME_OFFSET")
	assert.Nil(t, cfg)
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/cars")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TIME_OFFSET", "+07:00")
	t.Setenv("BOOKING_GRACE", "10m")
	t.Setenv("TRIGGER_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.BookingGrace)
	assert.Equal(t, 30*time.Second, cfg.TriggerEvery)
	assert.Equal(t, 30*time.Minute, cfg.NearEndWindow)

	t.Setenv("LOCK_TTL", "-1s")
	_, err = Load()
	assert.ErrorContains(t, err, "LOCK_TTL")
}

func TestLoadProductionNeedsOrigins(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/cars")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PROD_ORIGINS", "")

	_, err := Load()
	assert.ErrorContains(t, err, "PROD_ORIGINS")
}

func TestLoadBootstrapAdminNeedsPassword(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/cars")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TIME_OFFSET", "+07:00")
	t.Setenv("BOOTSTRAP_ADMIN_USERNAME", "admin")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "BOOTSTRAP_ADMIN_PASSWORD")
}
