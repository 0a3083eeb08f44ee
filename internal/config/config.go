package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	LogLevel          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	// Reservation windows are calendar-local; Location pins them to absolute time.
	Location      *time.Location
	BookingGrace  time.Duration
	NearEndWindow time.Duration
	TriggerEvery  time.Duration
	StoreTimeout  time.Duration
	LockTTL       time.Duration

	// Optional: shared locks and trigger leader election across replicas.
	RedisURL string

	LineAccessToken   string
	LineChannelSecret string
	LinkTokenTTL      time.Duration

	// Created at startup when no account with this username exists.
	BootstrapAdminUsername string
	BootstrapAdminPassword string

	SMTP           SMTPConfig
	AdminChannelID string
	AdminEmail     string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough is configured to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	cfg := &Config{}
	var err error

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	if cfg.IsProduction && cfg.ProdOrigins == "" {
		return nil, fmt.Errorf("PROD_ORIGINS is required when APP_ENV=%s", PROD_STRING)
	}
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	if cfg.Location, err = ParseOffset(getEnv("TIME_OFFSET", "+07:00")); err != nil {
		return nil, fmt.Errorf("invalid TIME_OFFSET: %w", err)
	}
	if cfg.BookingGrace, err = getEnvAsDuration("BOOKING_GRACE", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.NearEndWindow, err = getEnvAsDuration("NEAR_END_WINDOW", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TriggerEvery, err = getEnvAsDuration("TRIGGER_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getEnvAsDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.LockTTL, err = getEnvAsDuration("LOCK_TTL", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.LineAccessToken = getEnv("LINE_CHANNEL_ACCESS_TOKEN", "")
	cfg.LineChannelSecret = getEnv("LINE_CHANNEL_SECRET", "")
	if cfg.LinkTokenTTL, err = getEnvAsDuration("LINK_TOKEN_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.BootstrapAdminUsername = getEnv("BOOTSTRAP_ADMIN_USERNAME", "")
	cfg.BootstrapAdminPassword = getEnv("BOOTSTRAP_ADMIN_PASSWORD", "")
	if cfg.BootstrapAdminUsername != "" && cfg.BootstrapAdminPassword == "" {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_USERNAME is set")
	}

	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	if cfg.SMTP.Port, err = getEnvAsInt("SMTP_PORT", 587); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", "")

	cfg.AdminChannelID = getEnv("ADMIN_CHANNEL_ID", "")
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", "")

	return cfg, nil
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// ParseOffset turns "+07:00" style offsets into a fixed zone.
func ParseOffset(s string) (*time.Location, error) {
	if s == "Z" || s == "UTC" {
		return time.UTC, nil
	}
	m := offsetPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("offset %q must look like +07:00", s)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset %q out of range", s)
	}
	secs := hours*3600 + minutes*60
	if m[1] == "-" {
		secs = -secs
	}
	return time.FixedZone("UTC"+s, secs), nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("env %s must be positive, got %q", key, valStr)
	}

	return val, nil
}
