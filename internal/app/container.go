package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/car-booking-backend/internal/api"
	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	"github.com/nekogravitycat/car-booking-backend/internal/config"
	"github.com/nekogravitycat/car-booking-backend/internal/fleet"
	"github.com/nekogravitycat/car-booking-backend/internal/linking"
	"github.com/nekogravitycat/car-booking-backend/internal/lock"
	"github.com/nekogravitycat/car-booking-backend/internal/notification"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	App    *config.Config
	DBPool *pgxpool.Pool
	Logger *slog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router    *gin.Engine
	Scheduler gocron.Scheduler

	redis *redis.Client
}

// NewContainer initializes all modules and returns the container.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	appCfg, logger := cfg.App, cfg.Logger
	c := &Container{}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(appCfg.BcryptCost)
	jwtManager := auth.NewJWTManager(appCfg.JWTSecret, appCfg.JWTAccessTokenTTL)
	zone := booking.NewZone(appCfg.Location)

	locker, err := c.newLocker(ctx, appCfg, logger)
	if err != nil {
		return nil, err
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)
	if appCfg.BootstrapAdminUsername != "" {
		if err := userService.EnsureAdmin(ctx, appCfg.BootstrapAdminUsername, appCfg.BootstrapAdminPassword); err != nil {
			c.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	// Fleet Module
	fleetService := fleet.NewService(fleet.NewPgxRepository(cfg.DBPool))

	// Notification Module
	lineSink, sink, err := newSink(appCfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	adminChannel := notification.NewAdminChannel(
		notification.NewPgxSettings(cfg.DBPool), appCfg.AdminChannelID, appCfg.AdminEmail)
	if err := adminChannel.Load(ctx); err != nil {
		c.Close()
		return nil, err
	}
	dispatcher := notification.NewDispatcher(sink, notification.NewUserDirectory(userService), adminChannel, logger)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, fleetService, locker, dispatcher, booking.Config{
		Zone:         zone,
		BookingGrace: appCfg.BookingGrace,
		StoreTimeout: appCfg.StoreTimeout,
	})

	trigger := notification.NewTrigger(bookingRepo, dispatcher, notification.TriggerConfig{
		Zone:          zone,
		NearEndWindow: appCfg.NearEndWindow,
	}, logger)
	// Only a shared locker elects a leader; a local one would just serialize a single replica.
	var leader lock.Locker
	if c.redis != nil {
		leader = locker
	}
	c.Scheduler, err = notification.NewScheduler(trigger, appCfg.TriggerEvery, nil, leader, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	// Linking Module
	var pusher linking.Pusher
	if lineSink != nil {
		pusher = lineSink
	}
	linkingService := linking.NewService(linking.NewPgxRepository(cfg.DBPool), userService, adminChannel, pusher,
		linking.Config{TokenTTL: appCfg.LinkTokenTTL}, logger)
	if appCfg.LineChannelSecret == "" {
		logger.Warn("LINE_CHANNEL_SECRET not set, webhook signatures are not verified")
	}

	// Router
	c.Router = api.NewRouter(api.Config{
		IsProduction:      appCfg.IsProduction,
		ProdOrigins:       appCfg.ProdOrigins,
		Logger:            logger,
		UserService:       userService,
		FleetService:      fleetService,
		BookingService:    bookingService,
		LinkingService:    linkingService,
		LineChannelSecret: appCfg.LineChannelSecret,
		JWTManager:        jwtManager,
	})

	return c, nil
}

// Close releases connections the container opened. The scheduler is shut
// down by its owner.
func (c *Container) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

// newLocker shares locks through Redis when REDIS_URL is set, otherwise
// locks are process-local.
func (c *Container) newLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lock.Locker, error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-process locks")
		return lock.NewLocalLocker(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	c.redis = client
	logger.Info("using redis locks", "addr", opts.Addr)
	return lock.NewRedisLocker(client, cfg.LockTTL), nil
}

// newSink fans out to every configured channel and falls back to the log.
func newSink(cfg *config.Config, logger *slog.Logger) (*notification.LineSink, notification.Sink, error) {
	var (
		sinks    notification.MultiSink
		lineSink *notification.LineSink
	)

	if cfg.LineAccessToken != "" {
		lineSink = notification.NewLineSink(cfg.LineAccessToken)
		sinks = append(sinks, lineSink)
	}
	if cfg.SMTP.Enabled() {
		mailSink, err := notification.NewMailSink(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, mailSink)
	}
	if len(sinks) == 0 {
		logger.Warn("no notification channel configured, notifications are logged only")
		return nil, notification.LogSink{Logger: logger}, nil
	}
	return lineSink, sinks, nil
}
