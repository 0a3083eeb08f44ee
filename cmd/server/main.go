package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/app"
	"github.com/nekogravitycat/car-booking-backend/internal/config"
	"github.com/nekogravitycat/car-booking-backend/internal/db"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	// Migrate and connect DB
	if err := db.Migrate(ctx, cfg.DBDSN); err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	container, err := app.NewContainer(ctx, app.Config{App: cfg, DBPool: pool, Logger: logger})
	if err != nil {
		return err
	}
	defer container.Close()

	container.Scheduler.Start()
	defer func() {
		if err := container.Scheduler.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown", "err", err)
		}
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", cfg.HTTPAddr, "production", cfg.IsProduction)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", "err", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
