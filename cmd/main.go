package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"zarinpal/internal/config"
	cronpkg "zarinpal/internal/cron"
	"zarinpal/internal/middleware"
	"zarinpal/internal/payment"
	"zarinpal/internal/pkg/httpclient"
	"zarinpal/internal/router"
)

func main() {
	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger, err := newLogger(cfg.Server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Gateway client ---
	env := payment.Production
	if cfg.ZarinPal.Sandbox {
		env = payment.Sandbox
	}
	// Payment requests are never retried; verify and unverified may be.
	retrying := httpclient.New().
		WithTimeout(cfg.ZarinPal.Timeout).
		WithRetry(cfg.ZarinPal.Retries, 500*time.Millisecond, 2*time.Second)
	gateway, err := payment.NewZarinPal(
		cfg.ZarinPal.Merchant,
		env,
		payment.WithTransport(httpclient.New().WithTimeout(cfg.ZarinPal.Timeout)),
		payment.WithRetryTransport(retrying),
		payment.WithLogger(logger.Named("zarinpal")),
	)
	if err != nil {
		logger.Fatal("Invalid ZarinPal configuration", zap.Error(err))
	}

	// --- Idempotency keys (Redis with in-memory fallback) ---
	claimer, claimErr := middleware.NewKeyClaimer(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Idempotency.TTL,
	)
	if claimErr != nil {
		logger.Warn("Redis unavailable for idempotency keys, using in-memory fallback", zap.Error(claimErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true
	router.Setup(e, gateway, logger, cfg.API.Key, claimer)

	// --- Cron Scheduler ---
	var scheduler *cronpkg.Scheduler
	if cfg.ZarinPal.UnverifiedSchedule != "" {
		scheduler = cronpkg.New(gateway, cfg.ZarinPal.Timeout, logger)
		if err := scheduler.Start(cfg.ZarinPal.UnverifiedSchedule); err != nil {
			logger.Fatal("Invalid unverified sweep schedule", zap.Error(err))
		}
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting payment gateway server",
			zap.String("addr", addr),
			zap.String("environment", env.String()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.ServerConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
