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

	"github.com/joho/godotenv"
	"github.com/riskibarqy/bilardeando/internal/app"
	"github.com/riskibarqy/bilardeando/internal/config"
	"github.com/riskibarqy/bilardeando/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	telemetry, err := observability.Setup(cfg, observability.Options{
		Tracing:   true,
		Profiling: true,
		Pprof:     true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	logger := telemetry.Logger

	if err := run(cfg, telemetry); err != nil {
		logger.Error("api stopped with error", "error", err)
		_ = telemetry.Shutdown(context.Background())
		os.Exit(1)
	}
}

func run(cfg config.Config, telemetry *observability.Stack) error {
	logger := telemetry.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	srv, err := app.NewHTTPServer(cfg, services, logger)
	if err != nil {
		_ = services.Close()
		return fmt.Errorf("build http server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"addr", cfg.HTTPAddr,
			"storage", cfg.StorageDriver,
			"payments", cfg.PaymentProvider,
			"auth", cfg.AuthMode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := <-serveErr; err != nil {
		errs = append(errs, fmt.Errorf("serve http: %w", err))
	}
	if err := services.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close services: %w", err))
	}
	logger.Info("http server stopped")
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
