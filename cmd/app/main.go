package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deliveryhub/cmd"
	"deliveryhub/internal/adapters/out/eventlog"
	"deliveryhub/internal/adapters/out/postgres/deliveryrepo"
	"deliveryhub/internal/adapters/out/postgres/settingsrepo"
	"deliveryhub/internal/adapters/out/rabbitmq"
	"deliveryhub/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: configs.LogLevel}))
	slog.SetDefault(logger)

	gormDB := mustGormDB(configs.DB)

	publisher, closePublisher := eventPublisher(configs.RabbitMQ, logger)
	defer closePublisher()

	app, err := cmd.NewCompositionRoot(*configs, gormDB, publisher, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(ctx, app, configs.HTTPPort, logger)
}

func mustGormDB(cfg cmd.DB) *gorm.DB {
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err = gormDB.AutoMigrate(&deliveryrepo.DeliveryDTO{}, &settingsrepo.SettingsDTO{}); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	return gormDB
}

// eventPublisher falls back to logging status changes when no broker is configured
// or the broker cannot be reached at startup.
func eventPublisher(cfg cmd.RabbitMQ, logger *slog.Logger) (ports.EventPublisher, func()) {
	if cfg.URL == "" {
		return eventlog.NewPublisher(logger), func() {}
	}

	publisher, err := rabbitmq.Dial(rabbitmq.Config{URL: cfg.URL, Exchange: cfg.Exchange}, logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable, status changes go to the log only", "error", err)
		return eventlog.NewPublisher(logger), func() {}
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Closing RabbitMQ connection failed", "error", err)
		}
	}
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port int, logger *slog.Logger) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "Request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "Request handled", attrs...)
			return nil
		},
	}))

	app.CreateHTTPServer().Register(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%d", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
}
