package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/denizaksu/calcgate/internal/config"
	"github.com/denizaksu/calcgate/internal/database"
	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/handlers"
	"github.com/denizaksu/calcgate/internal/logging"
	"github.com/denizaksu/calcgate/internal/middleware"
	"github.com/denizaksu/calcgate/internal/notify"
	"github.com/denizaksu/calcgate/internal/otp"
	"github.com/denizaksu/calcgate/internal/rbac"
	"github.com/denizaksu/calcgate/internal/routes"
	"github.com/denizaksu/calcgate/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	if err := database.Seed(database.DB, cfg); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Retention janitor (old logs, expired OTP sessions, dead refresh tokens)
	retentionDone := make(chan struct{})
	logging.StartRetention(database.DB, retentionDone)

	// Out-of-band delivery channel
	var notifier notify.Notifier
	if cfg.SMSGatewayURL != "" {
		notifier = notify.NewSMSGateway(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSSender)
	} else {
		slog.Warn("SMS_GATEWAY_URL not set, one-time codes will be written to the log")
		notifier = notify.LogNotifier{}
	}

	// Services
	roleStore := rbac.NewStore(database.DB)
	identityService := services.NewIdentityService(database.DB)
	historyService := services.NewHistoryService(database.DB)
	sessionStore := otp.NewDBSessionStore(database.DB)
	authService := services.NewAuthService(database.DB, cfg, identityService, sessionStore, notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, identityService)
	calculateHandler := handlers.NewCalculateHandler(roleStore, historyService)
	adminUsersHandler := handlers.NewAdminUsersHandler(identityService)
	adminRolesHandler := handlers.NewAdminRolesHandler(roleStore)
	adminHistoryHandler := handlers.NewAdminHistoryHandler(historyService)
	healthHandler := handlers.NewHealthHandler()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))

	// Routes
	routes.Setup(app, cfg, authHandler, calculateHandler, adminUsersHandler, adminRolesHandler, adminHistoryHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(retentionDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
