package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldpilot/fieldops-ai-platform/cmd/mainconfig"
	"github.com/fieldpilot/fieldops-ai-platform/internal/api/router"
	"github.com/fieldpilot/fieldops-ai-platform/internal/app/bootstrap"
	"github.com/fieldpilot/fieldops-ai-platform/internal/appointments"
	"github.com/fieldpilot/fieldops-ai-platform/internal/calls"
	appconfig "github.com/fieldpilot/fieldops-ai-platform/internal/config"
	"github.com/fieldpilot/fieldops-ai-platform/internal/customers"
	"github.com/fieldpilot/fieldops-ai-platform/internal/extraction"
	"github.com/fieldpilot/fieldops-ai-platform/internal/http/handlers"
	"github.com/fieldpilot/fieldops-ai-platform/internal/notify"
	observemetrics "github.com/fieldpilot/fieldops-ai-platform/internal/observability/metrics"
	"github.com/fieldpilot/fieldops-ai-platform/internal/quickbooks"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

func main() {
	// Load .env file when present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting fieldops-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Initialize repositories: Postgres when configured, in-memory otherwise.
	var (
		callsRepo        calls.Repository
		customersRepo    customers.Repository
		appointmentsRepo appointments.Repository
		pool             *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		callsRepo = calls.NewPostgresRepository(pool)
		customersRepo = customers.NewPostgresRepository(pool)
		appointmentsRepo = appointments.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		callsRepo = calls.NewInMemoryRepository()
		customersRepo = customers.NewInMemoryRepository()
		appointmentsRepo = appointments.NewInMemoryRepository()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	tracker := bootstrap.BuildTracker(cfg, pool, redisClient, logger)

	// Owner notifications
	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sg != nil {
			emailSender = sg
		}
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		if ses := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger); ses != nil {
			emailSender = ses
		}
	default:
		emailSender = notify.NewStubEmailSender(logger)
	}
	if emailSender == nil {
		logger.Warn("email provider not fully configured, owner notifications disabled", "provider", cfg.EmailProvider)
	}
	notifier := notify.NewService(notify.ServiceConfig{
		Email:      emailSender,
		OwnerEmail: cfg.OwnerEmail,
		OwnerName:  cfg.OwnerName,
		Logger:     logger,
	})

	// Intake pipeline
	extractor := extraction.NewExtractor()
	intake := appointments.NewIntakeService(appointments.IntakeConfig{
		Calls:        callsRepo,
		Customers:    customersRepo,
		Appointments: appointmentsRepo,
		Notifier:     notifier,
		Logger:       logger,
	})
	intakeMetrics := observemetrics.NewIntakeMetrics(nil)

	// Initialize handlers
	webhookHandler := handlers.NewVAPIWebhookHandler(handlers.VAPIWebhookConfig{
		Calls:     callsRepo,
		Intake:    intake,
		Extractor: extractor,
		Processed: tracker,
		Logger:    logger,
		Secret:    cfg.VAPIWebhookSecret,
		Metrics:   intakeMetrics,
	})
	processHandler := handlers.NewProcessHandler(handlers.ProcessConfig{
		Extractor: extractor,
		Logger:    logger,
		Metrics:   intakeMetrics,
	})
	adminHandler := handlers.NewAdminIntakeHandler(handlers.AdminIntakeConfig{
		Calls:        callsRepo,
		Appointments: appointmentsRepo,
		Logger:       logger,
	})
	var billingHandler *handlers.AdminBillingHandler
	if cfg.QuickBooksRealmID != "" && cfg.QuickBooksAccessToken != "" {
		qb, err := quickbooks.New(quickbooks.Config{
			BaseURL:     cfg.QuickBooksBaseURL,
			RealmID:     cfg.QuickBooksRealmID,
			AccessToken: cfg.QuickBooksAccessToken,
			Timeout:     cfg.QuickBooksTimeout,
		})
		if err != nil {
			logger.Error("failed to configure quickbooks client", "error", err)
			os.Exit(1)
		}
		billingHandler = handlers.NewAdminBillingHandler(handlers.AdminBillingConfig{
			Syncer: qb,
			Logger: logger,
		})
	} else {
		logger.Warn("quickbooks not configured, billing endpoints disabled")
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		VAPIWebhooks:       webhookHandler,
		Process:            processHandler,
		AdminIntake:        adminHandler,
		AdminBilling:       billingHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRateLimit:   cfg.WebhookRateLimit,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
