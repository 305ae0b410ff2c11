package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sangkips/foodbridge-api/internal/application/service"
	"github.com/sangkips/foodbridge-api/internal/config"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/database"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/logging"
	"github.com/sangkips/foodbridge-api/internal/infrastructure/repository"
	"github.com/sangkips/foodbridge-api/internal/metrics"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/handler"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/routes"
	"github.com/sangkips/foodbridge-api/pkg/email"
	"github.com/sangkips/foodbridge-api/pkg/events"
	"github.com/sangkips/foodbridge-api/pkg/utils"
	log "github.com/sirupsen/logrus"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	logCloser := logging.Setup(cfg.Log)
	defer logCloser.Close()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Open(&cfg.Database, cfg.App.Debug && cfg.App.Env != "production")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	if cfg.Database.Seed {
		if err := database.SeedDemoData(db); err != nil {
			log.WithError(err).Warn("Failed to seed demo data")
		}
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	batchRepo := repository.NewBatchRunRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	publisher, err := events.NewPublisherFromConfig(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize event publisher, events are disabled")
		publisher = events.NewNullPublisher()
	}
	defer publisher.Close()

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		AppName:      cfg.Receipt.IssuerName,
	})

	receiptService := service.NewReceiptService(
		orderRepo,
		receiptRepo,
		batchRepo,
		service.NewPDFRenderer(cfg.Receipt),
		publisher,
		emailService,
		metrics.New(registry),
		cfg.Receipt,
	)

	var validator *utils.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		validator = utils.NewTokenValidator(cfg.Auth.JWTSecret)
	} else {
		log.Warn("AUTH_JWT_SECRET is not set, API routes are unauthenticated")
	}

	rateLimiter := routes.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Stop()

	router := routes.Setup(&routes.Handlers{
		Health:  handler.NewHealthHandler(db, cfg.App.Name),
		Receipt: handler.NewReceiptHandler(receiptService),
	}, &routes.Deps{
		TokenValidator:  validator,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Gatherer:        registry,
		RateLimiter:     rateLimiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(idempotencyCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := idempotencyRepo.DeleteExpired(ctx); err != nil {
					log.WithError(err).Warn("Failed to purge expired idempotency keys")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// batch archives can take a while to render
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.WithFields(log.Fields{"port": port, "env": cfg.App.Env}).Infof("Starting %s server", cfg.App.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	receiptService.Flush()
}
