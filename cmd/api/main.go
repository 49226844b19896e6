package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/debtflow/debtflow-api/docs" // Swagger docs
	"github.com/debtflow/debtflow-api/internal/ai"
	"github.com/debtflow/debtflow-api/internal/config"
	"github.com/debtflow/debtflow-api/internal/database"
	"github.com/debtflow/debtflow-api/internal/handlers"
	"github.com/debtflow/debtflow-api/internal/jobs"
	"github.com/debtflow/debtflow-api/internal/middleware"
	"github.com/debtflow/debtflow-api/internal/processor"
	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/internal/services"
	"github.com/debtflow/debtflow-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title DebtFlow API
// @version 1.0
// @description REST API for the DebtFlow collections case management system

// @contact.name API Support
// @contact.email support@debtflow.app

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set. Payment link emails will be skipped.")
	}
	if cfg.StrictReconciliation {
		logger.Info("Strict reconciliation enabled: settlement events only apply to pending payments")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Payment processor client
	stripeClient := processor.NewStripeClient(processor.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	})

	// Transcript analysis
	var extractor services.PaymentInfoExtractor
	if cfg.AnthropicAPIKey != "" {
		extractor = ai.NewClient(cfg.AnthropicAPIKey)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, transcript analysis disabled")
	}

	// Initialize services
	svcs := services.NewServices(repos, stripeClient, extractor, worker, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, stripeClient)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Processor and assistant callbacks (public, verified by signature)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/stripe", h.Webhook.Stripe)
			webhooks.POST("/assistant", h.Webhook.Assistant)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Organization
			protected.GET("/organizations/current", h.Organization.Current)
			protected.POST("/organizations", h.Organization.Create)

			// Debtors
			protected.GET("/debtors", h.Debtor.Index)
			protected.POST("/debtors", h.Debtor.Create)
			protected.GET("/debtors/:debtor_id", h.Debtor.Show)
			protected.PUT("/debtors/:debtor_id", h.Debtor.Update)

			// Cases (export before :case_id so it is not matched as an id)
			protected.GET("/cases/export", h.Case.Export)
			protected.GET("/cases", h.Case.Index)
			protected.POST("/cases", h.Case.Create)
			protected.GET("/cases/:case_id", h.Case.Show)
			protected.PATCH("/cases/:case_id", h.Case.Update)
			protected.POST("/cases/:case_id/transition", h.Case.Transition)
			protected.GET("/cases/:case_id/events", h.Case.Events)
			protected.GET("/cases/:case_id/payments", h.Payment.IndexByCase)

			// Payments
			protected.POST("/payments/links", h.Payment.CreateLink)
			protected.GET("/payments/:payment_id", h.Payment.Show)
			protected.POST("/payments/:payment_id/cancel", h.Payment.Cancel)

			// Stats
			protected.GET("/stats/overview", h.Stats.Overview)

			// Worker status (owner only)
			protected.GET("/jobs/status", middleware.RequireOwner(), h.Job.Status)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Flag cases with overdue next actions every hour
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Flagging overdue next actions...")
		return svcs.Case.FlagNextActionDue(ctx)
	})

	// Refresh the stats cache every 15 minutes, warming it at startup
	worker.ScheduleEveryImmediate(15*time.Minute, func(ctx context.Context) error {
		logger.Info("[Job] Refreshing stats cache...")
		svcs.Stats.RefreshAll(ctx)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
