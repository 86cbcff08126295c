package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ttdfeedback/surveybot/internal/adapters/cache"
	"github.com/ttdfeedback/surveybot/internal/adapters/database"
	"github.com/ttdfeedback/surveybot/internal/api/handlers"
	"github.com/ttdfeedback/surveybot/internal/api/routes"
	"github.com/ttdfeedback/surveybot/internal/application/services"
	"github.com/ttdfeedback/surveybot/internal/domain/providers"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/clients/postgres"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/clients/redis"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/notifications"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/observability"
	"github.com/ttdfeedback/surveybot/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Adapters
	sessionAdapter := database.NewSessionAdapter(pgClient)
	feedbackAdapter := database.NewFeedbackAdapter(pgClient)
	eventLogAdapter := database.NewEventLogAdapter(sqlx.NewDb(pgClient.DB(), "postgres"))

	for name, ensure := range map[string]func(context.Context) error{
		"user_sessions":    sessionAdapter.EnsureSchema,
		"feedback_entries": feedbackAdapter.EnsureSchema,
		"webhook_events":   eventLogAdapter.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("table", name).Msg("Failed to ensure database schema")
		}
	}
	log.Info().Msg("Database schema ensured")

	// Redis is optional: webhook dedup falls back to the DB-backed event log
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		log.Info().Msg("Redis client initialized successfully")
	}

	notifier, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize WhatsApp sender")
	}

	// Services
	feedbackService := services.NewFeedbackService(feedbackAdapter)
	conversationService := services.NewConversationService(
		sessionAdapter,
		feedbackService,
		notifier,
		cfg.Survey.Categories,
		metrics,
	)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(conversationService, cacheProvider, eventLogAdapter, &cfg.WhatsApp, metrics)
	healthHandler := handlers.NewHealthHandler(pgClient, &cfg.Health)
	statsHandler := handlers.NewStatsHandler(feedbackService)

	router := routes.NewRouter(webhookHandler, healthHandler, statsHandler, metrics)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting survey bot server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
