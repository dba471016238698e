/**
 * @description
 * This is the main entry point for the subscription-service.
 * It initializes and wires together all the components of the application,
 * including configuration, database connection, Redis cache, RabbitMQ
 * producer, rate refresh scheduler, repository, service, and the HTTP router.
 * Finally, it starts the HTTP server to listen for incoming requests.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/finflow/subscription-service/internal/api"
	"github.com/finflow/subscription-service/internal/app"
	"github.com/finflow/subscription-service/internal/config"
	"github.com/finflow/subscription-service/internal/store"
	"github.com/finflow/subscription-service/pkg/currencyapi"
	"github.com/finflow/subscription-service/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load a local .env in development; ignore absence in deployed environments
	_ = godotenv.Load()

	// Load application configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the PostgreSQL database with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 25
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Use the simple protocol so the pool works behind transaction poolers
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Optional Redis cache for currency rate lookups
	var redisClient redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("unable to parse Redis URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		logger.Info("redis rate cache enabled")
	}

	// Optional RabbitMQ producer for subscription lifecycle events
	var publisher app.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events disabled", "error", err)
			publisher = &rabbitmq.NoopProducer{}
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	// Initialize application layers
	repository := store.NewPostgresRepository(dbpool)
	currencyRepo := store.NewCurrencyRepository(dbpool)
	rateCache := store.NewRateCache(currencyRepo, redisClient, "finflow:rates", time.Duration(cfg.RateCacheTTLMinutes)*time.Minute)
	converter := app.NewConverter(rateCache)
	service := app.NewService(repository, converter, publisher, logger)
	handler := api.NewHandler(service)
	router := api.NewRouter(handler)

	// Optional currency rate refresh job
	var scheduler *app.Scheduler
	if cfg.CurrencyAPIURL != "" {
		provider := currencyapi.NewClient(cfg.CurrencyAPIURL, cfg.CurrencyAPIKey)
		refresher := app.NewRateRefresher(provider, currencyRepo, rateCache, logger)

		refreshCtx, refreshCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := refresher.Refresh(refreshCtx); err != nil {
			logger.Warn("initial rate refresh failed, serving stored rates", "error", err)
		}
		refreshCancel()

		scheduler = app.NewScheduler(refresher, cfg.RateRefreshSchedule, logger)
		scheduler.Start()
	}

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	// Create a context with a timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Attempt to gracefully shut down the server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
