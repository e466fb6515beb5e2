package main

// @title           Social Service API
// @version         1.0
// @description     User registration, cookie sessions, friend requests, search and mutual-friend recommendations.
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-service/internal/api/routes"
	"social-service/internal/config"
	"social-service/internal/database"
	"social-service/internal/events"
	"social-service/internal/repositories"
	"social-service/internal/repositories/memory"
	"social-service/internal/repositories/mongodb"
	"social-service/internal/services"
	"social-service/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logger
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Info("Starting social server", "env", cfg.AppEnv, "store", cfg.Store.Driver, "events", cfg.Events.Driver)

	ctx := context.Background()

	// Initialize user store
	var repo repositories.UserRepository
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		slog.Warn("Using in-memory store; data is lost on restart")
		repo = memory.NewUserRepository()
	default:
		mongoDB, err := database.NewMongoConnection(ctx, &cfg.Mongo)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer mongoDB.Close(context.Background())

		if err := database.Migrate(ctx, mongoDB.DB); err != nil {
			slog.Error("Failed to ensure indexes", "error", err)
			os.Exit(1)
		}
		repo = mongodb.NewUserRepository(mongoDB.DB)
	}

	// Initialize Redis connection
	var redisService *services.RedisService
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedisConnection(&cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		redisService = services.NewRedisService(redisClient)
	} else {
		slog.Warn("REDIS_URL is empty; rate limiting, token revocation and notifications are disabled")
	}

	// Initialize event publisher
	publisher, err := newPublisher(cfg, redisService)
	if err != nil {
		slog.Error("Failed to initialize event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// Initialize avatar storage
	var avatars services.AvatarUploader
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewAvatarStore(ctx, &cfg.MinIO)
		if err != nil {
			slog.Error("Failed to connect to MinIO", "error", err)
			os.Exit(1)
		}
		avatars = store
	}

	// Initialize router with all dependencies
	router := routes.NewRouter(routes.Dependencies{
		Config:    cfg,
		Repo:      repo,
		Redis:     redisService,
		Publisher: publisher,
		Avatars:   avatars,
	})
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}

func newPublisher(cfg *config.Config, redisService *services.RedisService) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case config.EventsDriverKafka:
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case config.EventsDriverRedis:
		if redisService == nil {
			slog.Warn("EVENTS_DRIVER=redis but Redis is disabled; events are dropped")
			return events.NoopPublisher{}, nil
		}
		return events.NewRedisPublisher(redisService), nil
	default:
		return events.NoopPublisher{}, nil
	}
}
