// Command notifier relays friend events from Kafka to per-user Redis channels,
// where the API's WebSocket streams pick them up.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"social-service/internal/config"
	"social-service/internal/database"
	"social-service/internal/events"
	"social-service/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if len(cfg.Kafka.Brokers) == 0 || cfg.Redis.URL == "" {
		log.Fatal("KAFKA_BROKERS and REDIS_URL are required")
	}

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	reader := events.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Notifier started", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	sink := events.NewRedisPublisher(services.NewRedisService(redisClient))
	if err := events.Relay(ctx, reader, sink); err != nil {
		slog.Error("Notifier stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Notifier stopped")
}
