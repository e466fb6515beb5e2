package main

import (
	"context"
	"log"
	"log/slog"

	"social-service/internal/config"
	"social-service/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database migration...")

	ctx := context.Background()
	mongoDB, err := database.NewMongoConnection(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer mongoDB.Close(context.Background())

	slog.Info("Database connection established")

	if err := database.Migrate(ctx, mongoDB.DB); err != nil {
		log.Fatal("Failed to migrate:", err)
	}

	slog.Info("Database migration completed successfully!")
}
