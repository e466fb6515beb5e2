package main

import (
	"context"
	"log"
	"log/slog"

	"social-service/internal/config"
	"social-service/internal/database"
	"social-service/internal/events"
	"social-service/internal/models"
	"social-service/internal/repositories/mongodb"
	"social-service/internal/services"
)

const seedPassword = "123456"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	ctx := context.Background()
	mongoDB, err := database.NewMongoConnection(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer mongoDB.Close(context.Background())

	if err := database.Migrate(ctx, mongoDB.DB); err != nil {
		log.Fatal("Failed to migrate:", err)
	}

	userRepo := mongodb.NewUserRepository(mongoDB.DB)
	sessions := services.NewSessionService(cfg.JWT.Secret, cfg.JWT.ExpirationTime, nil)
	userService := services.NewUserService(userRepo, sessions, nil)
	friendService := services.NewFriendService(userRepo, events.NoopPublisher{})

	// Seed initial users
	slog.Info("Creating initial users...")
	testUsers := []struct {
		fullName string
		username string
	}{
		{"Alice Nguyen", "alice"},
		{"Bob Tran", "bob"},
		{"Charlie Le", "charlie"},
		{"Dave Pham", "dave"},
		{"Eve Hoang", "eve"},
	}

	users := make(map[string]*models.User, len(testUsers))
	for _, u := range testUsers {
		email := u.username + "@social.local"
		_, err := userService.Register(ctx, &models.RegisterRequest{
			FullName: u.fullName,
			Username: u.username,
			Email:    email,
			Password: seedPassword,
		})
		if err != nil && models.KindOf(err) != models.KindConflict {
			log.Fatalf("Failed to create user %s: %v", u.username, err)
		}
		if err != nil {
			slog.Warn("User might already exist", "username", u.username)
		}

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			log.Fatalf("Failed to load user %s: %v", u.username, err)
		}
		users[u.username] = user
	}

	// Friendships that give alice a recommendation list: dave shares two
	// friends with her, eve shares one.
	slog.Info("Creating friendships...")
	pairs := [][2]string{
		{"alice", "bob"},
		{"alice", "charlie"},
		{"bob", "dave"},
		{"charlie", "dave"},
		{"charlie", "eve"},
	}
	for _, p := range pairs {
		from, to := users[p[0]], users[p[1]]
		req, err := friendService.SendFriendRequest(ctx, from.ID, to.ID.Hex())
		if err != nil {
			slog.Warn("Friend request skipped", "from", p[0], "to", p[1], "error", err)
			continue
		}
		if err := friendService.AcceptFriendRequest(ctx, to.ID, req.ID.Hex()); err != nil {
			log.Fatalf("Failed to accept %s -> %s: %v", p[0], p[1], err)
		}
		slog.Info("Friendship created", "a", p[0], "b", p[1])
	}

	slog.Info("Database seeding completed successfully!", "password", seedPassword)
}
