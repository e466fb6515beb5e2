package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"social-service/internal/models"
	"social-service/internal/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// SearchLimit caps the number of users a single search returns.
const SearchLimit = 20

// AvatarUploader stores an avatar image and returns the URL it is served from.
type AvatarUploader interface {
	Upload(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error)
}

type UserService struct {
	repo     repositories.UserRepository
	sessions *SessionService
	avatars  AvatarUploader
}

// NewUserService wires the user operations. avatars may be nil when object
// storage is not configured; avatar uploads then report the feature unavailable.
func NewUserService(repo repositories.UserRepository, sessions *SessionService, avatars AvatarUploader) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		avatars:  avatars,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	fullName := strings.TrimSpace(req.FullName)
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)
	if fullName == "" || username == "" || email == "" || req.Password == "" {
		return nil, models.NewInvalidArgumentError("Please provide all required fields")
	}

	existing, err := s.repo.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		if existing.Email == email {
			return nil, models.NewConflictError("Email already registered")
		}
		return nil, models.NewConflictError("Username already taken")
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, models.NewInternalError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		FullName: fullName,
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Lost a race with a concurrent registration for the same identity.
			return nil, models.NewConflictError("User already exists")
		}
		return nil, models.NewInternalError(err)
	}

	slog.Info("User registered", "userID", user.ID.Hex(), "username", user.Username)
	resp := user.ToResponse()
	return &resp, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, models.NewInvalidArgumentError("Please enter email and password")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewUnauthorizedError("Invalid email or password")
		}
		return nil, models.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	token, expiresAt, err := s.sessions.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	slog.Info("User logged in", "userID", user.ID.Hex())
	return &models.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("User not found")
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.UserResponse, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Search never returns the requester. No matches is an empty list, not an error.
func (s *UserService) Search(ctx context.Context, requesterID primitive.ObjectID, query string) ([]models.UserResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewInvalidArgumentError("Search query is required")
	}

	users, err := s.repo.Search(ctx, requesterID, query, SearchLimit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return models.ToUserResponses(users), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, r io.Reader, size int64, contentType string) (*models.UserResponse, error) {
	if s.avatars == nil {
		return nil, models.NewUnavailableError("Avatar uploads are not configured")
	}

	url, err := s.avatars.Upload(ctx, userID.Hex(), r, size, contentType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.repo.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("User not found")
		}
		return nil, models.NewInternalError(err)
	}
	return s.GetProfile(ctx, userID)
}
