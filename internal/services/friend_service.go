package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"social-service/internal/events"
	"social-service/internal/friendship"
	"social-service/internal/metrics"
	"social-service/internal/models"
	"social-service/internal/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type FriendService struct {
	repo      repositories.UserRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewFriendService(repo repositories.UserRepository, publisher events.Publisher) *FriendService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &FriendService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

func parseID(raw, missing, invalid string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, models.NewInvalidArgumentError(missing)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.NewInvalidArgumentError(invalid)
	}
	return id, nil
}

func (s *FriendService) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("User not found")
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// publish hands the event off after the state change has committed. A failure
// here is logged and counted but never undoes or fails the operation.
func (s *FriendService) publish(ctx context.Context, event events.Event) {
	metrics.FriendEventsTotal.WithLabelValues(event.Type).Inc()
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.WithLabelValues(event.Type).Inc()
		slog.Warn("Failed to publish friend event", "type", event.Type, "userID", event.UserID, "error", err)
	}
}

// SendFriendRequest appends a pending request from requesterID to the target's record.
func (s *FriendService) SendFriendRequest(ctx context.Context, requesterID primitive.ObjectID, friendID string) (*models.FriendRequest, error) {
	targetID, err := parseID(friendID, "Friend ID is required", "Invalid friend ID")
	if err != nil {
		return nil, err
	}
	if err := friendship.ValidateSend(requesterID, targetID); err != nil {
		return nil, err
	}

	var requester, target *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.findUser(gctx, requesterID)
		requester = u
		return err
	})
	g.Go(func() error {
		u, err := s.findUser(gctx, targetID)
		target = u
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	req, err := friendship.PlanSend(requester, target, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendFriendRequest(ctx, targetID, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConditionFailed):
			return nil, models.NewConflictError("Friend request already sent")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, models.NewNotFoundError("User not found")
		default:
			return nil, models.NewInternalError(err)
		}
	}

	slog.Info("Friend request sent", "from", requesterID.Hex(), "to", targetID.Hex(), "requestID", req.ID.Hex())
	s.publish(ctx, events.Event{
		Type:      events.TypeFriendRequestSent,
		UserID:    targetID.Hex(),
		ActorID:   requesterID.Hex(),
		RequestID: req.ID.Hex(),
		At:        req.CreatedAt,
	})
	return &req, nil
}

// AcceptFriendRequest accepts a pending request addressed to accepterID and
// links both users as friends.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, accepterID primitive.ObjectID, requestID string) error {
	reqID, err := parseID(requestID, "Request ID is required", "Invalid request ID")
	if err != nil {
		return err
	}

	accepter, err := s.findUser(ctx, accepterID)
	if err != nil {
		return err
	}
	req, err := friendship.PlanAccept(accepter, reqID)
	if err != nil {
		return err
	}

	if err := s.repo.AcceptFriendRequest(ctx, accepterID, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConditionFailed):
			return models.NewConflictError("Friend request already processed")
		case errors.Is(err, repositories.ErrNotFound):
			return models.NewNotFoundError("User not found")
		default:
			return models.NewInternalError(err)
		}
	}

	slog.Info("Friend request accepted", "accepter", accepterID.Hex(), "sender", req.From.Hex(), "requestID", req.ID.Hex())
	s.publish(ctx, events.Event{
		Type:      events.TypeFriendRequestAccepted,
		UserID:    req.From.Hex(),
		ActorID:   accepterID.Hex(),
		RequestID: req.ID.Hex(),
		At:        s.now().UTC(),
	})
	return nil
}

func (s *FriendService) GetFriendRecommendations(ctx context.Context, userID primitive.ObjectID) ([]models.Recommendation, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.Recommend(ctx, userID, user.Friends, friendship.MaxRecommendations)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return recs, nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID primitive.ObjectID) ([]models.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.repo.FindByIDs(ctx, user.Friends)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return models.ToUserResponses(friends), nil
}

// ListPendingRequests returns incoming pending requests, oldest first, with the
// sender's public profile.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.PendingRequestResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending := user.PendingRequests()
	if len(pending) == 0 {
		return []models.PendingRequestResponse{}, nil
	}

	senderIDs := make([]primitive.ObjectID, len(pending))
	for i, r := range pending {
		senderIDs[i] = r.From
	}
	senders, err := s.repo.FindByIDs(ctx, senderIDs)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	out := make([]models.PendingRequestResponse, 0, len(pending))
	for _, r := range pending {
		sender, ok := byID[r.From]
		if !ok {
			continue
		}
		out = append(out, models.PendingRequestResponse{
			ID:        r.ID.Hex(),
			From:      sender.ToResponse(),
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
