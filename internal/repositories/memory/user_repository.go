// Package memory is a process-local user store used for local development
// (STORE_DRIVER=memory) and tests. A single mutex serialises every write, which
// gives the same all-or-nothing behaviour the MongoDB store gets from
// conditional updates and transactions.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"social-service/internal/friendship"
	"social-service/internal/models"
	"social-service/internal/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository struct {
	mu    sync.RWMutex
	order []primitive.ObjectID // insertion order
	users map[primitive.ObjectID]*models.User
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

// clone deep-copies a user so callers never share slices with the store.
func clone(u *models.User) *models.User {
	c := *u
	c.Friends = append([]primitive.ObjectID{}, u.Friends...)
	c.FriendRequests = append([]models.FriendRequest{}, u.FriendRequests...)
	return &c
}

func public(u *models.User) models.User {
	c := *clone(u)
	c.Password = ""
	c.FriendRequests = nil
	return c
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("create user %s: %w", user.Username, repositories.ErrDuplicateKey)
		}
	}

	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.FriendRequests == nil {
		user.FriendRequests = []models.FriendRequest{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = clone(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Email == email || u.Username == username {
			return clone(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := []models.User{}
	for _, id := range r.order {
		if _, ok := want[id]; ok {
			out = append(out, public(r.users[id]))
		}
	}
	return out, nil
}

func (r *UserRepository) Search(_ context.Context, excludeID primitive.ObjectID, query string, limit int) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := []models.User{}
	for _, id := range r.order {
		if id == excludeID {
			continue
		}
		u := r.users[id]
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(u.FullName), q) {
			out = append(out, public(u))
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *UserRepository) AppendFriendRequest(_ context.Context, targetID primitive.ObjectID, req models.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.users[targetID]
	if !ok {
		return repositories.ErrNotFound
	}
	if target.IsFriend(req.From) || target.HasRequestFrom(req.From) {
		return repositories.ErrConditionFailed
	}
	target.FriendRequests = append(target.FriendRequests, req)
	target.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) AcceptFriendRequest(_ context.Context, accepterID primitive.ObjectID, req models.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accepter, ok := r.users[accepterID]
	if !ok {
		return repositories.ErrNotFound
	}
	sender, ok := r.users[req.From]
	if !ok {
		return repositories.ErrNotFound
	}

	// Work on copies and swap them in only when both sides succeeded.
	a, s := clone(accepter), clone(sender)
	if err := friendship.Apply(a, s, req.ID); err != nil {
		return fmt.Errorf("%w: %v", repositories.ErrConditionFailed, err)
	}
	now := time.Now().UTC()
	a.UpdatedAt, s.UpdatedAt = now, now
	r.users[accepterID] = a
	r.users[req.From] = s
	return nil
}

func (r *UserRepository) Recommend(_ context.Context, userID primitive.ObjectID, friends []primitive.ObjectID, limit int) ([]models.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]models.User, 0, len(r.order))
	for _, id := range r.order {
		candidates = append(candidates, *r.users[id])
	}
	return friendship.Rank(userID, friends, candidates, limit), nil
}

func (r *UserRepository) UpdateAvatar(_ context.Context, id primitive.ObjectID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Avatar = url
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) Ping(context.Context) error {
	return nil
}
