package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	redisstore "fleet/internal/redis"
	"fleet/internal/repository"
)

// UserService handles the user registry.
type UserService struct {
	store repository.Store
	cache *redisstore.CacheStore
}

// NewUserService creates a new UserService.
func NewUserService(store repository.Store, cache *redisstore.CacheStore) *UserService {
	return &UserService{store: store, cache: cache}
}

// RegisterUserRequest contains the parameters for registering a user.
type RegisterUserRequest struct {
	Name           string
	Role           domain.Role
	ChannelAddress string // optional; empty means the user cannot be notified
}

// RegisterUser adds a user to the registry.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	if req.Name == "" {
		return nil, ErrInvalidUserID
	}

	role := req.Role
	if role == "" {
		role = domain.RoleEmployee
	}

	user := &domain.User{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Role:           role,
		ChannelAddress: req.ChannelAddress,
		CreatedAt:      time.Now(),
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by ID, serving from cache when possible.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if s.cache != nil {
		if cached, err := s.cache.GetUser(ctx, userID); err == nil && cached != nil {
			return &domain.User{
				ID:             cached.ID,
				Name:           cached.Name,
				Role:           domain.Role(cached.Role),
				ChannelAddress: cached.ChannelAddress,
			}, nil
		}
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetUser(ctx, &redisstore.CachedUser{
			ID:             user.ID,
			Name:           user.Name,
			Role:           string(user.Role),
			ChannelAddress: user.ChannelAddress,
		})
	}

	return user, nil
}

// GetAllUsers retrieves all users.
func (s *UserService) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.Users().GetAll(ctx)
}
