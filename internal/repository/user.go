package repository

import (
	"context"

	"fleet/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByChannelAddress retrieves a user by push-messaging address.
	GetByChannelAddress(ctx context.Context, address string) (*domain.User, error)

	// GetByRole retrieves all users with the given role.
	GetByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// GetByRoles retrieves all users whose role is in the given set.
	GetByRoles(ctx context.Context, roles []domain.Role) ([]*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)
}
