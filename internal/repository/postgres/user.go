package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

const userColumns = "id, name, role, channel_address, created_at"

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, role, channel_address, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Role,
		nullString(user.ChannelAddress),
		user.CreatedAt,
	)

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetByChannelAddress retrieves a user by push-messaging address.
func (r *UserRepository) GetByChannelAddress(ctx context.Context, address string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE channel_address = $1`

	user, err := r.scanRow(r.q.QueryRowContext(ctx, query, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetByRole retrieves all users with the given role.
func (r *UserRepository) GetByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.GetByRoles(ctx, []domain.Role{role})
}

// GetByRoles retrieves all users whose role is in the given set.
func (r *UserRepository) GetByRoles(ctx context.Context, roles []domain.Role) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ANY($1) ORDER BY name`

	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, string(role))
	}

	rows, err := r.q.QueryContext(ctx, query, pq.Array(roleNames))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *UserRepository) collect(rows *sql.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanRow(row rowScanner) (*domain.User, error) {
	var user domain.User
	var channelAddress sql.NullString

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&channelAddress,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}

	if channelAddress.Valid {
		user.ChannelAddress = channelAddress.String
	}

	return &user, nil
}
