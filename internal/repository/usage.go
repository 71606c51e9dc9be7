package repository

import (
	"context"

	"fleet/internal/domain"
)

// UsageRepository defines the persistence operations for vehicle usages.
type UsageRepository interface {
	// Create persists a new usage.
	Create(ctx context.Context, usage *domain.VehicleUsage) error

	// GetByID retrieves a usage by ID.
	GetByID(ctx context.Context, id string) (*domain.VehicleUsage, error)

	// GetByIDForUpdate retrieves a usage by ID, locking the row when the
	// underlying store supports row locks. Only valid inside Transact.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.VehicleUsage, error)

	// GetActiveByVehicleID retrieves the active usage for a vehicle.
	// Returns nil if no active usage exists.
	GetActiveByVehicleID(ctx context.Context, vehicleID string) (*domain.VehicleUsage, error)

	// GetPendingByBookingID retrieves the pending usage created by a booking
	// approval. Returns nil if none exists.
	GetPendingByBookingID(ctx context.Context, bookingID string) (*domain.VehicleUsage, error)

	// GetByVehicleID retrieves usages for a vehicle, newest first.
	GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.VehicleUsage, error)

	// Update updates an existing usage.
	Update(ctx context.Context, usage *domain.VehicleUsage) error
}
