package repository

import (
	"context"

	"fleet/internal/domain"
)

// MaintenanceRepository defines the persistence operations for maintenance records.
type MaintenanceRepository interface {
	// Create persists a new maintenance record.
	Create(ctx context.Context, record *domain.MaintenanceRecord) error

	// GetByID retrieves a maintenance record by ID.
	GetByID(ctx context.Context, id string) (*domain.MaintenanceRecord, error)

	// GetByIDForUpdate retrieves a maintenance record by ID, locking the row
	// when the underlying store supports row locks. Only valid inside Transact.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.MaintenanceRecord, error)

	// GetInProgressByVehicleID retrieves the in-progress record for a vehicle.
	// Returns nil if none exists.
	GetInProgressByVehicleID(ctx context.Context, vehicleID string) (*domain.MaintenanceRecord, error)

	// GetByVehicleID retrieves maintenance records for a vehicle, newest first.
	GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.MaintenanceRecord, error)

	// Update updates an existing maintenance record.
	Update(ctx context.Context, record *domain.MaintenanceRecord) error
}
