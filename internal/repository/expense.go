package repository

import (
	"context"

	"fleet/internal/domain"
)

// ExpenseRepository defines the persistence operations for expenses.
type ExpenseRepository interface {
	// Create persists a new expense. Expenses are immutable once created.
	Create(ctx context.Context, expense *domain.Expense) error

	// GetByID retrieves an expense by ID.
	GetByID(ctx context.Context, id string) (*domain.Expense, error)

	// GetByVehicleID retrieves expenses for a vehicle, newest first.
	GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.Expense, error)

	// SumByUsageID returns the total expense amount logged against a usage.
	SumByUsageID(ctx context.Context, usageID string) (float64, error)

	// Delete removes an expense (administrative override only).
	Delete(ctx context.Context, id string) error
}
