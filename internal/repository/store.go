package repository

import "context"

// Store bundles the entity repositories with the atomic transaction
// primitive every lifecycle transition runs inside.
type Store interface {
	Vehicles() VehicleRepository
	Bookings() BookingRepository
	Usages() UsageRepository
	Maintenance() MaintenanceRepository
	Expenses() ExpenseRepository
	Users() UserRepository
	Preferences() PreferencesRepository

	// Transact executes fn with a transaction-scoped Store. If fn returns an
	// error the transaction rolls back and no write is applied; otherwise it
	// commits. Transact must not be nested.
	Transact(ctx context.Context, fn func(Store) error) error
}
