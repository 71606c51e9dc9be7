package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// UsageRepository is a PostgreSQL implementation of repository.UsageRepository.
type UsageRepository struct {
	q Querier
}

// NewUsageRepository creates a new PostgreSQL usage repository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{q: db}
}

// NewUsageRepositoryWithTx creates a usage repository using a transaction.
func NewUsageRepositoryWithTx(tx *sql.Tx) *UsageRepository {
	return &UsageRepository{q: tx}
}

const usageColumns = "id, vehicle_id, user_id, booking_id, status, start_mileage, end_mileage, start_time, end_time, forced"

// Create persists a new usage.
func (r *UsageRepository) Create(ctx context.Context, usage *domain.VehicleUsage) error {
	query := `
		INSERT INTO vehicle_usages (id, vehicle_id, user_id, booking_id, status, start_mileage, end_mileage, start_time, end_time, forced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		usage.ID,
		usage.VehicleID,
		usage.UserID,
		nullString(usage.BookingID),
		usage.Status,
		usage.StartMileage,
		nullInt64(usage.EndMileage),
		nullTime(usage.StartTime),
		nullTime(usage.EndTime),
		usage.Forced,
	)

	return err
}

// GetByID retrieves a usage by ID.
func (r *UsageRepository) GetByID(ctx context.Context, id string) (*domain.VehicleUsage, error) {
	query := `SELECT ` + usageColumns + ` FROM vehicle_usages WHERE id = $1`

	usage, err := r.scanRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return usage, nil
}

// GetByIDForUpdate retrieves a usage by ID with a row lock.
func (r *UsageRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.VehicleUsage, error) {
	query := `SELECT ` + usageColumns + ` FROM vehicle_usages WHERE id = $1 FOR UPDATE`

	usage, err := r.scanRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return usage, nil
}

// GetActiveByVehicleID retrieves the active usage for a vehicle.
// Returns nil if no active usage exists.
func (r *UsageRepository) GetActiveByVehicleID(ctx context.Context, vehicleID string) (*domain.VehicleUsage, error) {
	query := `SELECT ` + usageColumns + ` FROM vehicle_usages WHERE vehicle_id = $1 AND status = $2`

	usage, err := r.scanRow(r.q.QueryRowContext(ctx, query, vehicleID, domain.UsageStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return usage, nil
}

// GetPendingByBookingID retrieves the pending usage created by a booking
// approval. Returns nil if none exists.
func (r *UsageRepository) GetPendingByBookingID(ctx context.Context, bookingID string) (*domain.VehicleUsage, error) {
	query := `SELECT ` + usageColumns + ` FROM vehicle_usages WHERE booking_id = $1 AND status = $2`

	usage, err := r.scanRow(r.q.QueryRowContext(ctx, query, bookingID, domain.UsageStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return usage, nil
}

// GetByVehicleID retrieves usages for a vehicle, newest first.
func (r *UsageRepository) GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.VehicleUsage, error) {
	query := `SELECT ` + usageColumns + ` FROM vehicle_usages WHERE vehicle_id = $1 ORDER BY start_time DESC NULLS LAST LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []*domain.VehicleUsage
	for rows.Next() {
		usage, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}

	return usages, rows.Err()
}

// Update updates an existing usage.
func (r *UsageRepository) Update(ctx context.Context, usage *domain.VehicleUsage) error {
	query := `
		UPDATE vehicle_usages
		SET status = $1, start_mileage = $2, end_mileage = $3, start_time = $4, end_time = $5, forced = $6
		WHERE id = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		usage.Status,
		usage.StartMileage,
		nullInt64(usage.EndMileage),
		nullTime(usage.StartTime),
		nullTime(usage.EndTime),
		usage.Forced,
		usage.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UsageRepository) scanRow(row rowScanner) (*domain.VehicleUsage, error) {
	var usage domain.VehicleUsage
	var bookingID sql.NullString
	var endMileage sql.NullInt64
	var startTime, endTime sql.NullTime

	if err := row.Scan(
		&usage.ID,
		&usage.VehicleID,
		&usage.UserID,
		&bookingID,
		&usage.Status,
		&usage.StartMileage,
		&endMileage,
		&startTime,
		&endTime,
		&usage.Forced,
	); err != nil {
		return nil, err
	}

	if bookingID.Valid {
		usage.BookingID = bookingID.String
	}
	if endMileage.Valid {
		usage.EndMileage = endMileage.Int64
	}
	if startTime.Valid {
		usage.StartTime = startTime.Time
	}
	if endTime.Valid {
		usage.EndTime = endTime.Time
	}

	return &usage, nil
}
