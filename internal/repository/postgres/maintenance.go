package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// MaintenanceRepository is a PostgreSQL implementation of repository.MaintenanceRepository.
type MaintenanceRepository struct {
	q Querier
}

// NewMaintenanceRepository creates a new PostgreSQL maintenance repository.
func NewMaintenanceRepository(db *sql.DB) *MaintenanceRepository {
	return &MaintenanceRepository{q: db}
}

// NewMaintenanceRepositoryWithTx creates a maintenance repository using a transaction.
func NewMaintenanceRepositoryWithTx(tx *sql.Tx) *MaintenanceRepository {
	return &MaintenanceRepository{q: tx}
}

const maintenanceColumns = "id, vehicle_id, type, status, vendor, odometer_at_drop_off, final_mileage, final_cost, expected_return, notes, sent_at, received_at, created_at"

// Create persists a new maintenance record.
func (r *MaintenanceRepository) Create(ctx context.Context, record *domain.MaintenanceRecord) error {
	query := `
		INSERT INTO maintenance_records (id, vehicle_id, type, status, vendor, odometer_at_drop_off, final_mileage, final_cost, expected_return, notes, sent_at, received_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.VehicleID,
		record.Type,
		record.Status,
		record.Vendor,
		record.OdometerAtDropOff,
		nullInt64(record.FinalMileage),
		record.FinalCost,
		nullTime(record.ExpectedReturn),
		record.Notes,
		nullTime(record.SentAt),
		nullTime(record.ReceivedAt),
		record.CreatedAt,
	)

	return err
}

// GetByID retrieves a maintenance record by ID.
func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a maintenance record by ID with a row lock.
func (r *MaintenanceRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetInProgressByVehicleID retrieves the in-progress record for a vehicle.
// Returns nil if none exists.
func (r *MaintenanceRepository) GetInProgressByVehicleID(ctx context.Context, vehicleID string) (*domain.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE vehicle_id = $1 AND status = $2`

	record, err := r.scanRow(r.q.QueryRowContext(ctx, query, vehicleID, domain.MaintenanceStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

// GetByVehicleID retrieves maintenance records for a vehicle, newest first.
func (r *MaintenanceRepository) GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE vehicle_id = $1 ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.MaintenanceRecord
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Update updates an existing maintenance record.
func (r *MaintenanceRepository) Update(ctx context.Context, record *domain.MaintenanceRecord) error {
	query := `
		UPDATE maintenance_records
		SET status = $1, vendor = $2, odometer_at_drop_off = $3, final_mileage = $4, final_cost = $5, expected_return = $6, notes = $7, sent_at = $8, received_at = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		record.Status,
		record.Vendor,
		record.OdometerAtDropOff,
		nullInt64(record.FinalMileage),
		record.FinalCost,
		nullTime(record.ExpectedReturn),
		record.Notes,
		nullTime(record.SentAt),
		nullTime(record.ReceivedAt),
		record.ID,
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

func (r *MaintenanceRepository) scanOne(row *sql.Row) (*domain.MaintenanceRecord, error) {
	record, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *MaintenanceRepository) scanRow(row rowScanner) (*domain.MaintenanceRecord, error) {
	var record domain.MaintenanceRecord
	var finalMileage sql.NullInt64
	var expectedReturn, sentAt, receivedAt sql.NullTime

	if err := row.Scan(
		&record.ID,
		&record.VehicleID,
		&record.Type,
		&record.Status,
		&record.Vendor,
		&record.OdometerAtDropOff,
		&finalMileage,
		&record.FinalCost,
		&expectedReturn,
		&record.Notes,
		&sentAt,
		&receivedAt,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}

	if finalMileage.Valid {
		record.FinalMileage = finalMileage.Int64
	}
	if expectedReturn.Valid {
		record.ExpectedReturn = expectedReturn.Time
	}
	if sentAt.Valid {
		record.SentAt = sentAt.Time
	}
	if receivedAt.Valid {
		record.ReceivedAt = receivedAt.Time
	}

	return &record, nil
}
