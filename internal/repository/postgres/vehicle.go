package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

const vehicleColumns = "id, plate_number, make, model, status, current_mileage, last_maintenance_id, created_at"

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, plate_number, make, model, status, current_mileage, last_maintenance_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var lastMaintenanceID sql.NullString
	if vehicle.LastMaintenanceID != "" {
		lastMaintenanceID = sql.NullString{String: vehicle.LastMaintenanceID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.PlateNumber,
		vehicle.Make,
		vehicle.Model,
		vehicle.Status,
		vehicle.CurrentMileage,
		lastMaintenanceID,
		vehicle.CreatedAt,
	)

	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a vehicle by ID with a row lock.
func (r *VehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves all vehicles.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		var lastMaintenanceID sql.NullString

		if err := rows.Scan(
			&vehicle.ID,
			&vehicle.PlateNumber,
			&vehicle.Make,
			&vehicle.Model,
			&vehicle.Status,
			&vehicle.CurrentMileage,
			&lastMaintenanceID,
			&vehicle.CreatedAt,
		); err != nil {
			return nil, err
		}

		if lastMaintenanceID.Valid {
			vehicle.LastMaintenanceID = lastMaintenanceID.String
		}

		vehicles = append(vehicles, &vehicle)
	}

	return vehicles, rows.Err()
}

// Update updates an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate_number = $1, make = $2, model = $3, status = $4, current_mileage = $5, last_maintenance_id = $6
		WHERE id = $7
	`

	var lastMaintenanceID sql.NullString
	if vehicle.LastMaintenanceID != "" {
		lastMaintenanceID = sql.NullString{String: vehicle.LastMaintenanceID, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		vehicle.PlateNumber,
		vehicle.Make,
		vehicle.Model,
		vehicle.Status,
		vehicle.CurrentMileage,
		lastMaintenanceID,
		vehicle.ID,
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

func (r *VehicleRepository) scanOne(row *sql.Row) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	var lastMaintenanceID sql.NullString

	err := row.Scan(
		&vehicle.ID,
		&vehicle.PlateNumber,
		&vehicle.Make,
		&vehicle.Model,
		&vehicle.Status,
		&vehicle.CurrentMileage,
		&lastMaintenanceID,
		&vehicle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if lastMaintenanceID.Valid {
		vehicle.LastMaintenanceID = lastMaintenanceID.String
	}

	return &vehicle, nil
}
