package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = "id, requester_id, vehicle_id, driver_id, status, start_time, end_time, purpose, destination, note, created_at, decided_at"

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, requester_id, vehicle_id, driver_id, status, start_time, end_time, purpose, destination, note, created_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RequesterID,
		nullString(booking.VehicleID),
		nullString(booking.DriverID),
		booking.Status,
		booking.StartTime,
		nullTime(booking.EndTime),
		booking.Purpose,
		booking.Destination,
		booking.Note,
		booking.CreatedAt,
		nullTime(booking.DecidedAt),
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a booking by ID with a row lock.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByStatus retrieves bookings in the given status, newest first.
func (r *BookingRepository) GetByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// Update updates an existing booking.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET vehicle_id = $1, driver_id = $2, status = $3, start_time = $4, end_time = $5, purpose = $6, destination = $7, note = $8, decided_at = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(booking.VehicleID),
		nullString(booking.DriverID),
		booking.Status,
		booking.StartTime,
		nullTime(booking.EndTime),
		booking.Purpose,
		booking.Destination,
		booking.Note,
		nullTime(booking.DecidedAt),
		booking.ID,
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *BookingRepository) scanOne(row *sql.Row) (*domain.Booking, error) {
	booking, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) scanRow(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var vehicleID, driverID sql.NullString
	var endTime, decidedAt sql.NullTime

	if err := row.Scan(
		&booking.ID,
		&booking.RequesterID,
		&vehicleID,
		&driverID,
		&booking.Status,
		&booking.StartTime,
		&endTime,
		&booking.Purpose,
		&booking.Destination,
		&booking.Note,
		&booking.CreatedAt,
		&decidedAt,
	); err != nil {
		return nil, err
	}

	if vehicleID.Valid {
		booking.VehicleID = vehicleID.String
	}
	if driverID.Valid {
		booking.DriverID = driverID.String
	}
	if endTime.Valid {
		booking.EndTime = endTime.Time
	}
	if decidedAt.Valid {
		booking.DecidedAt = decidedAt.Time
	}

	return &booking, nil
}
