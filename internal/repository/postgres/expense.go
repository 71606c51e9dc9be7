package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// ExpenseRepository is a PostgreSQL implementation of repository.ExpenseRepository.
type ExpenseRepository struct {
	q Querier
}

// NewExpenseRepository creates a new PostgreSQL expense repository.
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{q: db}
}

// NewExpenseRepositoryWithTx creates an expense repository using a transaction.
func NewExpenseRepositoryWithTx(tx *sql.Tx) *ExpenseRepository {
	return &ExpenseRepository{q: tx}
}

const expenseColumns = "id, vehicle_id, usage_id, type, amount, mileage, logged_at"

// Create persists a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, vehicle_id, usage_id, type, amount, mileage, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		expense.ID,
		expense.VehicleID,
		nullString(expense.UsageID),
		expense.Type,
		expense.Amount,
		nullInt64(expense.Mileage),
		expense.Timestamp,
	)

	return err
}

// GetByID retrieves an expense by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	expense, err := r.scanRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return expense, nil
}

// GetByVehicleID retrieves expenses for a vehicle, newest first.
func (r *ExpenseRepository) GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE vehicle_id = $1 ORDER BY logged_at DESC LIMIT 200`

	rows, err := r.q.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.Expense
	for rows.Next() {
		expense, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// SumByUsageID returns the total expense amount logged against a usage.
func (r *ExpenseRepository) SumByUsageID(ctx context.Context, usageID string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE usage_id = $1`

	var total float64
	if err := r.q.QueryRowContext(ctx, query, usageID).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

// Delete removes an expense.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
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

func (r *ExpenseRepository) scanRow(row rowScanner) (*domain.Expense, error) {
	var expense domain.Expense
	var usageID sql.NullString
	var mileage sql.NullInt64

	if err := row.Scan(
		&expense.ID,
		&expense.VehicleID,
		&usageID,
		&expense.Type,
		&expense.Amount,
		&mileage,
		&expense.Timestamp,
	); err != nil {
		return nil, err
	}

	if usageID.Valid {
		expense.UsageID = usageID.String
	}
	if mileage.Valid {
		expense.Mileage = mileage.Int64
	}

	return &expense, nil
}
