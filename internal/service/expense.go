package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// ExpenseService handles the expense log. Expenses are immutable once
// created; only administrative deletion is supported.
type ExpenseService struct {
	store repository.Store
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store repository.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpenseRequest contains the parameters for logging an expense.
type CreateExpenseRequest struct {
	VehicleID string
	UsageID   string // optional
	Type      domain.ExpenseType
	Amount    float64
	Mileage   int64 // optional
}

// CreateExpense logs an expense against a vehicle.
func (s *ExpenseService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*domain.Expense, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	expenseType := req.Type
	if expenseType == "" {
		expenseType = domain.ExpenseTypeOther
	}

	expense := &domain.Expense{
		ID:        uuid.New().String(),
		VehicleID: req.VehicleID,
		UsageID:   req.UsageID,
		Type:      expenseType,
		Amount:    req.Amount,
		Mileage:   req.Mileage,
		Timestamp: time.Now(),
	}

	// The vehicle read doubles as an existence check.
	err := s.store.Transact(ctx, func(tx repository.Store) error {
		if _, err := tx.Vehicles().GetByID(ctx, req.VehicleID); err != nil {
			return err
		}
		return tx.Expenses().Create(ctx, expense)
	})
	if err != nil {
		return nil, err
	}

	return expense, nil
}

// GetExpensesByVehicle retrieves the expense log of a vehicle.
func (s *ExpenseService) GetExpensesByVehicle(ctx context.Context, vehicleID string) ([]*domain.Expense, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	return s.store.Expenses().GetByVehicleID(ctx, vehicleID)
}

// DeleteExpense removes an expense (administrative override).
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID string) error {
	if expenseID == "" {
		return ErrInvalidExpenseID
	}
	return s.store.Expenses().Delete(ctx, expenseID)
}
