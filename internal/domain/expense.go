package domain

import "time"

// ExpenseType represents the kind of operating expense.
type ExpenseType string

const (
	ExpenseTypeFuel  ExpenseType = "FUEL"
	ExpenseTypeFluid ExpenseType = "FLUID"
	ExpenseTypeOther ExpenseType = "OTHER"
)

// Expense represents an operating expense logged against a vehicle.
//
// Expenses are immutable once created; only administrative deletion is
// supported.
type Expense struct {
	ID        string
	VehicleID string
	UsageID   string // optional; links the expense to a borrow/return cycle
	Type      ExpenseType
	Amount    float64
	Mileage   int64 // optional; odometer reading when the expense was logged
	Timestamp time.Time
}
