package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// ExpenseHandler handles HTTP requests for the expense log.
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpenseRequest is the HTTP request for logging an expense.
type CreateExpenseRequest struct {
	VehicleID string  `json:"vehicle_id" binding:"required"`
	UsageID   string  `json:"usage_id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount" binding:"required"`
	Mileage   int64   `json:"mileage"`
}

// ExpenseResponse is the HTTP response for expense operations.
type ExpenseResponse struct {
	ExpenseID string  `json:"expense_id"`
	VehicleID string  `json:"vehicle_id"`
	UsageID   string  `json:"usage_id,omitempty"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Mileage   int64   `json:"mileage,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Create handles POST /v1/expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), service.CreateExpenseRequest{
		VehicleID: req.VehicleID,
		UsageID:   req.UsageID,
		Type:      domain.ExpenseType(req.Type),
		Amount:    req.Amount,
		Mileage:   req.Mileage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toExpenseResponse(expense))
}

// Delete handles DELETE /v1/expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetByVehicle handles GET /v1/vehicles/:id/expenses
func (h *ExpenseHandler) GetByVehicle(c *gin.Context) {
	expenses, err := h.expenseService.GetExpensesByVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ExpenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		response = append(response, toExpenseResponse(expense))
	}

	respondJSON(c, http.StatusOK, response)
}

func toExpenseResponse(expense *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID: expense.ID,
		VehicleID: expense.VehicleID,
		UsageID:   expense.UsageID,
		Type:      string(expense.Type),
		Amount:    expense.Amount,
		Mileage:   expense.Mileage,
		Timestamp: expense.Timestamp.Format(time.RFC3339),
	}
}
