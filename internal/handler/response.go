package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/repository"
	"fleet/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidUsageID),
		errors.Is(err, service.ErrInvalidMaintenanceID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidExpenseID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidMileage),
		errors.Is(err, service.ErrDriverRequired),
		errors.Is(err, service.ErrVehicleRequired):
		return http.StatusBadRequest

	// Conflict errors - the entity is in a state that refuses the transition
	case errors.Is(err, service.ErrVehicleUnavailable),
		errors.Is(err, service.ErrVehicleBusy),
		errors.Is(err, service.ErrAlreadyInMaintenance),
		errors.Is(err, service.ErrAlreadyFinalized),
		errors.Is(err, service.ErrUsageNotActive),
		errors.Is(err, service.ErrMaintenanceNotInProgress),
		errors.Is(err, service.ErrMaintenanceNotPending),
		errors.Is(err, service.ErrVehicleInService):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
