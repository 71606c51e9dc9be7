package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// UsageHandler handles HTTP requests for vehicle usages.
type UsageHandler struct {
	usageService *service.UsageService
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// StartUsageRequest is the HTTP request for starting a usage.
type StartUsageRequest struct {
	BookingID    string `json:"booking_id"`
	VehicleID    string `json:"vehicle_id"`
	UserID       string `json:"user_id"`
	StartMileage int64  `json:"start_mileage"`
	Destination  string `json:"destination"`
}

// UsageResponse is the HTTP response for usage operations.
type UsageResponse struct {
	UsageID       string   `json:"usage_id"`
	VehicleID     string   `json:"vehicle_id"`
	UserID        string   `json:"user_id"`
	BookingID     string   `json:"booking_id,omitempty"`
	Status        string   `json:"status"`
	StartMileage  int64    `json:"start_mileage"`
	EndMileage    int64    `json:"end_mileage,omitempty"`
	StartTime     string   `json:"start_time,omitempty"`
	EndTime       string   `json:"end_time,omitempty"`
	Forced        bool     `json:"forced,omitempty"`
	TotalDistance *int64   `json:"total_distance,omitempty"`
	TotalExpenses *float64 `json:"total_expenses,omitempty"`
}

// StartUsage handles POST /v1/usages
func (h *UsageHandler) StartUsage(c *gin.Context) {
	var req StartUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	usage, err := h.usageService.StartUsage(c.Request.Context(), service.StartUsageRequest{
		BookingID:    req.BookingID,
		VehicleID:    req.VehicleID,
		UserID:       req.UserID,
		StartMileage: req.StartMileage,
		Destination:  req.Destination,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUsageResponse(usage))
}

// ReturnUsageRequest is the HTTP request for returning a usage.
type ReturnUsageRequest struct {
	EndMileage int64 `json:"end_mileage"`
}

// ReturnUsage handles POST /v1/usages/:id/return
func (h *UsageHandler) ReturnUsage(c *gin.Context) {
	var req ReturnUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.usageService.ReturnUsage(c.Request.Context(), service.ReturnUsageRequest{
		UsageID:    c.Param("id"),
		EndMileage: req.EndMileage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReturnResponse(result))
}

// ForceReturn handles POST /v1/usages/:id/force-return
func (h *UsageHandler) ForceReturn(c *gin.Context) {
	var req ReturnUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.usageService.ForceReturn(c.Request.Context(), c.Param("id"), req.EndMileage)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReturnResponse(result))
}

// GetUsage handles GET /v1/usages/:id
func (h *UsageHandler) GetUsage(c *gin.Context) {
	usage, err := h.usageService.GetUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUsageResponse(usage))
}

func toUsageResponse(usage *domain.VehicleUsage) UsageResponse {
	response := UsageResponse{
		UsageID:      usage.ID,
		VehicleID:    usage.VehicleID,
		UserID:       usage.UserID,
		BookingID:    usage.BookingID,
		Status:       string(usage.Status),
		StartMileage: usage.StartMileage,
		EndMileage:   usage.EndMileage,
		Forced:       usage.Forced,
	}
	if !usage.StartTime.IsZero() {
		response.StartTime = usage.StartTime.Format(time.RFC3339)
	}
	if !usage.EndTime.IsZero() {
		response.EndTime = usage.EndTime.Format(time.RFC3339)
	}
	return response
}

func toReturnResponse(result *service.ReturnUsageResponse) UsageResponse {
	response := toUsageResponse(result.Usage)
	response.TotalDistance = &result.TotalDistance
	response.TotalExpenses = &result.TotalExpenses
	return response
}
