package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// MaintenanceHandler handles HTTP requests for maintenance records.
type MaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(maintenanceService *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

// SendToGarageRequest is the HTTP request for sending a vehicle to a garage.
type SendToGarageRequest struct {
	VehicleID      string `json:"vehicle_id" binding:"required"`
	DriverID       string `json:"driver_id"`
	Vendor         string `json:"vendor"`
	ExpectedReturn string `json:"expected_return"`
	Odometer       int64  `json:"odometer"`
	Notes          string `json:"notes"`
}

// MaintenanceResponse is the HTTP response for maintenance operations.
type MaintenanceResponse struct {
	MaintenanceID     string  `json:"maintenance_id"`
	VehicleID         string  `json:"vehicle_id"`
	Type              string  `json:"type"`
	Status            string  `json:"status"`
	Vendor            string  `json:"vendor,omitempty"`
	OdometerAtDropOff int64   `json:"odometer_at_drop_off,omitempty"`
	FinalMileage      int64   `json:"final_mileage,omitempty"`
	FinalCost         float64 `json:"final_cost,omitempty"`
	ExpectedReturn    string  `json:"expected_return,omitempty"`
	Notes             string  `json:"notes,omitempty"`
	SentAt            string  `json:"sent_at,omitempty"`
	ReceivedAt        string  `json:"received_at,omitempty"`
}

// SendToGarage handles POST /v1/maintenance/send
func (h *MaintenanceHandler) SendToGarage(c *gin.Context) {
	var req SendToGarageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var expectedReturn time.Time
	if req.ExpectedReturn != "" {
		var err error
		expectedReturn, err = time.Parse(time.RFC3339, req.ExpectedReturn)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "expected_return must be RFC3339"})
			return
		}
	}

	record, err := h.maintenanceService.SendToGarage(c.Request.Context(), service.SendToGarageRequest{
		VehicleID:      req.VehicleID,
		DriverID:       req.DriverID,
		Vendor:         req.Vendor,
		ExpectedReturn: expectedReturn,
		Odometer:       req.Odometer,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toMaintenanceResponse(record))
}

// ReceiveFromGarageRequest is the HTTP request for receiving a vehicle back.
type ReceiveFromGarageRequest struct {
	FinalCost    float64 `json:"final_cost"`
	FinalMileage int64   `json:"final_mileage"`
	Notes        string  `json:"notes"`
}

// ReceiveFromGarage handles POST /v1/maintenance/:id/receive
func (h *MaintenanceHandler) ReceiveFromGarage(c *gin.Context) {
	var req ReceiveFromGarageRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	record, err := h.maintenanceService.ReceiveFromGarage(c.Request.Context(), service.ReceiveFromGarageRequest{
		MaintenanceID: c.Param("id"),
		FinalCost:     req.FinalCost,
		FinalMileage:  req.FinalMileage,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toMaintenanceResponse(record))
}

// CancelRequest handles POST /v1/maintenance/:id/cancel
func (h *MaintenanceHandler) CancelRequest(c *gin.Context) {
	record, err := h.maintenanceService.CancelMaintenanceRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toMaintenanceResponse(record))
}

// LogCostOnlyRequest is the HTTP request for a cost-only maintenance entry.
type LogCostOnlyRequest struct {
	VehicleID string  `json:"vehicle_id" binding:"required"`
	Cost      float64 `json:"cost" binding:"required"`
	Mileage   int64   `json:"mileage"`
	Notes     string  `json:"notes"`
}

// LogCostOnly handles POST /v1/maintenance/cost-only
func (h *MaintenanceHandler) LogCostOnly(c *gin.Context) {
	var req LogCostOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	record, err := h.maintenanceService.LogCostOnly(c.Request.Context(), service.LogCostOnlyRequest{
		VehicleID: req.VehicleID,
		Cost:      req.Cost,
		Mileage:   req.Mileage,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toMaintenanceResponse(record))
}

// GetHistory handles GET /v1/vehicles/:id/maintenance
func (h *MaintenanceHandler) GetHistory(c *gin.Context) {
	records, err := h.maintenanceService.GetMaintenanceHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MaintenanceResponse, 0, len(records))
	for _, record := range records {
		response = append(response, toMaintenanceResponse(record))
	}

	respondJSON(c, http.StatusOK, response)
}

func toMaintenanceResponse(record *domain.MaintenanceRecord) MaintenanceResponse {
	response := MaintenanceResponse{
		MaintenanceID:     record.ID,
		VehicleID:         record.VehicleID,
		Type:              string(record.Type),
		Status:            string(record.Status),
		Vendor:            record.Vendor,
		OdometerAtDropOff: record.OdometerAtDropOff,
		FinalMileage:      record.FinalMileage,
		FinalCost:         record.FinalCost,
		Notes:             record.Notes,
	}
	if !record.ExpectedReturn.IsZero() {
		response.ExpectedReturn = record.ExpectedReturn.Format(time.RFC3339)
	}
	if !record.SentAt.IsZero() {
		response.SentAt = record.SentAt.Format(time.RFC3339)
	}
	if !record.ReceivedAt.IsZero() {
		response.ReceivedAt = record.ReceivedAt.Format(time.RFC3339)
	}
	return response
}
