package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// VehicleHandler handles HTTP requests for the vehicle registry.
type VehicleHandler struct {
	vehicleService *service.VehicleService
	usageService   *service.UsageService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleService *service.VehicleService, usageService *service.UsageService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService, usageService: usageService}
}

// RegisterVehicleRequest is the HTTP request for registering a vehicle.
type RegisterVehicleRequest struct {
	PlateNumber    string `json:"plate_number" binding:"required"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	CurrentMileage int64  `json:"current_mileage"`
}

// VehicleResponse is the HTTP response for vehicle operations.
type VehicleResponse struct {
	VehicleID         string `json:"vehicle_id"`
	PlateNumber       string `json:"plate_number"`
	Make              string `json:"make,omitempty"`
	Model             string `json:"model,omitempty"`
	Status            string `json:"status"`
	CurrentMileage    int64  `json:"current_mileage"`
	LastMaintenanceID string `json:"last_maintenance_id,omitempty"`
}

// Register handles POST /v1/vehicles
func (h *VehicleHandler) Register(c *gin.Context) {
	var req RegisterVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	vehicle, err := h.vehicleService.RegisterVehicle(c.Request.Context(), service.RegisterVehicleRequest{
		PlateNumber:    req.PlateNumber,
		Make:           req.Make,
		Model:          req.Model,
		CurrentMileage: req.CurrentMileage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// Get handles GET /v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// GetAll handles GET /v1/vehicles
func (h *VehicleHandler) GetAll(c *gin.Context) {
	vehicles, err := h.vehicleService.GetAllVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, vehicle := range vehicles {
		response = append(response, toVehicleResponse(vehicle))
	}

	respondJSON(c, http.StatusOK, response)
}

// Retire handles POST /v1/vehicles/:id/retire
func (h *VehicleHandler) Retire(c *gin.Context) {
	vehicle, err := h.vehicleService.RetireVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// GetUsages handles GET /v1/vehicles/:id/usages
func (h *VehicleHandler) GetUsages(c *gin.Context) {
	usages, err := h.usageService.GetUsagesByVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UsageResponse, 0, len(usages))
	for _, usage := range usages {
		response = append(response, toUsageResponse(usage))
	}

	respondJSON(c, http.StatusOK, response)
}

func toVehicleResponse(vehicle *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		VehicleID:         vehicle.ID,
		PlateNumber:       vehicle.PlateNumber,
		Make:              vehicle.Make,
		Model:             vehicle.Model,
		Status:            string(vehicle.Status),
		CurrentMileage:    vehicle.CurrentMileage,
		LastMaintenanceID: vehicle.LastMaintenanceID,
	}
}
