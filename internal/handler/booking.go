package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request for creating a booking.
type CreateBookingRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
	VehicleID   string `json:"vehicle_id"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time"`
	Purpose     string `json:"purpose"`
	Destination string `json:"destination"`
}

// BookingResponse is the HTTP response for booking operations.
type BookingResponse struct {
	BookingID   string `json:"booking_id"`
	RequesterID string `json:"requester_id"`
	VehicleID   string `json:"vehicle_id,omitempty"`
	DriverID    string `json:"driver_id,omitempty"`
	Status      string `json:"status"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Destination string `json:"destination,omitempty"`
	Note        string `json:"note,omitempty"`
	DecidedAt   string `json:"decided_at,omitempty"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start_time must be RFC3339"})
		return
	}

	var endTime time.Time
	if req.EndTime != "" {
		endTime, err = time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end_time must be RFC3339"})
			return
		}
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		RequesterID: req.RequesterID,
		VehicleID:   req.VehicleID,
		StartTime:   startTime,
		EndTime:     endTime,
		Purpose:     req.Purpose,
		Destination: req.Destination,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// ApproveBookingRequest is the HTTP request for approving a booking.
type ApproveBookingRequest struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
}

// ApproveBooking handles POST /v1/bookings/:id/approve
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	var req ApproveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	booking, err := h.bookingService.ApproveBooking(c.Request.Context(), service.ApproveBookingRequest{
		BookingID: c.Param("id"),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RejectBookingRequest is the HTTP request for rejecting a booking.
type RejectBookingRequest struct {
	Note string `json:"note"`
}

// RejectBooking handles POST /v1/bookings/:id/reject
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	var req RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	booking, err := h.bookingService.RejectBooking(c.Request.Context(), service.RejectBookingRequest{
		BookingID: c.Param("id"),
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// GetPending handles GET /v1/bookings/pending
func (h *BookingHandler) GetPending(c *gin.Context) {
	bookings, err := h.bookingService.GetBookingsByStatus(c.Request.Context(), domain.BookingStatusPending)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		response = append(response, toBookingResponse(booking))
	}

	respondJSON(c, http.StatusOK, response)
}

func toBookingResponse(booking *domain.Booking) BookingResponse {
	response := BookingResponse{
		BookingID:   booking.ID,
		RequesterID: booking.RequesterID,
		VehicleID:   booking.VehicleID,
		DriverID:    booking.DriverID,
		Status:      string(booking.Status),
		StartTime:   booking.StartTime.Format(time.RFC3339),
		Purpose:     booking.Purpose,
		Destination: booking.Destination,
		Note:        booking.Note,
	}
	if !booking.EndTime.IsZero() {
		response.EndTime = booking.EndTime.Format(time.RFC3339)
	}
	if !booking.DecidedAt.IsZero() {
		response.DecidedAt = booking.DecidedAt.Format(time.RFC3339)
	}
	return response
}
