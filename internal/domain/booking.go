package domain

import "time"

// BookingStatus represents the current status of a booking request.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "PENDING"
	BookingStatusApproved BookingStatus = "APPROVED"
	BookingStatusRejected BookingStatus = "REJECTED"
)

// Booking represents a request to use a vehicle.
//
// A booking moves exactly once from PENDING to a terminal status.
type Booking struct {
	ID          string
	RequesterID string
	VehicleID   string // optional until approval
	DriverID    string // optional; resolved at approval time
	Status      BookingStatus
	StartTime   time.Time
	EndTime     time.Time // optional; zero means open-ended
	Purpose     string
	Destination string
	Note        string // reviewer note, set on rejection
	CreatedAt   time.Time
	DecidedAt   time.Time
}
