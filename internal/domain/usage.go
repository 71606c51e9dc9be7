package domain

import "time"

// UsageStatus represents the current status of a vehicle usage.
type UsageStatus string

const (
	UsageStatusPending   UsageStatus = "PENDING"
	UsageStatusActive    UsageStatus = "ACTIVE"
	UsageStatusCompleted UsageStatus = "COMPLETED"
)

// VehicleUsage represents one borrow/return cycle of a vehicle.
//
// At most one ACTIVE usage exists per vehicle at any time.
type VehicleUsage struct {
	ID           string
	VehicleID    string
	UserID       string
	BookingID    string // optional; set when the usage originates from a booking
	Status       UsageStatus
	StartMileage int64
	EndMileage   int64 // set on completion; never less than StartMileage
	StartTime    time.Time
	EndTime      time.Time
	Forced       bool // admin force-return audit marker
}

// Distance returns the mileage covered by a completed usage.
func (u *VehicleUsage) Distance() int64 {
	if u.Status != UsageStatusCompleted || u.EndMileage < u.StartMileage {
		return 0
	}
	return u.EndMileage - u.StartMileage
}
