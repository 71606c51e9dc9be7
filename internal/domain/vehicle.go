package domain

import "time"

// VehicleStatus represents the current status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusPending     VehicleStatus = "PENDING" // tentatively held by a pending booking
	VehicleStatusInUse       VehicleStatus = "IN_USE"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusRetired     VehicleStatus = "RETIRED"
)

// Vehicle represents a fleet vehicle.
//
// Status is owned by the lifecycle services: it changes only as a side effect
// of a booking, usage, or maintenance transition, never directly.
type Vehicle struct {
	ID                string
	PlateNumber       string
	Make              string
	Model             string
	Status            VehicleStatus
	CurrentMileage    int64
	LastMaintenanceID string
	CreatedAt         time.Time
}
