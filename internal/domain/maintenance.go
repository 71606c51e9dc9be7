package domain

import "time"

// MaintenanceType distinguishes garage visits from cost-only log entries.
type MaintenanceType string

const (
	MaintenanceTypeGarage   MaintenanceType = "GARAGE"
	MaintenanceTypeCostOnly MaintenanceType = "COST_ONLY"
)

// MaintenanceStatus represents the current status of a maintenance record.
type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "PENDING"
	MaintenanceStatusInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceStatusCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCancelled  MaintenanceStatus = "CANCELLED"
)

// MaintenanceRecord represents one garage visit or cost-only service entry.
//
// Only an IN_PROGRESS record gates its vehicle into MAINTENANCE status, and
// at most one such record exists per vehicle at any time.
type MaintenanceRecord struct {
	ID                string
	VehicleID         string
	Type              MaintenanceType
	Status            MaintenanceStatus
	Vendor            string
	OdometerAtDropOff int64
	FinalMileage      int64
	FinalCost         float64
	ExpectedReturn    time.Time
	Notes             string
	SentAt            time.Time
	ReceivedAt        time.Time
	CreatedAt         time.Time
}
