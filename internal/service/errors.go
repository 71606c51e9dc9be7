package service

import "errors"

var (
	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidUsageID is returned when usage ID is empty.
	ErrInvalidUsageID = errors.New("invalid usage id")

	// ErrInvalidMaintenanceID is returned when maintenance ID is empty.
	ErrInvalidMaintenanceID = errors.New("invalid maintenance id")

	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidExpenseID is returned when expense ID is empty.
	ErrInvalidExpenseID = errors.New("invalid expense id")

	// ErrInvalidAmount is returned when an expense amount is not positive.
	ErrInvalidAmount = errors.New("invalid expense amount")

	// ErrVehicleUnavailable is returned when a vehicle is not available for
	// the requested transition.
	ErrVehicleUnavailable = errors.New("vehicle not available")

	// ErrVehicleBusy is returned when a vehicle already has an active usage.
	ErrVehicleBusy = errors.New("vehicle already has an active usage")

	// ErrAlreadyInMaintenance is returned when a vehicle already has an
	// in-progress maintenance record.
	ErrAlreadyInMaintenance = errors.New("vehicle already in maintenance")

	// ErrAlreadyFinalized is returned when approving or rejecting a booking
	// that already reached a terminal status.
	ErrAlreadyFinalized = errors.New("booking already finalized")

	// ErrDriverRequired is returned when approval needs a driver and none
	// was supplied or could be auto-resolved from the requester.
	ErrDriverRequired = errors.New("driver required for approval")

	// ErrVehicleRequired is returned when approval is attempted on a booking
	// that never had a vehicle assigned.
	ErrVehicleRequired = errors.New("vehicle required for approval")

	// ErrInvalidMileage is returned when a supplied end or final mileage is
	// below the floor the transition enforces.
	ErrInvalidMileage = errors.New("mileage cannot be less than current")

	// ErrUsageNotActive is returned when returning a usage that is not active.
	ErrUsageNotActive = errors.New("usage not active")

	// ErrMaintenanceNotInProgress is returned when receiving a maintenance
	// record that is not in progress.
	ErrMaintenanceNotInProgress = errors.New("maintenance not in progress")

	// ErrMaintenanceNotPending is returned when cancelling a maintenance
	// request that already left the pending state.
	ErrMaintenanceNotPending = errors.New("maintenance request not pending")

	// ErrVehicleInService is returned when retiring a vehicle that is still
	// referenced by an active usage or in-progress maintenance.
	ErrVehicleInService = errors.New("vehicle still in service")
)
