package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/notify"
	redisstore "fleet/internal/redis"
	"fleet/internal/repository"
)

// MaintenanceService owns the garage send/receive/cancel transitions and
// cost-only maintenance log entries.
type MaintenanceService struct {
	store    repository.Store
	notifier Notifier
	cache    *redisstore.CacheStore
}

// NewMaintenanceService creates a new MaintenanceService.
func NewMaintenanceService(store repository.Store, notifier Notifier, cache *redisstore.CacheStore) *MaintenanceService {
	return &MaintenanceService{store: store, notifier: notifier, cache: cache}
}

// SendToGarageRequest contains the parameters for sending a vehicle to a garage.
type SendToGarageRequest struct {
	VehicleID      string
	DriverID       string // optional; who takes the vehicle to the garage
	Vendor         string
	ExpectedReturn time.Time
	Odometer       int64 // optional; defaults to the vehicle's current mileage
	Notes          string
}

// SendToGarage creates an IN_PROGRESS maintenance record and takes the
// vehicle out of service. A vehicle with an existing in-progress record
// fails with ErrAlreadyInMaintenance.
func (s *MaintenanceService) SendToGarage(ctx context.Context, req SendToGarageRequest) (*domain.MaintenanceRecord, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	var record *domain.MaintenanceRecord
	var vehicle *domain.Vehicle
	var driver *domain.User

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status == domain.VehicleStatusRetired {
			return ErrVehicleUnavailable
		}

		existing, err := tx.Maintenance().GetInProgressByVehicleID(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyInMaintenance
		}

		if req.DriverID != "" {
			driver, err = tx.Users().GetByID(ctx, req.DriverID)
			if err != nil {
				return err
			}
		}

		odometer := req.Odometer
		if odometer == 0 {
			odometer = vehicle.CurrentMileage
		}

		record = &domain.MaintenanceRecord{
			ID:                uuid.New().String(),
			VehicleID:         vehicle.ID,
			Type:              domain.MaintenanceTypeGarage,
			Status:            domain.MaintenanceStatusInProgress,
			Vendor:            req.Vendor,
			OdometerAtDropOff: odometer,
			ExpectedReturn:    req.ExpectedReturn,
			Notes:             req.Notes,
			SentAt:            time.Now(),
			CreatedAt:         time.Now(),
		}
		if err := tx.Maintenance().Create(ctx, record); err != nil {
			return err
		}

		vehicle.Status = domain.VehicleStatusMaintenance
		vehicle.LastMaintenanceID = record.ID
		return tx.Vehicles().Update(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, req.VehicleID)

	if s.notifier != nil {
		payload := &notify.Payload{
			MaintenanceID:  record.ID,
			VehicleID:      vehicle.ID,
			VehiclePlate:   vehicle.PlateNumber,
			Vendor:         record.Vendor,
			ExpectedReturn: record.ExpectedReturn,
			Note:           record.Notes,
		}
		if driver != nil {
			payload.DriverID = driver.ID
			payload.DriverName = driver.Name
		}
		s.notifier.DispatchAsync(notify.EventVehicleSent, payload)
	}

	return record, nil
}

// ReceiveFromGarageRequest contains the parameters for receiving a vehicle
// back from a garage.
type ReceiveFromGarageRequest struct {
	MaintenanceID string
	FinalCost     float64
	FinalMileage  int64 // optional; 0 means not supplied
	Notes         string
}

// ReceiveFromGarage completes an in-progress maintenance record and puts
// the vehicle back in service. A supplied final mileage below the vehicle's
// current mileage fails with ErrInvalidMileage and mutates nothing.
//
// The floor is the vehicle's current mileage, not the drop-off odometer;
// that mirrors how receipts were validated historically and is kept until
// the invariant is revisited.
func (s *MaintenanceService) ReceiveFromGarage(ctx context.Context, req ReceiveFromGarageRequest) (*domain.MaintenanceRecord, error) {
	if req.MaintenanceID == "" {
		return nil, ErrInvalidMaintenanceID
	}

	var record *domain.MaintenanceRecord
	var vehicle *domain.Vehicle

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		record, err = tx.Maintenance().GetByIDForUpdate(ctx, req.MaintenanceID)
		if err != nil {
			return err
		}
		if record.Status != domain.MaintenanceStatusInProgress {
			return ErrMaintenanceNotInProgress
		}

		vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, record.VehicleID)
		if err != nil {
			return err
		}

		if req.FinalMileage != 0 && req.FinalMileage < vehicle.CurrentMileage {
			return ErrInvalidMileage
		}

		record.Status = domain.MaintenanceStatusCompleted
		record.FinalCost = req.FinalCost
		record.FinalMileage = req.FinalMileage
		if req.Notes != "" {
			record.Notes = req.Notes
		}
		record.ReceivedAt = time.Now()
		if err := tx.Maintenance().Update(ctx, record); err != nil {
			return err
		}

		vehicle.Status = domain.VehicleStatusAvailable
		if req.FinalMileage > vehicle.CurrentMileage {
			vehicle.CurrentMileage = req.FinalMileage
		}
		return tx.Vehicles().Update(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, record.VehicleID)

	if s.notifier != nil {
		cost := record.FinalCost
		payload := &notify.Payload{
			MaintenanceID: record.ID,
			VehicleID:     vehicle.ID,
			VehiclePlate:  vehicle.PlateNumber,
			Vendor:        record.Vendor,
			Note:          record.Notes,
			EndTime:       record.ReceivedAt,
			FinalCost:     &cost,
		}
		if record.FinalMileage != 0 {
			mileage := record.FinalMileage
			payload.FinalMileage = &mileage
		}
		s.notifier.DispatchAsync(notify.EventVehicleReturned, payload)
	}

	return record, nil
}

// CancelMaintenanceRequest cancels a maintenance request that has not been
// sent yet. The vehicle was never taken out of service, so no vehicle
// mutation and no event.
func (s *MaintenanceService) CancelMaintenanceRequest(ctx context.Context, maintenanceID string) (*domain.MaintenanceRecord, error) {
	if maintenanceID == "" {
		return nil, ErrInvalidMaintenanceID
	}

	var record *domain.MaintenanceRecord

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		record, err = tx.Maintenance().GetByIDForUpdate(ctx, maintenanceID)
		if err != nil {
			return err
		}
		if record.Status != domain.MaintenanceStatusPending {
			return ErrMaintenanceNotPending
		}

		record.Status = domain.MaintenanceStatusCancelled
		return tx.Maintenance().Update(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// LogCostOnlyRequest contains the parameters for a cost-only maintenance entry.
type LogCostOnlyRequest struct {
	VehicleID string
	Cost      float64
	Mileage   int64
	Notes     string
}

// LogCostOnly records maintenance work that happened without a garage
// visit: the record is created already completed and the vehicle never
// leaves service.
func (s *MaintenanceService) LogCostOnly(ctx context.Context, req LogCostOnlyRequest) (*domain.MaintenanceRecord, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if req.Cost <= 0 {
		return nil, ErrInvalidAmount
	}

	var record *domain.MaintenanceRecord

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		vehicle, err := tx.Vehicles().GetByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			return err
		}

		now := time.Now()
		record = &domain.MaintenanceRecord{
			ID:                uuid.New().String(),
			VehicleID:         vehicle.ID,
			Type:              domain.MaintenanceTypeCostOnly,
			Status:            domain.MaintenanceStatusCompleted,
			OdometerAtDropOff: req.Mileage,
			FinalMileage:      req.Mileage,
			FinalCost:         req.Cost,
			Notes:             req.Notes,
			ReceivedAt:        now,
			CreatedAt:         now,
		}
		if err := tx.Maintenance().Create(ctx, record); err != nil {
			return err
		}

		vehicle.LastMaintenanceID = record.ID
		return tx.Vehicles().Update(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// GetMaintenanceHistory retrieves the maintenance records of a vehicle.
func (s *MaintenanceService) GetMaintenanceHistory(ctx context.Context, vehicleID string) ([]*domain.MaintenanceRecord, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	return s.store.Maintenance().GetByVehicleID(ctx, vehicleID)
}

func (s *MaintenanceService) invalidateVehicle(ctx context.Context, vehicleID string) {
	if s.cache != nil && vehicleID != "" {
		_ = s.cache.InvalidateVehicle(ctx, vehicleID)
	}
}
