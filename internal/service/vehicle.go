package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	redisstore "fleet/internal/redis"
	"fleet/internal/repository"
)

// VehicleService handles vehicle registration and administrative operations.
// It never changes a vehicle's status except for the RETIRED administrative
// override; every other status change belongs to a lifecycle transition.
type VehicleService struct {
	store repository.Store
	cache *redisstore.CacheStore
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(store repository.Store, cache *redisstore.CacheStore) *VehicleService {
	return &VehicleService{store: store, cache: cache}
}

// RegisterVehicleRequest contains the parameters for registering a vehicle.
type RegisterVehicleRequest struct {
	PlateNumber    string
	Make           string
	Model          string
	CurrentMileage int64
}

// RegisterVehicle adds a vehicle to the fleet in AVAILABLE state.
func (s *VehicleService) RegisterVehicle(ctx context.Context, req RegisterVehicleRequest) (*domain.Vehicle, error) {
	if req.PlateNumber == "" {
		return nil, ErrInvalidVehicleID
	}

	vehicle := &domain.Vehicle{
		ID:             uuid.New().String(),
		PlateNumber:    req.PlateNumber,
		Make:           req.Make,
		Model:          req.Model,
		Status:         domain.VehicleStatusAvailable,
		CurrentMileage: req.CurrentMileage,
		CreatedAt:      time.Now(),
	}

	if err := s.store.Vehicles().Create(ctx, vehicle); err != nil {
		return nil, err
	}

	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID, serving from cache when possible.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	if s.cache != nil {
		if cached, err := s.cache.GetVehicle(ctx, vehicleID); err == nil && cached != nil {
			return &domain.Vehicle{
				ID:             cached.ID,
				PlateNumber:    cached.PlateNumber,
				Make:           cached.Make,
				Model:          cached.Model,
				Status:         domain.VehicleStatus(cached.Status),
				CurrentMileage: cached.CurrentMileage,
			}, nil
		}
	}

	vehicle, err := s.store.Vehicles().GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetVehicle(ctx, &redisstore.CachedVehicle{
			ID:             vehicle.ID,
			PlateNumber:    vehicle.PlateNumber,
			Make:           vehicle.Make,
			Model:          vehicle.Model,
			Status:         string(vehicle.Status),
			CurrentMileage: vehicle.CurrentMileage,
		})
	}

	return vehicle, nil
}

// GetAllVehicles retrieves all vehicles.
func (s *VehicleService) GetAllVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.store.Vehicles().GetAll(ctx)
}

// RetireVehicle takes a vehicle permanently out of the fleet. Refused while
// an active usage or in-progress maintenance still references the vehicle.
func (s *VehicleService) RetireVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	var vehicle *domain.Vehicle

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}

		active, err := tx.Usages().GetActiveByVehicleID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrVehicleInService
		}

		inProgress, err := tx.Maintenance().GetInProgressByVehicleID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if inProgress != nil {
			return ErrVehicleInService
		}

		vehicle.Status = domain.VehicleStatusRetired
		return tx.Vehicles().Update(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateVehicle(ctx, vehicleID)
	}

	return vehicle, nil
}
