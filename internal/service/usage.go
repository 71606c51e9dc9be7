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

// UsageService owns the borrow/return transitions of vehicle usages.
type UsageService struct {
	store    repository.Store
	notifier Notifier
	cache    *redisstore.CacheStore
}

// NewUsageService creates a new UsageService.
func NewUsageService(store repository.Store, notifier Notifier, cache *redisstore.CacheStore) *UsageService {
	return &UsageService{store: store, notifier: notifier, cache: cache}
}

// StartUsageRequest contains the parameters for starting a usage.
type StartUsageRequest struct {
	BookingID    string // optional; activates the pending usage from approval
	VehicleID    string // required when no booking is given
	UserID       string
	StartMileage int64 // optional; defaults to the vehicle's current mileage
	Destination  string
}

// StartUsage activates a usage for a vehicle. With a booking it activates
// the pending usage created at approval; without one it creates an ad-hoc
// active usage. Exactly one caller wins when several race for the same
// vehicle; the rest get ErrVehicleBusy.
func (s *UsageService) StartUsage(ctx context.Context, req StartUsageRequest) (*domain.VehicleUsage, error) {
	if req.BookingID == "" && req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if req.BookingID == "" && req.UserID == "" {
		return nil, ErrInvalidUserID
	}

	var usage *domain.VehicleUsage
	var vehicle *domain.Vehicle
	var user *domain.User

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		vehicleID := req.VehicleID
		userID := req.UserID

		if req.BookingID != "" {
			booking, err := tx.Bookings().GetByIDForUpdate(ctx, req.BookingID)
			if err != nil {
				return err
			}
			if booking.Status != domain.BookingStatusApproved {
				return ErrVehicleUnavailable
			}
			vehicleID = booking.VehicleID
			if userID == "" {
				userID = booking.RequesterID
			}
		}

		var err error
		vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status == domain.VehicleStatusMaintenance || vehicle.Status == domain.VehicleStatusRetired {
			return ErrVehicleUnavailable
		}

		active, err := tx.Usages().GetActiveByVehicleID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrVehicleBusy
		}

		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		startMileage := req.StartMileage
		if startMileage == 0 {
			startMileage = vehicle.CurrentMileage
		}

		if req.BookingID != "" {
			usage, err = tx.Usages().GetPendingByBookingID(ctx, req.BookingID)
			if err != nil {
				return err
			}
		}

		if usage != nil {
			usage.Status = domain.UsageStatusActive
			usage.StartMileage = startMileage
			usage.StartTime = time.Now()
			if err := tx.Usages().Update(ctx, usage); err != nil {
				return err
			}
		} else {
			usage = &domain.VehicleUsage{
				ID:           uuid.New().String(),
				VehicleID:    vehicleID,
				UserID:       userID,
				BookingID:    req.BookingID,
				Status:       domain.UsageStatusActive,
				StartMileage: startMileage,
				StartTime:    time.Now(),
			}
			if err := tx.Usages().Create(ctx, usage); err != nil {
				return err
			}
		}

		vehicle.Status = domain.VehicleStatusInUse
		return tx.Vehicles().Update(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, usage.VehicleID)

	if s.notifier != nil {
		s.notifier.DispatchAsync(notify.EventVehicleBorrowed, &notify.Payload{
			UsageID:       usage.ID,
			VehicleID:     usage.VehicleID,
			BookingID:     usage.BookingID,
			Actor:         user.ID,
			RequesterID:   user.ID,
			RequesterName: user.Name,
			VehiclePlate:  vehicle.PlateNumber,
			StartTime:     usage.StartTime,
			Destination:   req.Destination,
		})
	}

	return usage, nil
}

// ReturnUsageRequest contains the parameters for returning a usage.
type ReturnUsageRequest struct {
	UsageID    string
	EndMileage int64 // optional; 0 means not supplied
	Forced     bool  // admin force-return audit marker
}

// ReturnUsageResponse contains the completed usage and its derived figures.
type ReturnUsageResponse struct {
	Usage         *domain.VehicleUsage
	TotalDistance int64
	TotalExpenses float64
}

// ReturnUsage completes an active usage, releases the vehicle, and advances
// the vehicle's mileage. A supplied end mileage below the start mileage
// fails with ErrInvalidMileage and mutates nothing.
func (s *UsageService) ReturnUsage(ctx context.Context, req ReturnUsageRequest) (*ReturnUsageResponse, error) {
	if req.UsageID == "" {
		return nil, ErrInvalidUsageID
	}

	var usage *domain.VehicleUsage
	var vehicle *domain.Vehicle
	var user *domain.User
	var totalExpenses float64

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		usage, err = tx.Usages().GetByIDForUpdate(ctx, req.UsageID)
		if err != nil {
			return err
		}
		if usage.Status != domain.UsageStatusActive {
			return ErrUsageNotActive
		}

		if req.EndMileage != 0 && req.EndMileage < usage.StartMileage {
			return ErrInvalidMileage
		}

		vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, usage.VehicleID)
		if err != nil {
			return err
		}

		user, err = tx.Users().GetByID(ctx, usage.UserID)
		if err != nil {
			return err
		}

		totalExpenses, err = tx.Expenses().SumByUsageID(ctx, usage.ID)
		if err != nil {
			return err
		}

		endMileage := req.EndMileage
		if endMileage == 0 {
			endMileage = usage.StartMileage
		}

		usage.Status = domain.UsageStatusCompleted
		usage.EndMileage = endMileage
		usage.EndTime = time.Now()
		usage.Forced = req.Forced
		if err := tx.Usages().Update(ctx, usage); err != nil {
			return err
		}

		vehicle.Status = domain.VehicleStatusAvailable
		if endMileage > vehicle.CurrentMileage {
			vehicle.CurrentMileage = endMileage
		}
		return tx.Vehicles().Update(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, usage.VehicleID)

	distance := usage.Distance()

	if s.notifier != nil {
		s.notifier.DispatchAsync(notify.EventVehicleReturned, &notify.Payload{
			UsageID:       usage.ID,
			VehicleID:     usage.VehicleID,
			BookingID:     usage.BookingID,
			Actor:         user.ID,
			RequesterID:   user.ID,
			RequesterName: user.Name,
			VehiclePlate:  vehicle.PlateNumber,
			EndTime:       usage.EndTime,
			TotalDistance: &distance,
			TotalExpenses: &totalExpenses,
		})
	}

	return &ReturnUsageResponse{
		Usage:         usage,
		TotalDistance: distance,
		TotalExpenses: totalExpenses,
	}, nil
}

// ForceReturn is the admin variant of ReturnUsage: identical invariants,
// but the usage carries the forced audit marker.
func (s *UsageService) ForceReturn(ctx context.Context, usageID string, endMileage int64) (*ReturnUsageResponse, error) {
	return s.ReturnUsage(ctx, ReturnUsageRequest{UsageID: usageID, EndMileage: endMileage, Forced: true})
}

// GetUsage retrieves a usage by ID.
func (s *UsageService) GetUsage(ctx context.Context, usageID string) (*domain.VehicleUsage, error) {
	if usageID == "" {
		return nil, ErrInvalidUsageID
	}
	return s.store.Usages().GetByID(ctx, usageID)
}

// GetUsagesByVehicle retrieves the usage history of a vehicle.
func (s *UsageService) GetUsagesByVehicle(ctx context.Context, vehicleID string) ([]*domain.VehicleUsage, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	return s.store.Usages().GetByVehicleID(ctx, vehicleID)
}

func (s *UsageService) invalidateVehicle(ctx context.Context, vehicleID string) {
	if s.cache != nil && vehicleID != "" {
		_ = s.cache.InvalidateVehicle(ctx, vehicleID)
	}
}
