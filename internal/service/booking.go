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

// BookingService owns the booking transitions: create, approve, reject.
// Every transition runs inside one store transaction and emits its event
// only after the transaction commits.
type BookingService struct {
	store    repository.Store
	notifier Notifier
	cache    *redisstore.CacheStore
}

// NewBookingService creates a new BookingService.
func NewBookingService(store repository.Store, notifier Notifier, cache *redisstore.CacheStore) *BookingService {
	return &BookingService{store: store, notifier: notifier, cache: cache}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	RequesterID string
	VehicleID   string // optional; empty means "any vehicle, assigned at approval"
	StartTime   time.Time
	EndTime     time.Time
	Purpose     string
	Destination string
}

// CreateBooking creates a booking in PENDING state. If a vehicle is named,
// it must be available and is tentatively held (status PENDING) until the
// booking is decided.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.RequesterID == "" {
		return nil, ErrInvalidUserID
	}

	booking := &domain.Booking{
		ID:          uuid.New().String(),
		RequesterID: req.RequesterID,
		VehicleID:   req.VehicleID,
		Status:      domain.BookingStatusPending,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Purpose:     req.Purpose,
		Destination: req.Destination,
		CreatedAt:   time.Now(),
	}

	var requester *domain.User
	var vehicle *domain.Vehicle

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		requester, err = tx.Users().GetByID(ctx, req.RequesterID)
		if err != nil {
			return err
		}

		if req.VehicleID != "" {
			vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, req.VehicleID)
			if err != nil {
				return err
			}
			if vehicle.Status != domain.VehicleStatusAvailable {
				return ErrVehicleUnavailable
			}

			vehicle.Status = domain.VehicleStatusPending
			if err := tx.Vehicles().Update(ctx, vehicle); err != nil {
				return err
			}
		}

		return tx.Bookings().Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, req.VehicleID)

	if s.notifier != nil {
		payload := &notify.Payload{
			BookingID:     booking.ID,
			VehicleID:     booking.VehicleID,
			RequesterID:   requester.ID,
			RequesterName: requester.Name,
			StartTime:     booking.StartTime,
			EndTime:       booking.EndTime,
			Purpose:       booking.Purpose,
			Destination:   booking.Destination,
		}
		if vehicle != nil {
			payload.VehiclePlate = vehicle.PlateNumber
		}
		s.notifier.DispatchAsync(notify.EventBookingCreated, payload)
	}

	return booking, nil
}

// ApproveBookingRequest contains the parameters for approving a booking.
type ApproveBookingRequest struct {
	BookingID string
	DriverID  string // optional; auto-resolved from the requester when empty
	VehicleID string // optional; assigns a vehicle to a booking created without one
}

// ApproveBooking moves a pending booking to APPROVED, takes its vehicle
// IN_USE, fixes the driver, and creates the pending usage record — all in
// one atomic mutation. Approving a non-pending booking fails with
// ErrAlreadyFinalized and mutates nothing.
func (s *BookingService) ApproveBooking(ctx context.Context, req ApproveBookingRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	var vehicle *domain.Vehicle
	var requester, driver *domain.User

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		booking, err = tx.Bookings().GetByIDForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingStatusPending {
			return ErrAlreadyFinalized
		}

		requester, err = tx.Users().GetByID(ctx, booking.RequesterID)
		if err != nil {
			return err
		}

		driverID := req.DriverID
		if driverID == "" {
			driverID = ResolveDriver(requester)
		}
		if driverID == "" {
			return ErrDriverRequired
		}
		driver, err = tx.Users().GetByID(ctx, driverID)
		if err != nil {
			return err
		}

		vehicleID := booking.VehicleID
		if vehicleID == "" {
			vehicleID = req.VehicleID
		}
		if vehicleID == "" {
			return ErrVehicleRequired
		}

		vehicle, err = tx.Vehicles().GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}
		// PENDING means the vehicle is tentatively held by this booking.
		if vehicle.Status != domain.VehicleStatusAvailable && vehicle.Status != domain.VehicleStatusPending {
			return ErrVehicleUnavailable
		}

		booking.VehicleID = vehicle.ID
		booking.DriverID = driver.ID
		booking.Status = domain.BookingStatusApproved
		booking.DecidedAt = time.Now()
		if err := tx.Bookings().Update(ctx, booking); err != nil {
			return err
		}

		vehicle.Status = domain.VehicleStatusInUse
		if err := tx.Vehicles().Update(ctx, vehicle); err != nil {
			return err
		}

		usage := &domain.VehicleUsage{
			ID:           uuid.New().String(),
			VehicleID:    vehicle.ID,
			UserID:       booking.RequesterID,
			BookingID:    booking.ID,
			Status:       domain.UsageStatusPending,
			StartMileage: vehicle.CurrentMileage,
		}
		return tx.Usages().Create(ctx, usage)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, booking.VehicleID)

	if s.notifier != nil {
		s.notifier.DispatchAsync(notify.EventBookingApproved, &notify.Payload{
			BookingID:     booking.ID,
			VehicleID:     booking.VehicleID,
			RequesterID:   requester.ID,
			RequesterName: requester.Name,
			DriverID:      driver.ID,
			DriverName:    driver.Name,
			VehiclePlate:  vehicle.PlateNumber,
			StartTime:     booking.StartTime,
			Destination:   booking.Destination,
		})
	}

	return booking, nil
}

// RejectBookingRequest contains the parameters for rejecting a booking.
type RejectBookingRequest struct {
	BookingID string
	Note      string
}

// RejectBooking moves a pending booking to REJECTED and releases the
// tentatively held vehicle, if any. Rejecting a non-pending booking fails
// with ErrAlreadyFinalized and mutates nothing.
func (s *BookingService) RejectBooking(ctx context.Context, req RejectBookingRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var booking *domain.Booking
	var requester *domain.User
	var plate string

	err := s.store.Transact(ctx, func(tx repository.Store) error {
		var err error
		booking, err = tx.Bookings().GetByIDForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingStatusPending {
			return ErrAlreadyFinalized
		}

		requester, err = tx.Users().GetByID(ctx, booking.RequesterID)
		if err != nil {
			return err
		}

		booking.Status = domain.BookingStatusRejected
		booking.Note = req.Note
		booking.DecidedAt = time.Now()
		if err := tx.Bookings().Update(ctx, booking); err != nil {
			return err
		}

		if booking.VehicleID != "" {
			vehicle, err := tx.Vehicles().GetByIDForUpdate(ctx, booking.VehicleID)
			if err != nil {
				return err
			}
			plate = vehicle.PlateNumber
			if vehicle.Status == domain.VehicleStatusPending {
				vehicle.Status = domain.VehicleStatusAvailable
				if err := tx.Vehicles().Update(ctx, vehicle); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVehicle(ctx, booking.VehicleID)

	if s.notifier != nil {
		s.notifier.DispatchAsync(notify.EventBookingRejected, &notify.Payload{
			BookingID:     booking.ID,
			VehicleID:     booking.VehicleID,
			RequesterID:   requester.ID,
			RequesterName: requester.Name,
			VehiclePlate:  plate,
			StartTime:     booking.StartTime,
			Note:          booking.Note,
		})
	}

	return booking, nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.store.Bookings().GetByID(ctx, bookingID)
}

// GetBookingsByStatus retrieves bookings in the given status.
func (s *BookingService) GetBookingsByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	return s.store.Bookings().GetByStatus(ctx, status)
}

func (s *BookingService) invalidateVehicle(ctx context.Context, vehicleID string) {
	if s.cache != nil && vehicleID != "" {
		_ = s.cache.InvalidateVehicle(ctx, vehicleID)
	}
}

// ResolveDriver picks a driver from the requester's own profile: requesters
// who can drive become their own driver. Returns "" when no driver can be
// resolved, which makes approval fail with ErrDriverRequired.
func ResolveDriver(requester *domain.User) string {
	if requester == nil {
		return ""
	}
	if requester.CanDrive() {
		return requester.ID
	}
	return ""
}
