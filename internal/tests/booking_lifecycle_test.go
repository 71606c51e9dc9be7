package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/notify"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 1. BOOKING LIFECYCLE
// ──────────────────────────────────────────────

func TestBooking_CreateHoldsNamedVehicle(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Name: "Anna", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", PlateNumber: "AB-123", Status: domain.VehicleStatusAvailable})

	notifier := NewRecordingNotifier()
	svc := service.NewBookingService(store, notifier, nil)

	booking, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{
		RequesterID: "user-1",
		VehicleID:   "veh-1",
		StartTime:   time.Now().Add(time.Hour),
		Purpose:     "site visit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingStatusPending {
		t.Errorf("expected booking status %s, got %s", domain.BookingStatusPending, booking.Status)
	}

	vehicle, err := store.Vehicles().GetByID(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vehicle.Status != domain.VehicleStatusPending {
		t.Errorf("expected vehicle held as %s, got %s", domain.VehicleStatusPending, vehicle.Status)
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventBookingCreated {
		t.Errorf("expected %s event, got %+v", notify.EventBookingCreated, last)
	}
}

func TestBooking_CreateWithBusyVehicle_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleEmployee})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse})

	svc := service.NewBookingService(store, nil, nil)

	_, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{
		RequesterID: "user-1",
		VehicleID:   "veh-1",
	})
	if !errors.Is(err, service.ErrVehicleUnavailable) {
		t.Fatalf("expected ErrVehicleUnavailable, got %v", err)
	}

	// Nothing mutated.
	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusInUse {
		t.Errorf("vehicle status changed on failed create: %s", vehicle.Status)
	}
}

func TestBooking_ApproveCreatesPendingUsage(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Name: "Anna", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", PlateNumber: "AB-123", Status: domain.VehicleStatusAvailable, CurrentMileage: 1000})

	notifier := NewRecordingNotifier()
	svc := service.NewBookingService(store, notifier, nil)

	booking, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{
		RequesterID: "user-1",
		VehicleID:   "veh-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approved, err := svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: booking.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != domain.BookingStatusApproved {
		t.Errorf("expected status %s, got %s", domain.BookingStatusApproved, approved.Status)
	}
	// The requester can drive, so the driver is auto-resolved.
	if approved.DriverID != "user-1" {
		t.Errorf("expected driver user-1, got %s", approved.DriverID)
	}
	if approved.DecidedAt.IsZero() {
		t.Error("expected DecidedAt to be set")
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusInUse {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusInUse, vehicle.Status)
	}

	usage, err := store.Usages().GetPendingByBookingID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage == nil {
		t.Fatal("expected pending usage created at approval")
	}
	if usage.StartMileage != 1000 {
		t.Errorf("expected start mileage 1000, got %d", usage.StartMileage)
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventBookingApproved {
		t.Errorf("expected %s event, got %+v", notify.EventBookingApproved, last)
	}
}

func TestBooking_ApproveWithoutResolvableDriver_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleEmployee})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable})
	store.AddBooking(&domain.Booking{
		ID:          "bk-1",
		RequesterID: "user-1",
		VehicleID:   "veh-1",
		Status:      domain.BookingStatusPending,
	})

	svc := service.NewBookingService(store, nil, nil)

	// Employees cannot drive; approval without an explicit driver fails.
	_, err := svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: "bk-1"})
	if !errors.Is(err, service.ErrDriverRequired) {
		t.Fatalf("expected ErrDriverRequired, got %v", err)
	}

	booking, _ := store.Bookings().GetByID(context.Background(), "bk-1")
	if booking.Status != domain.BookingStatusPending {
		t.Errorf("failed approval mutated booking status: %s", booking.Status)
	}

	// With an explicit driver it goes through.
	store.AddUser(&domain.User{ID: "drv-1", Role: domain.RoleDriver})
	approved, err := svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: "bk-1", DriverID: "drv-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.DriverID != "drv-1" {
		t.Errorf("expected driver drv-1, got %s", approved.DriverID)
	}
}

func TestBooking_ApproveWithoutVehicle_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddBooking(&domain.Booking{
		ID:          "bk-1",
		RequesterID: "user-1",
		Status:      domain.BookingStatusPending,
	})

	svc := service.NewBookingService(store, nil, nil)

	_, err := svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: "bk-1"})
	if !errors.Is(err, service.ErrVehicleRequired) {
		t.Fatalf("expected ErrVehicleRequired, got %v", err)
	}
}

func TestBooking_SecondDecision_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable})
	store.AddBooking(&domain.Booking{
		ID:          "bk-1",
		RequesterID: "user-1",
		VehicleID:   "veh-1",
		Status:      domain.BookingStatusPending,
	})

	svc := service.NewBookingService(store, nil, nil)

	if _, err := svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: "bk-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: "bk-1"}); !errors.Is(err, service.ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized on second approve, got %v", err)
	}
	if _, err := svc.RejectBooking(context.Background(), service.RejectBookingRequest{BookingID: "bk-1"}); !errors.Is(err, service.ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized on reject after approve, got %v", err)
	}
}

func TestBooking_RejectReleasesHeldVehicle(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Name: "Anna", Role: domain.RoleEmployee})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusPending})
	store.AddBooking(&domain.Booking{
		ID:          "bk-1",
		RequesterID: "user-1",
		VehicleID:   "veh-1",
		Status:      domain.BookingStatusPending,
	})

	notifier := NewRecordingNotifier()
	svc := service.NewBookingService(store, notifier, nil)

	rejected, err := svc.RejectBooking(context.Background(), service.RejectBookingRequest{BookingID: "bk-1", Note: "no coverage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != domain.BookingStatusRejected {
		t.Errorf("expected status %s, got %s", domain.BookingStatusRejected, rejected.Status)
	}
	if rejected.Note != "no coverage" {
		t.Errorf("expected reviewer note preserved, got %q", rejected.Note)
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusAvailable {
		t.Errorf("expected vehicle released to %s, got %s", domain.VehicleStatusAvailable, vehicle.Status)
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventBookingRejected {
		t.Errorf("expected %s event, got %+v", notify.EventBookingRejected, last)
	}
}

func TestBooking_ConcurrentDecisions_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable})
	store.AddBooking(&domain.Booking{
		ID:          "bk-1",
		RequesterID: "user-1",
		VehicleID:   "veh-1",
		Status:      domain.BookingStatusPending,
	})

	svc := service.NewBookingService(store, nil, nil)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = svc.ApproveBooking(context.Background(), service.ApproveBookingRequest{BookingID: "bk-1"})
			} else {
				_, errs[i] = svc.RejectBooking(context.Background(), service.RejectBookingRequest{BookingID: "bk-1"})
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, service.ErrAlreadyFinalized) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one decision to win, got %d", wins)
	}
}

func TestBooking_NoEventWithoutNotifier(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleEmployee})

	svc := service.NewBookingService(store, nil, nil)

	// A nil notifier means the transition still commits, just silently.
	booking, err := svc.CreateBooking(context.Background(), service.CreateBookingRequest{RequesterID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingStatusPending {
		t.Errorf("expected status %s, got %s", domain.BookingStatusPending, booking.Status)
	}
}
