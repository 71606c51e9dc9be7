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
// 2. USAGE LIFECYCLE (BORROW / RETURN)
// ──────────────────────────────────────────────

func TestUsage_StartActivatesPendingUsageFromBooking(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Name: "Anna", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse, CurrentMileage: 1000})
	store.AddBooking(&domain.Booking{
		ID:          "bk-1",
		RequesterID: "user-1",
		VehicleID:   "veh-1",
		Status:      domain.BookingStatusApproved,
	})
	store.AddUsage(&domain.VehicleUsage{
		ID:           "use-1",
		VehicleID:    "veh-1",
		UserID:       "user-1",
		BookingID:    "bk-1",
		Status:       domain.UsageStatusPending,
		StartMileage: 1000,
	})

	notifier := NewRecordingNotifier()
	svc := service.NewUsageService(store, notifier, nil)

	usage, err := svc.StartUsage(context.Background(), service.StartUsageRequest{BookingID: "bk-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.ID != "use-1" {
		t.Errorf("expected pending usage use-1 activated, got new usage %s", usage.ID)
	}
	if usage.Status != domain.UsageStatusActive {
		t.Errorf("expected status %s, got %s", domain.UsageStatusActive, usage.Status)
	}
	if usage.StartTime.IsZero() {
		t.Error("expected start time set at activation")
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventVehicleBorrowed {
		t.Errorf("expected %s event, got %+v", notify.EventVehicleBorrowed, last)
	}
}

func TestUsage_AdHocStartWithoutBooking(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable, CurrentMileage: 500})

	svc := service.NewUsageService(store, nil, nil)

	usage, err := svc.StartUsage(context.Background(), service.StartUsageRequest{VehicleID: "veh-1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.Status != domain.UsageStatusActive {
		t.Errorf("expected status %s, got %s", domain.UsageStatusActive, usage.Status)
	}
	if usage.StartMileage != 500 {
		t.Errorf("expected start mileage defaulted to 500, got %d", usage.StartMileage)
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusInUse {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusInUse, vehicle.Status)
	}
}

func TestUsage_StartDuringMaintenance_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusMaintenance})

	svc := service.NewUsageService(store, nil, nil)

	_, err := svc.StartUsage(context.Background(), service.StartUsageRequest{VehicleID: "veh-1", UserID: "user-1"})
	if !errors.Is(err, service.ErrVehicleUnavailable) {
		t.Fatalf("expected ErrVehicleUnavailable, got %v", err)
	}
}

func TestUsage_ConcurrentStarts_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable})
	for _, id := range []string{"user-1", "user-2", "user-3", "user-4"} {
		store.AddUser(&domain.User{ID: id, Role: domain.RoleDriver})
	}

	svc := service.NewUsageService(store, nil, nil)

	users := []string{"user-1", "user-2", "user-3", "user-4"}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, userID := range users {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = svc.StartUsage(context.Background(), service.StartUsageRequest{VehicleID: "veh-1", UserID: userID})
		}(i, userID)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, service.ErrVehicleBusy) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one start to win, got %d", wins)
	}

	// At most one active usage exists for the vehicle.
	active, err := store.Usages().GetActiveByVehicleID(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active == nil {
		t.Fatal("expected one active usage")
	}
}

func TestUsage_ReturnComputesDistanceAndExpenses(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Name: "Anna", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse, CurrentMileage: 1000})
	store.AddUsage(&domain.VehicleUsage{
		ID:           "use-1",
		VehicleID:    "veh-1",
		UserID:       "user-1",
		Status:       domain.UsageStatusActive,
		StartMileage: 1000,
		StartTime:    time.Now().Add(-2 * time.Hour),
	})
	store.AddExpense(&domain.Expense{ID: "exp-1", VehicleID: "veh-1", UsageID: "use-1", Type: domain.ExpenseTypeFuel, Amount: 40.5})
	store.AddExpense(&domain.Expense{ID: "exp-2", VehicleID: "veh-1", UsageID: "use-1", Type: domain.ExpenseTypeOther, Amount: 9.5})
	store.AddExpense(&domain.Expense{ID: "exp-3", VehicleID: "veh-1", UsageID: "other", Amount: 99})

	notifier := NewRecordingNotifier()
	svc := service.NewUsageService(store, notifier, nil)

	result, err := svc.ReturnUsage(context.Background(), service.ReturnUsageRequest{UsageID: "use-1", EndMileage: 1180})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalDistance != 180 {
		t.Errorf("expected distance 180, got %d", result.TotalDistance)
	}
	if result.TotalExpenses != 50.0 {
		t.Errorf("expected expenses 50.0, got %f", result.TotalExpenses)
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusAvailable {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusAvailable, vehicle.Status)
	}
	if vehicle.CurrentMileage != 1180 {
		t.Errorf("expected mileage advanced to 1180, got %d", vehicle.CurrentMileage)
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventVehicleReturned {
		t.Fatalf("expected %s event, got %+v", notify.EventVehicleReturned, last)
	}
	if last.Payload.TotalDistance == nil || *last.Payload.TotalDistance != 180 {
		t.Errorf("expected event distance 180, got %v", last.Payload.TotalDistance)
	}
	if last.Payload.TotalExpenses == nil || *last.Payload.TotalExpenses != 50.0 {
		t.Errorf("expected event expenses 50.0, got %v", last.Payload.TotalExpenses)
	}
}

func TestUsage_ReturnWithLowerMileage_FailsAndMutatesNothing(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse, CurrentMileage: 1000})
	store.AddUsage(&domain.VehicleUsage{
		ID:           "use-1",
		VehicleID:    "veh-1",
		UserID:       "user-1",
		Status:       domain.UsageStatusActive,
		StartMileage: 1000,
	})

	svc := service.NewUsageService(store, nil, nil)

	_, err := svc.ReturnUsage(context.Background(), service.ReturnUsageRequest{UsageID: "use-1", EndMileage: 900})
	if !errors.Is(err, service.ErrInvalidMileage) {
		t.Fatalf("expected ErrInvalidMileage, got %v", err)
	}

	usage, _ := store.Usages().GetByID(context.Background(), "use-1")
	if usage.Status != domain.UsageStatusActive {
		t.Errorf("failed return mutated usage status: %s", usage.Status)
	}
	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusInUse {
		t.Errorf("failed return mutated vehicle status: %s", vehicle.Status)
	}
}

func TestUsage_ReturnTwice_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse, CurrentMileage: 100})
	store.AddUsage(&domain.VehicleUsage{
		ID:           "use-1",
		VehicleID:    "veh-1",
		UserID:       "user-1",
		Status:       domain.UsageStatusActive,
		StartMileage: 100,
	})

	svc := service.NewUsageService(store, nil, nil)

	if _, err := svc.ReturnUsage(context.Background(), service.ReturnUsageRequest{UsageID: "use-1", EndMileage: 150}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.ReturnUsage(context.Background(), service.ReturnUsageRequest{UsageID: "use-1", EndMileage: 160})
	if !errors.Is(err, service.ErrUsageNotActive) {
		t.Fatalf("expected ErrUsageNotActive, got %v", err)
	}
}

func TestUsage_ForceReturnCarriesAuditMarker(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse, CurrentMileage: 100})
	store.AddUsage(&domain.VehicleUsage{
		ID:           "use-1",
		VehicleID:    "veh-1",
		UserID:       "user-1",
		Status:       domain.UsageStatusActive,
		StartMileage: 100,
	})

	svc := service.NewUsageService(store, nil, nil)

	result, err := svc.ForceReturn(context.Background(), "use-1", 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Usage.Forced {
		t.Error("expected forced audit marker on the completed usage")
	}
}

func TestUsage_VehicleMileageNeverDecreases(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	// Vehicle mileage is ahead of the usage's start mileage (e.g. corrected
	// by a maintenance receipt in between).
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse, CurrentMileage: 2000})
	store.AddUsage(&domain.VehicleUsage{
		ID:           "use-1",
		VehicleID:    "veh-1",
		UserID:       "user-1",
		Status:       domain.UsageStatusActive,
		StartMileage: 1000,
	})

	svc := service.NewUsageService(store, nil, nil)

	if _, err := svc.ReturnUsage(context.Background(), service.ReturnUsageRequest{UsageID: "use-1", EndMileage: 1500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.CurrentMileage != 2000 {
		t.Errorf("vehicle mileage decreased: %d", vehicle.CurrentMileage)
	}
}
