package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/notify"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 3. MAINTENANCE LIFECYCLE (GARAGE SEND / RECEIVE)
// ──────────────────────────────────────────────

func TestMaintenance_SendTakesVehicleOutOfService(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "drv-1", Name: "Ben", Role: domain.RoleDriver})
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", PlateNumber: "AB-123", Status: domain.VehicleStatusAvailable, CurrentMileage: 3000})

	notifier := NewRecordingNotifier()
	svc := service.NewMaintenanceService(store, notifier, nil)

	record, err := svc.SendToGarage(context.Background(), service.SendToGarageRequest{
		VehicleID:      "veh-1",
		DriverID:       "drv-1",
		Vendor:         "City Garage",
		ExpectedReturn: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != domain.MaintenanceStatusInProgress {
		t.Errorf("expected status %s, got %s", domain.MaintenanceStatusInProgress, record.Status)
	}
	// Odometer defaults to the vehicle's current mileage.
	if record.OdometerAtDropOff != 3000 {
		t.Errorf("expected drop-off odometer 3000, got %d", record.OdometerAtDropOff)
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusMaintenance {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusMaintenance, vehicle.Status)
	}
	if vehicle.LastMaintenanceID != record.ID {
		t.Errorf("expected LastMaintenanceID %s, got %s", record.ID, vehicle.LastMaintenanceID)
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventVehicleSent {
		t.Fatalf("expected %s event, got %+v", notify.EventVehicleSent, last)
	}
	if last.Payload.DriverName != "Ben" {
		t.Errorf("expected driver in event payload, got %q", last.Payload.DriverName)
	}
}

func TestMaintenance_SendWhileInMaintenance_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusMaintenance})
	store.AddMaintenance(&domain.MaintenanceRecord{
		ID:        "mnt-1",
		VehicleID: "veh-1",
		Type:      domain.MaintenanceTypeGarage,
		Status:    domain.MaintenanceStatusInProgress,
	})

	svc := service.NewMaintenanceService(store, nil, nil)

	_, err := svc.SendToGarage(context.Background(), service.SendToGarageRequest{VehicleID: "veh-1"})
	if !errors.Is(err, service.ErrAlreadyInMaintenance) {
		t.Fatalf("expected ErrAlreadyInMaintenance, got %v", err)
	}
}

func TestMaintenance_ReceiveRestoresVehicle(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", PlateNumber: "AB-123", Status: domain.VehicleStatusMaintenance, CurrentMileage: 3000})
	store.AddMaintenance(&domain.MaintenanceRecord{
		ID:                "mnt-1",
		VehicleID:         "veh-1",
		Type:              domain.MaintenanceTypeGarage,
		Status:            domain.MaintenanceStatusInProgress,
		OdometerAtDropOff: 3000,
	})

	notifier := NewRecordingNotifier()
	svc := service.NewMaintenanceService(store, notifier, nil)

	record, err := svc.ReceiveFromGarage(context.Background(), service.ReceiveFromGarageRequest{
		MaintenanceID: "mnt-1",
		FinalCost:     420.50,
		FinalMileage:  3010,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != domain.MaintenanceStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.MaintenanceStatusCompleted, record.Status)
	}
	if record.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt set")
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusAvailable {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusAvailable, vehicle.Status)
	}
	if vehicle.CurrentMileage != 3010 {
		t.Errorf("expected mileage advanced to 3010, got %d", vehicle.CurrentMileage)
	}

	last := notifier.LastEvent()
	if last == nil || last.Kind != notify.EventVehicleReturned {
		t.Fatalf("expected %s event, got %+v", notify.EventVehicleReturned, last)
	}
	if last.Payload.FinalCost == nil || *last.Payload.FinalCost != 420.50 {
		t.Errorf("expected final cost in event payload, got %v", last.Payload.FinalCost)
	}
}

func TestMaintenance_ReceiveWithLowerMileage_FailsAndMutatesNothing(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusMaintenance, CurrentMileage: 3000})
	store.AddMaintenance(&domain.MaintenanceRecord{
		ID:        "mnt-1",
		VehicleID: "veh-1",
		Type:      domain.MaintenanceTypeGarage,
		Status:    domain.MaintenanceStatusInProgress,
	})

	svc := service.NewMaintenanceService(store, nil, nil)

	_, err := svc.ReceiveFromGarage(context.Background(), service.ReceiveFromGarageRequest{
		MaintenanceID: "mnt-1",
		FinalMileage:  2900,
	})
	if !errors.Is(err, service.ErrInvalidMileage) {
		t.Fatalf("expected ErrInvalidMileage, got %v", err)
	}

	record, _ := store.Maintenance().GetByID(context.Background(), "mnt-1")
	if record.Status != domain.MaintenanceStatusInProgress {
		t.Errorf("failed receive mutated record status: %s", record.Status)
	}
	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusMaintenance {
		t.Errorf("failed receive mutated vehicle status: %s", vehicle.Status)
	}
}

func TestMaintenance_ReceiveTwice_Fails(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusMaintenance})
	store.AddMaintenance(&domain.MaintenanceRecord{
		ID:        "mnt-1",
		VehicleID: "veh-1",
		Type:      domain.MaintenanceTypeGarage,
		Status:    domain.MaintenanceStatusInProgress,
	})

	svc := service.NewMaintenanceService(store, nil, nil)

	if _, err := svc.ReceiveFromGarage(context.Background(), service.ReceiveFromGarageRequest{MaintenanceID: "mnt-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.ReceiveFromGarage(context.Background(), service.ReceiveFromGarageRequest{MaintenanceID: "mnt-1"})
	if !errors.Is(err, service.ErrMaintenanceNotInProgress) {
		t.Fatalf("expected ErrMaintenanceNotInProgress, got %v", err)
	}
}

func TestMaintenance_CancelOnlyPendingRequests(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddMaintenance(&domain.MaintenanceRecord{
		ID:     "mnt-1",
		Type:   domain.MaintenanceTypeGarage,
		Status: domain.MaintenanceStatusPending,
	})
	store.AddMaintenance(&domain.MaintenanceRecord{
		ID:     "mnt-2",
		Type:   domain.MaintenanceTypeGarage,
		Status: domain.MaintenanceStatusInProgress,
	})

	notifier := NewRecordingNotifier()
	svc := service.NewMaintenanceService(store, notifier, nil)

	record, err := svc.CancelMaintenanceRequest(context.Background(), "mnt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != domain.MaintenanceStatusCancelled {
		t.Errorf("expected status %s, got %s", domain.MaintenanceStatusCancelled, record.Status)
	}
	// Cancellation emits no event.
	if len(notifier.Events()) != 0 {
		t.Errorf("expected no events on cancel, got %d", len(notifier.Events()))
	}

	_, err = svc.CancelMaintenanceRequest(context.Background(), "mnt-2")
	if !errors.Is(err, service.ErrMaintenanceNotPending) {
		t.Fatalf("expected ErrMaintenanceNotPending, got %v", err)
	}
}

func TestMaintenance_CostOnlyNeverLeavesService(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable, CurrentMileage: 1000})

	notifier := NewRecordingNotifier()
	svc := service.NewMaintenanceService(store, notifier, nil)

	record, err := svc.LogCostOnly(context.Background(), service.LogCostOnlyRequest{
		VehicleID: "veh-1",
		Cost:      35,
		Notes:     "wiper blades",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Type != domain.MaintenanceTypeCostOnly {
		t.Errorf("expected type %s, got %s", domain.MaintenanceTypeCostOnly, record.Type)
	}
	if record.Status != domain.MaintenanceStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.MaintenanceStatusCompleted, record.Status)
	}

	vehicle, _ := store.Vehicles().GetByID(context.Background(), "veh-1")
	if vehicle.Status != domain.VehicleStatusAvailable {
		t.Errorf("cost-only entry changed vehicle status: %s", vehicle.Status)
	}
	if vehicle.LastMaintenanceID != record.ID {
		t.Errorf("expected LastMaintenanceID %s, got %s", record.ID, vehicle.LastMaintenanceID)
	}
	if len(notifier.Events()) != 0 {
		t.Errorf("expected no events for cost-only entry, got %d", len(notifier.Events()))
	}
}

func TestMaintenance_CostOnlyRequiresPositiveCost(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusAvailable})

	svc := service.NewMaintenanceService(store, nil, nil)

	_, err := svc.LogCostOnly(context.Background(), service.LogCostOnlyRequest{VehicleID: "veh-1", Cost: 0})
	if !errors.Is(err, service.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestVehicle_RetireRefusedWhileInService(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	store.AddVehicle(&domain.Vehicle{ID: "veh-1", Status: domain.VehicleStatusInUse})
	store.AddUsage(&domain.VehicleUsage{
		ID:        "use-1",
		VehicleID: "veh-1",
		Status:    domain.UsageStatusActive,
	})

	svc := service.NewVehicleService(store, nil)

	_, err := svc.RetireVehicle(context.Background(), "veh-1")
	if !errors.Is(err, service.ErrVehicleInService) {
		t.Fatalf("expected ErrVehicleInService, got %v", err)
	}

	// After the usage completes, retirement goes through.
	usage, _ := store.Usages().GetByID(context.Background(), "use-1")
	usage.Status = domain.UsageStatusCompleted
	store.AddUsage(usage)

	vehicle, err := svc.RetireVehicle(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vehicle.Status != domain.VehicleStatusRetired {
		t.Errorf("expected status %s, got %s", domain.VehicleStatusRetired, vehicle.Status)
	}
}
