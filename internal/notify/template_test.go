package notify

import (
	"testing"
	"time"

	"fleet/internal/domain"
)

func TestRender_MissingFieldsBecomePlaceholders(t *testing.T) {
	t.Parallel()

	msg, ok := Render(EventBookingCreated, domain.RoleAdmin, &Payload{RequesterName: "Anna"})
	if !ok {
		t.Fatal("expected a template for admin booking_created")
	}
	if msg.Title == "" {
		t.Error("expected a title")
	}

	values := make(map[string]string)
	for _, row := range msg.Rows {
		values[row.Label] = row.Value
	}
	if values["Requester"] != "Anna" {
		t.Errorf("expected requester name, got %q", values["Requester"])
	}
	for _, label := range []string{"Vehicle", "Start", "Purpose", "Destination"} {
		if values[label] != placeholder {
			t.Errorf("expected %s to render as placeholder, got %q", label, values[label])
		}
	}
}

func TestRender_NilPayloadNeverFails(t *testing.T) {
	t.Parallel()

	for _, kind := range []EventKind{
		EventBookingCreated, EventBookingApproved, EventBookingRejected,
		EventVehicleSent, EventVehicleBorrowed, EventVehicleReturned,
	} {
		if _, ok := Render(kind, domain.RoleAdmin, nil); !ok {
			t.Errorf("expected admin template for %s", kind)
		}
	}
}

func TestRender_EmployeeHasNoVehicleSentTemplate(t *testing.T) {
	t.Parallel()

	if _, ok := Render(EventVehicleSent, domain.RoleEmployee, &Payload{}); ok {
		t.Error("expected no vehicle_sent template for employees")
	}
	if _, ok := Render(EventVehicleSent, domain.RoleAdmin, &Payload{}); !ok {
		t.Error("expected vehicle_sent template for admins")
	}
	if _, ok := Render(EventVehicleSent, domain.RoleDriver, &Payload{}); !ok {
		t.Error("expected vehicle_sent template for drivers")
	}
}

func TestRender_ReturnedFormatsFigures(t *testing.T) {
	t.Parallel()

	distance := int64(180)
	expenses := 50.0
	msg, ok := Render(EventVehicleReturned, domain.RoleDriver, &Payload{
		VehiclePlate:  "AB-123",
		TotalDistance: &distance,
		TotalExpenses: &expenses,
		EndTime:       time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC),
	})
	if !ok {
		t.Fatal("expected a template")
	}

	values := make(map[string]string)
	for _, row := range msg.Rows {
		values[row.Label] = row.Value
	}
	if values["Distance"] != "180 km" {
		t.Errorf("expected formatted distance, got %q", values["Distance"])
	}
	if values["Expenses"] != "50.00" {
		t.Errorf("expected formatted expenses, got %q", values["Expenses"])
	}
	// FinalCost was not supplied.
	if values["Cost"] != placeholder {
		t.Errorf("expected cost placeholder, got %q", values["Cost"])
	}
	if values["End"] != "2026-03-05 14:30" {
		t.Errorf("expected formatted end time, got %q", values["End"])
	}
}

func TestRender_UnknownKindGetsGenericMessage(t *testing.T) {
	t.Parallel()

	msg, ok := Render(EventKind("odometer_audit"), domain.RoleEmployee, &Payload{VehiclePlate: "AB-123"})
	if !ok {
		t.Fatal("expected a generic message for unknown kinds")
	}
	if msg.Title != "Fleet notification" {
		t.Errorf("unexpected title %q", msg.Title)
	}
}
