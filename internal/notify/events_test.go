package notify

import (
	"testing"
	"time"
)

func TestNormalize_CanonicalAndAliasKeys(t *testing.T) {
	t.Parallel()

	canonical := Normalize(map[string]any{
		"booking_id":     "bk-1",
		"vehicle_plate":  "AB-123",
		"requester_name": "Anna",
		"start_time":     "2026-03-05T09:00:00Z",
	})
	aliased := Normalize(map[string]any{
		"bookingId": "bk-1",
		"plate":     "AB-123",
		"name":      "Anna",
		"date":      "2026-03-05T09:00:00Z",
	})

	if canonical.BookingID != aliased.BookingID || canonical.BookingID != "bk-1" {
		t.Errorf("booking id mismatch: %q vs %q", canonical.BookingID, aliased.BookingID)
	}
	if canonical.VehiclePlate != aliased.VehiclePlate {
		t.Errorf("plate mismatch: %q vs %q", canonical.VehiclePlate, aliased.VehiclePlate)
	}
	if canonical.RequesterName != aliased.RequesterName {
		t.Errorf("requester mismatch: %q vs %q", canonical.RequesterName, aliased.RequesterName)
	}
	if !canonical.StartTime.Equal(aliased.StartTime) {
		t.Errorf("start time mismatch: %v vs %v", canonical.StartTime, aliased.StartTime)
	}
}

func TestNormalize_NumericFiguresKeepAbsenceDistinct(t *testing.T) {
	t.Parallel()

	p := Normalize(map[string]any{
		"total_distance": float64(0), // present, zero
	})
	if p.TotalDistance == nil || *p.TotalDistance != 0 {
		t.Errorf("expected present zero distance, got %v", p.TotalDistance)
	}
	if p.TotalExpenses != nil {
		t.Errorf("expected absent expenses to stay nil, got %v", p.TotalExpenses)
	}
}

func TestNormalize_DateOnlyStrings(t *testing.T) {
	t.Parallel()

	p := Normalize(map[string]any{"return_date": "2026-04-01"})
	want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if !p.ExpectedReturn.Equal(want) {
		t.Errorf("expected %v, got %v", want, p.ExpectedReturn)
	}
}

func TestNormalize_IgnoresMalformedValues(t *testing.T) {
	t.Parallel()

	p := Normalize(map[string]any{
		"vehicle_id": 42,            // wrong type
		"start_time": "not-a-date",  // unparseable
		"final_cost": "also-not-it", // wrong type
	})
	if p.VehicleID != "" {
		t.Errorf("expected non-string id ignored, got %q", p.VehicleID)
	}
	if !p.StartTime.IsZero() {
		t.Errorf("expected unparseable time to stay zero, got %v", p.StartTime)
	}
	if p.FinalCost != nil {
		t.Errorf("expected non-numeric cost to stay nil, got %v", p.FinalCost)
	}
}
