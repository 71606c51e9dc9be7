package notify

import (
	"time"
)

// EventKind identifies the lifecycle transition a dispatch describes.
type EventKind string

const (
	EventBookingCreated  EventKind = "booking_created"
	EventBookingApproved EventKind = "booking_approved"
	EventBookingRejected EventKind = "booking_rejected"
	EventVehicleSent     EventKind = "vehicle_sent"
	EventVehicleBorrowed EventKind = "vehicle_borrowed"
	EventVehicleReturned EventKind = "vehicle_returned"
)

// Payload is the canonical, normalized event payload. Lifecycle services
// build it directly; external callers supply a loose map that Normalize
// converts. Optional numeric figures are pointers so a missing value can be
// told apart from zero.
type Payload struct {
	BookingID     string
	VehicleID     string
	UsageID       string
	MaintenanceID string

	RequesterID   string
	RequesterName string
	DriverID      string
	DriverName    string

	// Actor identifies the acting user on borrow/return events. It may hold
	// either a user ID or a channel address; the resolver tries both.
	Actor string

	VehiclePlate   string
	Purpose        string
	Destination    string
	Vendor         string
	Note           string
	StartTime      time.Time
	EndTime        time.Time
	ExpectedReturn time.Time

	TotalDistance *int64
	TotalExpenses *float64
	FinalCost     *float64
	FinalMileage  *int64
}

// Normalize converts a loosely-shaped payload map into the canonical form.
// This is the only place that knows about legacy field aliases; everything
// downstream sees one shape per event kind. Missing fields stay zero and
// render as placeholders, never as errors.
func Normalize(raw map[string]any) *Payload {
	p := &Payload{
		BookingID:     str(raw, "booking_id", "bookingId"),
		VehicleID:     str(raw, "vehicle_id", "vehicleId"),
		UsageID:       str(raw, "usage_id", "usageId"),
		MaintenanceID: str(raw, "maintenance_id", "maintenanceId"),

		RequesterID:   str(raw, "requester_id", "requesterId", "requester"),
		RequesterName: str(raw, "requester_name", "requesterName", "name"),
		DriverID:      str(raw, "driver_id", "driverId"),
		DriverName:    str(raw, "driver_name", "driverName", "driver"),
		Actor:         str(raw, "actor", "actor_id", "user_id", "userId"),

		VehiclePlate: str(raw, "vehicle_plate", "plate", "plate_number", "plateNumber"),
		Purpose:      str(raw, "purpose", "reason"),
		Destination:  str(raw, "destination", "dest"),
		Vendor:       str(raw, "vendor", "garage", "shop"),
		Note:         str(raw, "note", "notes", "remark"),

		StartTime:      instant(raw, "start_time", "startTime", "start_date", "date"),
		EndTime:        instant(raw, "end_time", "endTime", "end_date"),
		ExpectedReturn: instant(raw, "expected_return", "expectedReturn", "return_date"),
	}

	if v, ok := integer(raw, "total_distance", "totalDistance", "distance"); ok {
		p.TotalDistance = &v
	}
	if v, ok := number(raw, "total_expenses", "totalExpenses", "expenses"); ok {
		p.TotalExpenses = &v
	}
	if v, ok := number(raw, "final_cost", "finalCost", "cost"); ok {
		p.FinalCost = &v
	}
	if v, ok := integer(raw, "final_mileage", "finalMileage"); ok {
		p.FinalMileage = &v
	}

	return p
}

func str(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func number(raw map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

func integer(raw map[string]any, keys ...string) (int64, bool) {
	if v, ok := number(raw, keys...); ok {
		return int64(v), true
	}
	return 0, false
}

func instant(raw map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed
			}
			if parsed, err := time.Parse("2006-01-02", t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
