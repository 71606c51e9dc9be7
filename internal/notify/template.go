package notify

import (
	"fmt"
	"time"

	"fleet/internal/domain"
)

// Message is a channel-agnostic rendered notification: a title, a color
// hint for the transport to style with, and ordered label/value rows.
type Message struct {
	Title string `json:"title"`
	Color string `json:"color"`
	Rows  []Row  `json:"rows"`
}

// Row is one label/value line of a rendered message.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

const placeholder = "-"

// Event colors, used as severity hints by the transport.
const (
	colorInfo    = "#2196F3"
	colorSuccess = "#4CAF50"
	colorDanger  = "#F44336"
	colorWarning = "#FF9800"
)

// templateDefined lists role/event combinations that have no message. The
// default is "defined": only pairs explicitly set to false are skipped with
// reason no_template.
var templateUndefined = map[EventKind]map[domain.Role]bool{
	// Garage hand-offs are an admin/driver concern; employees have no
	// vehicle_sent message.
	EventVehicleSent: {domain.RoleEmployee: true},
}

// Render maps an event and its normalized payload to a message for the
// given role. It is a pure function: missing payload fields render as "-"
// and never fail the render. The second return is false when no template
// exists for the role/event combination.
func Render(kind EventKind, role domain.Role, p *Payload) (*Message, bool) {
	if p == nil {
		p = &Payload{}
	}
	if undefined, ok := templateUndefined[kind]; ok && undefined[role] {
		return nil, false
	}

	switch kind {
	case EventBookingCreated:
		return &Message{
			Title: "New vehicle booking request",
			Color: colorInfo,
			Rows: []Row{
				{Label: "Requester", Value: orDash(p.RequesterName)},
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Start", Value: fmtTime(p.StartTime)},
				{Label: "End", Value: fmtTime(p.EndTime)},
				{Label: "Purpose", Value: orDash(p.Purpose)},
				{Label: "Destination", Value: orDash(p.Destination)},
			},
		}, true

	case EventBookingApproved:
		return &Message{
			Title: "Booking approved",
			Color: colorSuccess,
			Rows: []Row{
				{Label: "Requester", Value: orDash(p.RequesterName)},
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Driver", Value: orDash(p.DriverName)},
				{Label: "Start", Value: fmtTime(p.StartTime)},
				{Label: "Destination", Value: orDash(p.Destination)},
			},
		}, true

	case EventBookingRejected:
		return &Message{
			Title: "Booking rejected",
			Color: colorDanger,
			Rows: []Row{
				{Label: "Requester", Value: orDash(p.RequesterName)},
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Start", Value: fmtTime(p.StartTime)},
				{Label: "Note", Value: orDash(p.Note)},
			},
		}, true

	case EventVehicleSent:
		return &Message{
			Title: "Vehicle sent out",
			Color: colorWarning,
			Rows: []Row{
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Driver", Value: orDash(p.DriverName)},
				{Label: "Vendor", Value: orDash(p.Vendor)},
				{Label: "Expected return", Value: fmtTime(p.ExpectedReturn)},
				{Label: "Note", Value: orDash(p.Note)},
			},
		}, true

	case EventVehicleBorrowed:
		return &Message{
			Title: "Vehicle borrowed",
			Color: colorInfo,
			Rows: []Row{
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Borrowed by", Value: orDash(p.RequesterName)},
				{Label: "Start", Value: fmtTime(p.StartTime)},
				{Label: "Destination", Value: orDash(p.Destination)},
			},
		}, true

	case EventVehicleReturned:
		return &Message{
			Title: "Vehicle returned",
			Color: colorSuccess,
			Rows: []Row{
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Returned by", Value: orDash(p.RequesterName)},
				{Label: "Distance", Value: fmtDistance(p.TotalDistance)},
				{Label: "Expenses", Value: fmtMoney(p.TotalExpenses)},
				{Label: "Cost", Value: fmtMoney(p.FinalCost)},
				{Label: "End", Value: fmtTime(p.EndTime)},
			},
		}, true

	default:
		// Unknown kinds still produce a generic message so the fallback
		// broadcast rule has something to deliver.
		return &Message{
			Title: "Fleet notification",
			Color: colorInfo,
			Rows: []Row{
				{Label: "Event", Value: string(kind)},
				{Label: "Vehicle", Value: orDash(p.VehiclePlate)},
				{Label: "Note", Value: orDash(p.Note)},
			},
		}, true
	}
}

func orDash(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return t.Format("2006-01-02 15:04")
}

func fmtDistance(km *int64) string {
	if km == nil {
		return placeholder
	}
	return fmt.Sprintf("%d km", *km)
}

func fmtMoney(amount *float64) string {
	if amount == nil {
		return placeholder
	}
	return fmt.Sprintf("%.2f", *amount)
}
