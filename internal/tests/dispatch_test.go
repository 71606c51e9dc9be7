package tests

import (
	"context"
	"errors"
	"testing"

	"fleet/internal/domain"
	"fleet/internal/notify"
)

// ──────────────────────────────────────────────
// 4. NOTIFICATION DISPATCH
// ──────────────────────────────────────────────

func dispatchFixture(t *testing.T) (*MemStore, *MockSender, *notify.Dispatcher) {
	t.Helper()

	store := NewMemStore()
	store.AddUser(&domain.User{ID: "adm-1", Name: "Olga", Role: domain.RoleAdmin, ChannelAddress: "push:adm-1"})
	store.AddUser(&domain.User{ID: "emp-1", Name: "Anna", Role: domain.RoleEmployee, ChannelAddress: "push:emp-1"})
	store.AddUser(&domain.User{ID: "emp-2", Name: "Ben", Role: domain.RoleEmployee}) // no channel address

	sender := NewMockSender()
	dispatcher, err := notify.NewDispatcher(store, sender, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store, sender, dispatcher
}

func TestDispatch_DeliversToResolvedRecipients(t *testing.T) {
	t.Parallel()

	_, sender, dispatcher := dispatchFixture(t)

	report, err := dispatcher.Dispatch(context.Background(), notify.EventBookingCreated, &notify.Payload{
		RequesterID:   "emp-1",
		RequesterName: "Anna",
		VehiclePlate:  "AB-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Admin and requester, deduplicated and sorted by ID.
	if len(report.Sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(report.Sent))
	}
	if report.Sent[0].UserID != "adm-1" || report.Sent[1].UserID != "emp-1" {
		t.Errorf("unexpected delivery order: %+v", report.Sent)
	}
	if !report.Clean() {
		t.Errorf("expected clean report, got %+v", report)
	}
	if len(sender.Sent()) != 2 {
		t.Errorf("expected 2 transport sends, got %d", len(sender.Sent()))
	}
}

func TestDispatch_AdminRequester_DeliveredOnce(t *testing.T) {
	t.Parallel()

	_, sender, dispatcher := dispatchFixture(t)

	// The requester is also an admin: one delivery, not two.
	report, err := dispatcher.Dispatch(context.Background(), notify.EventBookingApproved, &notify.Payload{
		RequesterID: "adm-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(report.Sent))
	}
	if len(sender.SentTo("push:adm-1")) != 1 {
		t.Errorf("expected exactly one send to the admin address")
	}
}

func TestDispatch_SkipReasons(t *testing.T) {
	t.Parallel()

	store, _, dispatcher := dispatchFixture(t)

	// Disable booking_created for admins.
	if err := store.Preferences().Set(context.Background(), domain.RoleAdmin, string(notify.EventBookingCreated), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := dispatcher.Dispatch(context.Background(), notify.EventBookingCreated, &notify.Payload{
		RequesterID: "emp-2", // has no channel address
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Sent) != 0 {
		t.Errorf("expected no deliveries, got %+v", report.Sent)
	}
	reasons := make(map[string]string)
	for _, skip := range report.Skipped {
		reasons[skip.UserID] = skip.Reason
	}
	if reasons["adm-1"] != notify.SkipSettingDisabled {
		t.Errorf("expected admin skipped with %s, got %q", notify.SkipSettingDisabled, reasons["adm-1"])
	}
	if reasons["emp-2"] != notify.SkipNoAddress {
		t.Errorf("expected emp-2 skipped with %s, got %q", notify.SkipNoAddress, reasons["emp-2"])
	}
}

func TestDispatch_NoTemplateSkip(t *testing.T) {
	t.Parallel()

	_, _, dispatcher := dispatchFixture(t)

	// Employees have no vehicle_sent template; the driver reference points
	// at the employee with an address.
	report, err := dispatcher.Dispatch(context.Background(), notify.EventVehicleSent, &notify.Payload{
		DriverID: "emp-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var skipped *notify.Skip
	for i := range report.Skipped {
		if report.Skipped[i].UserID == "emp-1" {
			skipped = &report.Skipped[i]
		}
	}
	if skipped == nil || skipped.Reason != notify.SkipNoTemplate {
		t.Errorf("expected emp-1 skipped with %s, got %+v", notify.SkipNoTemplate, report.Skipped)
	}

	// The admin still gets the message.
	if len(report.Sent) != 1 || report.Sent[0].UserID != "adm-1" {
		t.Errorf("expected admin delivery, got %+v", report.Sent)
	}
}

func TestDispatch_TransportFailureIsolatedAndEscalated(t *testing.T) {
	t.Parallel()

	_, sender, dispatcher := dispatchFixture(t)
	sender.FailFor["push:emp-1"] = errors.New("push API returned 502")

	report, err := dispatcher.Dispatch(context.Background(), notify.EventBookingCreated, &notify.Payload{
		RequesterID: "emp-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One failure, one success; the failure never blocks the other recipient.
	if len(report.Sent) != 1 || report.Sent[0].UserID != "adm-1" {
		t.Errorf("expected admin delivery to survive, got %+v", report.Sent)
	}
	if len(report.Errors) != 1 || report.Errors[0].UserID != "emp-1" {
		t.Fatalf("expected one delivery error for emp-1, got %+v", report.Errors)
	}
	if report.Errors[0].Detail == "" {
		t.Error("expected transport failure detail preserved")
	}

	// The degraded dispatch escalates a summary to admins.
	if len(report.Escalated) != 1 || report.Escalated[0].UserID != "adm-1" {
		t.Errorf("expected escalation to admin, got %+v", report.Escalated)
	}
	if len(sender.SentTo("push:adm-1")) != 2 {
		t.Errorf("expected original plus escalation send to admin, got %d", len(sender.SentTo("push:adm-1")))
	}
}

func TestDispatch_ActorResolvedByChannelAddress(t *testing.T) {
	t.Parallel()

	_, _, dispatcher := dispatchFixture(t)

	// borrow/return resolve only the acting user; the actor key may be a
	// channel address instead of a user ID.
	report, err := dispatcher.Dispatch(context.Background(), notify.EventVehicleBorrowed, &notify.Payload{
		Actor: "push:emp-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Sent) != 1 || report.Sent[0].UserID != "emp-1" {
		t.Errorf("expected delivery to emp-1 via address lookup, got %+v", report.Sent)
	}
}

func TestDispatch_UnknownKindBroadcastsFallback(t *testing.T) {
	t.Parallel()

	_, _, dispatcher := dispatchFixture(t)

	report, err := dispatcher.DispatchRaw(context.Background(), notify.EventKind("odometer_audit"), map[string]any{
		"plate": "AB-123",
		"note":  "quarterly check",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Everyone with an address gets the generic message.
	if len(report.Sent) != 2 {
		t.Errorf("expected 2 deliveries, got %+v", report.Sent)
	}
	for _, skip := range report.Skipped {
		if skip.Reason != notify.SkipNoAddress {
			t.Errorf("unexpected skip %+v", skip)
		}
	}
}

func TestDispatch_PreferencesReadFreshPerDispatch(t *testing.T) {
	t.Parallel()

	store, _, dispatcher := dispatchFixture(t)
	ctx := context.Background()

	payload := &notify.Payload{RequesterID: "emp-1"}

	report, err := dispatcher.Dispatch(ctx, notify.EventBookingCreated, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Sent) != 2 {
		t.Fatalf("expected 2 deliveries before flag change, got %d", len(report.Sent))
	}

	// Flip the flag; the very next dispatch must observe it.
	if err := store.Preferences().Set(ctx, domain.RoleEmployee, string(notify.EventBookingCreated), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err = dispatcher.Dispatch(ctx, notify.EventBookingCreated, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Sent) != 1 || report.Sent[0].UserID != "adm-1" {
		t.Errorf("expected only admin delivery after flag change, got %+v", report.Sent)
	}
}
