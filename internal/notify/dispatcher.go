package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// Skip reasons recorded in the dispatch report.
const (
	SkipSettingDisabled = "setting_disabled"
	SkipNoAddress       = "no_address"
	SkipNoTemplate      = "no_template"
)

// ErrSenderNotConfigured is returned when Dispatch is invoked without a
// delivery transport.
var ErrSenderNotConfigured = errors.New("notification sender not configured")

// Delivery records one successful send.
type Delivery struct {
	UserID  string      `json:"user_id"`
	Role    domain.Role `json:"role"`
	Address string      `json:"address"`
}

// Skip records one recipient that was filtered out before delivery.
type Skip struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	Reason string      `json:"reason"`
}

// DeliveryError records one failed delivery with the transport's failure
// detail preserved.
type DeliveryError struct {
	UserID  string `json:"user_id"`
	Address string `json:"address"`
	Detail  string `json:"detail"`
}

// Report aggregates the per-recipient outcome of one dispatch.
type Report struct {
	Event            EventKind       `json:"event"`
	Sent             []Delivery      `json:"sent"`
	Skipped          []Skip          `json:"skipped"`
	Errors           []DeliveryError `json:"errors"`
	Escalated        []Delivery      `json:"escalated,omitempty"`
	EscalationErrors []DeliveryError `json:"escalation_errors,omitempty"`
}

// Clean reports whether every resolved recipient received the message.
func (r *Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Errors) == 0
}

// Dispatcher orchestrates recipient resolution, template rendering, and
// delivery for one event at a time. It never mutates entity state, and a
// delivery failure for one recipient never blocks the others.
type Dispatcher struct {
	preferences repository.PreferencesRepository
	users       repository.UserRepository
	resolver    *Resolver
	sender      Sender
	escalate    bool
	sendTimeout time.Duration
}

// NewDispatcher creates a new Dispatcher. sender must be non-nil; escalate
// enables the best-effort admin summary when a dispatch degrades.
func NewDispatcher(store repository.Store, sender Sender, escalate bool) (*Dispatcher, error) {
	if sender == nil {
		return nil, ErrSenderNotConfigured
	}

	return &Dispatcher{
		preferences: store.Preferences(),
		users:       store.Users(),
		resolver:    NewResolver(store.Users()),
		sender:      sender,
		escalate:    escalate,
		sendTimeout: 10 * time.Second,
	}, nil
}

// Dispatch resolves, renders, and delivers one event, returning the
// per-recipient outcome report. Only configuration and store failures
// surface as errors; transport failures land in the report.
func (d *Dispatcher) Dispatch(ctx context.Context, kind EventKind, payload *Payload) (*Report, error) {
	// Preferences are read fresh on every dispatch so a flag change takes
	// effect immediately.
	prefs, err := d.preferences.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification preferences: %w", err)
	}

	recipients, err := d.resolver.Resolve(ctx, kind, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	report := &Report{Event: kind}
	for _, recipient := range recipients {
		if !prefs.Enabled(recipient.Role, string(kind)) {
			report.Skipped = append(report.Skipped, Skip{UserID: recipient.ID, Role: recipient.Role, Reason: SkipSettingDisabled})
			continue
		}
		if recipient.ChannelAddress == "" {
			report.Skipped = append(report.Skipped, Skip{UserID: recipient.ID, Role: recipient.Role, Reason: SkipNoAddress})
			continue
		}

		msg, ok := Render(kind, recipient.Role, payload)
		if !ok {
			report.Skipped = append(report.Skipped, Skip{UserID: recipient.ID, Role: recipient.Role, Reason: SkipNoTemplate})
			continue
		}

		if err := d.send(ctx, recipient.ChannelAddress, msg); err != nil {
			report.Errors = append(report.Errors, DeliveryError{
				UserID:  recipient.ID,
				Address: recipient.ChannelAddress,
				Detail:  err.Error(),
			})
			continue
		}

		report.Sent = append(report.Sent, Delivery{UserID: recipient.ID, Role: recipient.Role, Address: recipient.ChannelAddress})
	}

	if d.escalate && !report.Clean() {
		d.escalateToAdmins(ctx, report)
	}

	return report, nil
}

// DispatchRaw normalizes a loose payload map and dispatches it. This is the
// entry point for external callers.
func (d *Dispatcher) DispatchRaw(ctx context.Context, kind EventKind, raw map[string]any) (*Report, error) {
	return d.Dispatch(ctx, kind, Normalize(raw))
}

// DispatchAsync runs Dispatch on its own goroutine with a detached context,
// so a slow transport can never block the lifecycle operation that emitted
// the event. The outcome is logged; the caller gets nothing back.
func (d *Dispatcher) DispatchAsync(kind EventKind, payload *Payload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report, err := d.Dispatch(ctx, kind, payload)
		if err != nil {
			log.Printf("[DISPATCH] event=%s error: %v", kind, err)
			return
		}
		log.Printf("[DISPATCH] event=%s sent=%d skipped=%d errors=%d",
			kind, len(report.Sent), len(report.Skipped), len(report.Errors))
	}()
}

func (d *Dispatcher) send(ctx context.Context, address string, msg *Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return d.sender.Send(sendCtx, address, msg)
}

// escalateToAdmins delivers a plain-text degradation summary to every admin
// with a channel address. Best effort: failures are recorded in the report
// and never retried.
func (d *Dispatcher) escalateToAdmins(ctx context.Context, report *Report) {
	admins, err := d.users.GetByRole(ctx, domain.RoleAdmin)
	if err != nil {
		log.Printf("[DISPATCH] escalation aborted, cannot list admins: %v", err)
		return
	}

	msg := &Message{
		Title: "Notification delivery degraded",
		Color: colorWarning,
		Rows: []Row{
			{Label: "Event", Value: string(report.Event)},
			{Label: "Summary", Value: summarize(report)},
		},
	}

	for _, admin := range admins {
		if admin.ChannelAddress == "" {
			continue
		}
		if err := d.send(ctx, admin.ChannelAddress, msg); err != nil {
			report.EscalationErrors = append(report.EscalationErrors, DeliveryError{
				UserID:  admin.ID,
				Address: admin.ChannelAddress,
				Detail:  err.Error(),
			})
			continue
		}
		report.Escalated = append(report.Escalated, Delivery{UserID: admin.ID, Role: admin.Role, Address: admin.ChannelAddress})
	}
}

// summarize builds the counts-by-reason line for the escalation message.
func summarize(report *Report) string {
	counts := make(map[string]int)
	for _, skip := range report.Skipped {
		counts[skip.Reason]++
	}

	parts := make([]string, 0, len(counts)+2)
	parts = append(parts, fmt.Sprintf("sent=%d", len(report.Sent)))
	for _, reason := range []string{SkipSettingDisabled, SkipNoAddress, SkipNoTemplate} {
		if counts[reason] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, counts[reason]))
		}
	}
	if len(report.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("delivery_errors=%d", len(report.Errors)))
	}

	return strings.Join(parts, ", ")
}
