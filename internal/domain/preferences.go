package domain

// NotificationPreferences holds the per-role, per-event notification flags.
//
// The flag map is sparse: a missing entry means the notification is enabled.
// Only an explicit false disables delivery (fail-open, so a half-populated
// preference record never silently drops alerts).
type NotificationPreferences struct {
	Flags map[Role]map[string]bool
}

// NewNotificationPreferences creates an empty (all-enabled) preference set.
func NewNotificationPreferences() *NotificationPreferences {
	return &NotificationPreferences{Flags: make(map[Role]map[string]bool)}
}

// Enabled reports whether the given role should be notified for the event.
func (p *NotificationPreferences) Enabled(role Role, event string) bool {
	if p == nil || p.Flags == nil {
		return true
	}
	events, ok := p.Flags[role]
	if !ok {
		return true
	}
	enabled, ok := events[event]
	if !ok {
		return true
	}
	return enabled
}

// Set records an explicit flag for the role/event pair.
func (p *NotificationPreferences) Set(role Role, event string, enabled bool) {
	if p.Flags == nil {
		p.Flags = make(map[Role]map[string]bool)
	}
	if p.Flags[role] == nil {
		p.Flags[role] = make(map[string]bool)
	}
	p.Flags[role][event] = enabled
}
