package service

import "fleet/internal/notify"

// Notifier emits a dispatch event after a lifecycle transition commits.
// Dispatch runs detached from the transition: a notification failure can
// never be mistaken for, or roll back, a committed transition.
type Notifier interface {
	DispatchAsync(kind notify.EventKind, payload *notify.Payload)
}
