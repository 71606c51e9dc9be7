package repository

import (
	"context"

	"fleet/internal/domain"
)

// PreferencesRepository defines the persistence operations for the
// notification preference table.
//
// The dispatcher reads preferences fresh on every dispatch; implementations
// must not cache across calls.
type PreferencesRepository interface {
	// Get retrieves the full preference table. A missing table is not an
	// error: implementations return an empty (all-enabled) set.
	Get(ctx context.Context) (*domain.NotificationPreferences, error)

	// Set records an explicit flag for a role/event pair.
	Set(ctx context.Context, role domain.Role, event string, enabled bool) error
}
