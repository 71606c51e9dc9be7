package postgres

import (
	"context"
	"database/sql"

	"fleet/internal/domain"
)

// PreferencesRepository is a PostgreSQL implementation of
// repository.PreferencesRepository.
//
// Flags are stored sparsely: one row per explicitly configured role/event
// pair. Anything not present in the table is enabled.
type PreferencesRepository struct {
	q Querier
}

// NewPreferencesRepository creates a new PostgreSQL preferences repository.
func NewPreferencesRepository(db *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{q: db}
}

// Get retrieves the full preference table.
func (r *PreferencesRepository) Get(ctx context.Context) (*domain.NotificationPreferences, error) {
	query := `SELECT role, event, enabled FROM notification_preferences`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := domain.NewNotificationPreferences()
	for rows.Next() {
		var role, event string
		var enabled bool
		if err := rows.Scan(&role, &event, &enabled); err != nil {
			return nil, err
		}
		prefs.Set(domain.Role(role), event, enabled)
	}

	return prefs, rows.Err()
}

// Set records an explicit flag for a role/event pair.
func (r *PreferencesRepository) Set(ctx context.Context, role domain.Role, event string, enabled bool) error {
	query := `
		INSERT INTO notification_preferences (role, event, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (role, event) DO UPDATE SET enabled = EXCLUDED.enabled
	`

	_, err := r.q.ExecContext(ctx, query, role, event, enabled)
	return err
}
