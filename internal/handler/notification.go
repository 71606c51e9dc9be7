package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/notify"
	"fleet/internal/repository"
)

// NotificationHandler exposes the dispatch entry point and the preference
// table over HTTP.
type NotificationHandler struct {
	dispatcher  *notify.Dispatcher
	preferences repository.PreferencesRepository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(dispatcher *notify.Dispatcher, preferences repository.PreferencesRepository) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, preferences: preferences}
}

// DispatchRequest is the HTTP request for dispatching a notification.
type DispatchRequest struct {
	Event   string         `json:"event" binding:"required"`
	Payload map[string]any `json:"payload"`
}

// Dispatch handles POST /v1/notifications/dispatch
//
// Unknown event kinds are not rejected; they resolve to the fallback
// broadcast and render with the generic template.
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: notify.ErrSenderNotConfigured.Error()})
		return
	}

	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	report, err := h.dispatcher.DispatchRaw(c.Request.Context(), notify.EventKind(req.Event), req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, report)
}

// PreferenceEntry is one role/event flag in the preference table.
type PreferenceEntry struct {
	Role    string `json:"role" binding:"required"`
	Event   string `json:"event" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

// GetPreferences handles GET /v1/notifications/preferences
//
// Only explicit flags are listed; a missing role/event pair is enabled.
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.preferences.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]PreferenceEntry, 0)
	for role, events := range prefs.Flags {
		for event, enabled := range events {
			v := enabled
			entries = append(entries, PreferenceEntry{Role: string(role), Event: event, Enabled: &v})
		}
	}

	respondJSON(c, http.StatusOK, entries)
}

// SetPreference handles PUT /v1/notifications/preferences
func (h *NotificationHandler) SetPreference(c *gin.Context) {
	var req PreferenceEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.preferences.Set(c.Request.Context(), domain.Role(req.Role), req.Event, *req.Enabled); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
