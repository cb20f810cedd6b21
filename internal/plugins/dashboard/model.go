// Package dashboard composes the per-session workspace: one calendar view
// plus a registration flow for every event the session has opened. A
// workspace lives in memory under the session id carried by the bearer
// token and is dropped when the session ends or goes idle.
package dashboard

import (
	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/registration"
)

// --- Request DTOs ---

// NavigateRequest moves the calendar one step.
type NavigateRequest struct {
	Direction string `json:"direction" form:"direction"`
}

// ModeRequest switches the view mode.
type ModeRequest struct {
	Mode string `json:"mode" form:"mode"`
}

// SelectDateRequest picks a day on the grid.
type SelectDateRequest struct {
	Date string `json:"date" form:"date"`
}

// OffsetRequest chooses a reminder lead time.
type OffsetRequest struct {
	Offset string `json:"offset" form:"offset"`
}

// --- Responses ---

// OffsetOption is one selectable reminder lead time with its label.
type OffsetOption struct {
	Value registration.ReminderOffset `json:"value"`
	Label string                      `json:"label"`
}

// RegistrationResponse is the registration panel for one event.
type RegistrationResponse struct {
	registration.Snapshot
	Event     calendar.Event `json:"event"`
	ExportURL string         `json:"export_url"`
	Offsets   []OffsetOption `json:"offsets"`

	// Changed is false when the request was a no-op for the current state.
	Changed bool `json:"changed"`
}

// SelectEventResponse reports whether the panel was opened by this request.
type SelectEventResponse struct {
	Opened       bool                 `json:"opened"`
	Registration RegistrationResponse `json:"registration"`
}
