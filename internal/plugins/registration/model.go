// Package registration tracks one session's sign-up for one event: register,
// pick a reminder lead time, confirm the reminder, or back out. State lives in
// memory only; the dashboard keeps one Flow per event per session.
package registration

import (
	"fmt"
	"time"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// State is a node of the registration state machine.
type State string

// Registration states.
const (
	StateUnregistered    State = "unregistered"
	StateRegistered      State = "registered"
	StateReminderPending State = "reminder_pending"
	StateReminderSet     State = "reminder_set"
)

// ReminderOffset is how long before an event's start the reminder fires.
type ReminderOffset string

// Supported reminder offsets.
const (
	Offset15Minutes ReminderOffset = "15m"
	Offset1Hour     ReminderOffset = "1h"
	Offset1Day      ReminderOffset = "1d"
)

// DefaultOffset is the lead time a fresh or reset flow starts with.
const DefaultOffset = Offset15Minutes

// Offsets lists the supported offsets from shortest to longest.
var Offsets = []ReminderOffset{Offset15Minutes, Offset1Hour, Offset1Day}

// Duration returns the lead time as a time.Duration.
func (o ReminderOffset) Duration() time.Duration {
	switch o {
	case Offset1Hour:
		return time.Hour
	case Offset1Day:
		return 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}

// Valid reports whether o is a supported offset.
func (o ReminderOffset) Valid() bool {
	return o == Offset15Minutes || o == Offset1Hour || o == Offset1Day
}

// LabelKey is the translation key for the offset's display label.
func (o ReminderOffset) LabelKey() string {
	return "offset." + string(o)
}

// ParseReminderOffset validates a client-supplied offset.
func ParseReminderOffset(s string) (ReminderOffset, error) {
	o := ReminderOffset(s)
	if !o.Valid() {
		return "", apperror.NewValidation(fmt.Sprintf("reminder offset must be one of 15m, 1h, 1d; got %q", s))
	}
	return o, nil
}

// Registration is what the sink receives when a session registers.
type Registration struct {
	EventID    string    `json:"event_id"`
	EventTitle string    `json:"event_title"`
	Owner      string    `json:"owner"`
	Email      string    `json:"email,omitempty"`
	At         time.Time `json:"at"`
}

// Snapshot is the externally visible state of a flow.
type Snapshot struct {
	EventID        string         `json:"event_id"`
	State          State          `json:"state"`
	IsRegistered   bool           `json:"is_registered"`
	ReminderSet    bool           `json:"reminder_set"`
	ReminderOffset ReminderOffset `json:"selected_reminder_offset"`
	OffsetLabel    string         `json:"offset_label,omitempty"`
	Reminded       bool           `json:"reminded"`
}

// Reminder is a due notification for one registered event.
type Reminder struct {
	SessionID string         `json:"session_id"`
	Owner     string         `json:"owner"`
	Email     string         `json:"email,omitempty"`
	Locale    string         `json:"locale,omitempty"`
	EventID   string         `json:"event_id"`
	Title     string         `json:"title"`
	Location  string         `json:"location,omitempty"`
	Start     time.Time      `json:"start"`
	Offset    ReminderOffset `json:"offset"`

	// Subject and Body are filled in by the dispatcher before delivery.
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}
