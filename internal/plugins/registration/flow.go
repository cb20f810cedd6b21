package registration

import (
	"context"
	"log/slog"
	"time"

	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
)

// Owner identifies who a flow belongs to.
type Owner struct {
	UserID string
	Email  string
}

// Flow is the registration state machine for one event in one session.
// Transitions that do not apply to the current state are silent no-ops and
// report false. Flow is not safe for concurrent use; the owning workspace
// serializes access.
type Flow struct {
	event    calendar.Event
	owner    Owner
	sink     Sink
	now      func() time.Time
	state    State
	offset   ReminderOffset
	reminded bool
}

// NewFlow returns an unregistered flow for event. A nil sink discards
// registrations.
func NewFlow(event calendar.Event, owner Owner, sink Sink) *Flow {
	if sink == nil {
		sink = SinkFunc(func(context.Context, Registration) error { return nil })
	}
	return &Flow{
		event:  event,
		owner:  owner,
		sink:   sink,
		now:    time.Now,
		state:  StateUnregistered,
		offset: DefaultOffset,
	}
}

// Event returns the event the flow is for.
func (f *Flow) Event() calendar.Event {
	return f.event
}

// SetEvent refreshes the event after a reload. Only the event details
// change; the state is kept.
func (f *Flow) SetEvent(e calendar.Event) {
	if e.ID == f.event.ID {
		f.event = e
	}
}

// State returns the current state.
func (f *Flow) State() State {
	return f.state
}

// IsRegistered is true in every state except Unregistered.
func (f *Flow) IsRegistered() bool {
	return f.state != StateUnregistered
}

// ReminderSet is true only once the reminder is confirmed.
func (f *Flow) ReminderSet() bool {
	return f.state == StateReminderSet
}

// Offset returns the selected reminder lead time.
func (f *Flow) Offset() ReminderOffset {
	return f.offset
}

// Register signs the session up for the event and notifies the sink once.
// A sink failure is logged; the registration still stands.
func (f *Flow) Register(ctx context.Context) bool {
	notify, ok := f.RegisterDeferred()
	if ok {
		notify(ctx)
	}
	return ok
}

// RegisterDeferred performs the Register transition but leaves the sink
// call to the returned func, so callers can notify after releasing their
// own locks. The func is nil when the transition did not happen and must
// be called at most once.
func (f *Flow) RegisterDeferred() (func(context.Context), bool) {
	if f.state != StateUnregistered {
		return nil, false
	}
	f.state = StateRegistered

	reg := Registration{
		EventID:    f.event.ID,
		EventTitle: f.event.Title,
		Owner:      f.owner.UserID,
		Email:      f.owner.Email,
		At:         f.now(),
	}
	sink := f.sink
	return func(ctx context.Context) {
		if err := sink.Registered(ctx, reg); err != nil {
			slog.Warn("registration sink failed",
				slog.String("event_id", reg.EventID),
				slog.String("owner", reg.Owner),
				slog.Any("error", err),
			)
		}
	}, true
}

// SelectReminderOffset stores a lead time and moves to ReminderPending. It
// applies while registered and before the reminder is confirmed.
func (f *Flow) SelectReminderOffset(o ReminderOffset) bool {
	if !o.Valid() {
		return false
	}
	if f.state != StateRegistered && f.state != StateReminderPending {
		return false
	}
	f.offset = o
	f.state = StateReminderPending
	return true
}

// SetReminder confirms the reminder with the selected offset.
func (f *Flow) SetReminder() bool {
	if f.state != StateRegistered && f.state != StateReminderPending {
		return false
	}
	f.state = StateReminderSet
	f.reminded = false
	return true
}

// Unregister backs out from any registered state, clearing the reminder and
// resetting the offset.
func (f *Flow) Unregister() bool {
	if f.state == StateUnregistered {
		return false
	}
	f.state = StateUnregistered
	f.offset = DefaultOffset
	f.reminded = false
	return true
}

// ExportURL returns the "add to calendar" link for the event. It is
// available in every state.
func (f *Flow) ExportURL(base string, loc *time.Location) string {
	return calendar.EventExportURL(base, f.event, loc)
}

// ReminderAt returns when the reminder should fire.
func (f *Flow) ReminderAt() time.Time {
	return f.event.Start.Add(-f.offset.Duration())
}

// ReminderDue reports whether a confirmed, undelivered reminder is inside
// its window: at or after start minus offset and before the start.
func (f *Flow) ReminderDue(now time.Time) bool {
	if f.state != StateReminderSet || f.reminded {
		return false
	}
	return !now.Before(f.ReminderAt()) && now.Before(f.event.Start)
}

// MarkReminded records that the reminder was delivered.
func (f *Flow) MarkReminded() {
	f.reminded = true
}

// ResetReminded makes a claimed reminder eligible again after a failed
// delivery.
func (f *Flow) ResetReminded() {
	f.reminded = false
}

// Reminded reports whether the reminder has been delivered.
func (f *Flow) Reminded() bool {
	return f.reminded
}

// Snapshot returns the flow's externally visible state.
func (f *Flow) Snapshot() Snapshot {
	return Snapshot{
		EventID:        f.event.ID,
		State:          f.state,
		IsRegistered:   f.IsRegistered(),
		ReminderSet:    f.ReminderSet(),
		ReminderOffset: f.offset,
		Reminded:       f.reminded,
	}
}
