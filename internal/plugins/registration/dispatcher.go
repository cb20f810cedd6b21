package registration

import (
	"context"
	"log/slog"
	"time"
)

// DueSource hands out reminders that are due. ClaimDueReminders marks each
// returned reminder delivered so concurrent runs never send it twice;
// ReleaseReminder undoes the claim after a failed delivery.
type DueSource interface {
	ClaimDueReminders(now time.Time) []Reminder
	ReleaseReminder(r Reminder)
}

// Translator localizes reminder texts.
type Translator interface {
	T(locale, key string, data map[string]any) string
}

// Dispatcher delivers due reminders. Run is called on a schedule.
type Dispatcher struct {
	source   DueSource
	notifier Notifier
	tr       Translator
	loc      *time.Location
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. Start times in reminder texts are
// shown in loc.
func NewDispatcher(source DueSource, notifier Notifier, tr Translator, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		source:   source,
		notifier: notifier,
		tr:       tr,
		loc:      loc,
		now:      time.Now,
	}
}

// Run sends every reminder due now and returns how many were delivered.
func (d *Dispatcher) Run(ctx context.Context) int {
	sent := 0
	for _, r := range d.source.ClaimDueReminders(d.now()) {
		r = d.render(r)
		if err := d.notifier.Notify(ctx, r); err != nil {
			slog.Error("reminder delivery failed",
				slog.String("event_id", r.EventID),
				slog.String("session_id", r.SessionID),
				slog.Any("error", err),
			)
			d.source.ReleaseReminder(r)
			continue
		}
		sent++
	}
	if sent > 0 {
		slog.Info("reminders dispatched", slog.Int("count", sent))
	}
	return sent
}

// render fills in the localized subject and body.
func (d *Dispatcher) render(r Reminder) Reminder {
	if d.tr == nil {
		r.Subject = r.Title
		return r
	}
	data := map[string]any{
		"Title":    r.Title,
		"Location": r.Location,
		"Start":    r.Start.In(d.loc).Format("Mon Jan 2 15:04"),
		"Offset":   d.tr.T(r.Locale, r.Offset.LabelKey(), nil),
	}
	r.Subject = d.tr.T(r.Locale, "reminder.title", data)
	r.Body = d.tr.T(r.Locale, "reminder.body", data)
	return r
}
