package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/registration"
)

// Workspace is one session's dashboard state. All methods are safe for
// concurrent use.
type Workspace struct {
	sessionID string
	owner     registration.Owner
	sink      registration.Sink

	// lastSeen is unix nanoseconds of the latest activity. The store
	// updates and reads it under its own lock, so it lives outside mu.
	lastSeen atomic.Int64

	mu     sync.Mutex
	locale string
	view   *calendar.View
	flows  map[string]*registration.Flow
	picked *calendar.Cell
}

func newWorkspace(sessionID string, owner registration.Owner, locale string, view *calendar.View, sink registration.Sink, now time.Time) *Workspace {
	w := &Workspace{
		sessionID: sessionID,
		owner:     owner,
		sink:      sink,
		locale:    locale,
		view:      view,
		flows:     make(map[string]*registration.Flow),
	}
	w.lastSeen.Store(now.UnixNano())
	view.OnSelectDate = func(c calendar.Cell) {
		cell := c
		w.picked = &cell
	}
	return w
}

// SessionID returns the token id the workspace is keyed by.
func (w *Workspace) SessionID() string {
	return w.sessionID
}

// Owner returns the user the workspace belongs to.
func (w *Workspace) Owner() registration.Owner {
	return w.owner
}

// Locale returns the language texts for this session are rendered in.
func (w *Workspace) Locale() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.locale
}

// Page renders the calendar in its current state.
func (w *Workspace) Page() (calendar.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.Render()
}

// Navigate moves one month in dir and renders the result.
func (w *Workspace) Navigate(dir calendar.Direction) (calendar.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.view.Navigate(dir); err != nil {
		return calendar.Page{}, err
	}
	return w.view.Render()
}

// SetViewMode switches the layout and renders the result.
func (w *Workspace) SetViewMode(mode calendar.ViewMode) (calendar.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.view.SetViewMode(mode); err != nil {
		return calendar.Page{}, err
	}
	return w.view.Render()
}

// SelectDate resolves d to its grid cell and remembers it as the picked day.
func (w *Workspace) SelectDate(d calendar.Date) (calendar.Cell, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.SelectDate(d)
}

// PickedDate returns the last day passed to SelectDate, if any.
func (w *Workspace) PickedDate() (calendar.Cell, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.picked == nil {
		return calendar.Cell{}, false
	}
	return *w.picked, true
}

// SelectEvent opens e's registration panel. opened is false when e was
// already the open event.
func (w *Workspace) SelectEvent(e calendar.Event) (opened bool, snap registration.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	opened = w.view.SelectEvent(e)
	return opened, w.flow(e).Snapshot()
}

// Registration returns the state for e without changing it.
func (w *Workspace) Registration(e calendar.Event) registration.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.flows[e.ID]; ok {
		return f.Snapshot()
	}
	return registration.NewFlow(e, w.owner, nil).Snapshot()
}

// Register signs up for e. The sink is notified after the workspace lock
// is released.
func (w *Workspace) Register(ctx context.Context, e calendar.Event) (registration.Snapshot, bool) {
	w.mu.Lock()
	f := w.flow(e)
	notify, changed := f.RegisterDeferred()
	snap := f.Snapshot()
	w.mu.Unlock()

	if changed {
		notify(ctx)
	}
	return snap, changed
}

// Unregister backs out of e.
func (w *Workspace) Unregister(e calendar.Event) (registration.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.flow(e)
	changed := f.Unregister()
	return f.Snapshot(), changed
}

// SelectReminderOffset chooses the reminder lead time for e.
func (w *Workspace) SelectReminderOffset(e calendar.Event, o registration.ReminderOffset) (registration.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.flow(e)
	changed := f.SelectReminderOffset(o)
	return f.Snapshot(), changed
}

// SetReminder confirms the reminder for e.
func (w *Workspace) SetReminder(e calendar.Event) (registration.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.flow(e)
	changed := f.SetReminder()
	return f.Snapshot(), changed
}

// RegisteredFeed returns the registered events in start order. Events with
// a confirmed reminder carry it as an alarm.
func (w *Workspace) RegisteredFeed() []calendar.FeedEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	feed := []calendar.FeedEvent{}
	for _, f := range w.flows {
		if !f.IsRegistered() {
			continue
		}
		fe := calendar.FeedEvent{Event: f.Event()}
		if f.ReminderSet() {
			fe.Alarm = f.Offset().Duration()
		}
		feed = append(feed, fe)
	}
	sortFeed(feed)
	return feed
}

// flow returns the flow for e, creating it on first use. Callers hold mu.
func (w *Workspace) flow(e calendar.Event) *registration.Flow {
	f, ok := w.flows[e.ID]
	if !ok {
		f = registration.NewFlow(e, w.owner, w.sink)
		w.flows[e.ID] = f
	}
	return f
}

// touch records activity.
func (w *Workspace) touch(now time.Time) {
	w.lastSeen.Store(now.UnixNano())
}

func (w *Workspace) setLocale(locale string) {
	if locale == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locale = locale
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, w.lastSeen.Load()))
}

// refresh points the workspace at a newly loaded collection. Flows whose
// event is still present get the fresh details; flows for removed events
// are kept as they were.
func (w *Workspace) refresh(index *calendar.EventIndex) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view.SetIndex(index)
	for id, f := range w.flows {
		if e, ok := index.Find(id); ok {
			f.SetEvent(e)
		}
	}
}

// claimDue marks and returns every reminder inside its window.
func (w *Workspace) claimDue(now time.Time) []registration.Reminder {
	w.mu.Lock()
	defer w.mu.Unlock()
	var due []registration.Reminder
	for _, f := range w.flows {
		if !f.ReminderDue(now) {
			continue
		}
		f.MarkReminded()
		e := f.Event()
		due = append(due, registration.Reminder{
			SessionID: w.sessionID,
			Owner:     w.owner.UserID,
			Email:     w.owner.Email,
			Locale:    w.locale,
			EventID:   e.ID,
			Title:     e.Title,
			Location:  e.Location,
			Start:     e.Start,
			Offset:    f.Offset(),
		})
	}
	return due
}

func (w *Workspace) release(eventID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.flows[eventID]; ok {
		f.ResetReminded()
	}
}
