package dashboard

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/plugins/registration"
)

// Store holds every live workspace keyed by session id. It is the reminder
// dispatcher's DueSource.
type Store struct {
	cal     calendar.CalendarService
	sink    registration.Sink
	idleTTL time.Duration
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewStore creates an empty store. Workspaces untouched for idleTTL are
// removed by Sweep; a non-positive idleTTL disables sweeping.
func NewStore(cal calendar.CalendarService, sink registration.Sink, idleTTL time.Duration) *Store {
	return &Store{
		cal:        cal,
		sink:       sink,
		idleTTL:    idleTTL,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Open returns the session's workspace, creating it on first use, and
// records activity on it. The activity is recorded under the store lock so
// a concurrent Sweep never drops a workspace Open just handed out.
func (s *Store) Open(sessionID string, owner registration.Owner, locale string) *Workspace {
	now := s.now()

	s.mu.Lock()
	ws, ok := s.workspaces[sessionID]
	if ok {
		ws.touch(now)
	} else {
		ws = newWorkspace(sessionID, owner, locale, s.cal.NewView(), s.sink, now)
		s.workspaces[sessionID] = ws
	}
	s.mu.Unlock()

	if ok {
		ws.setLocale(locale)
	} else {
		slog.Debug("workspace opened",
			slog.String("session_id", sessionID),
			slog.String("user_id", owner.UserID),
		)
	}
	return ws
}

// Get returns a session's workspace without creating one.
func (s *Store) Get(sessionID string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[sessionID]
	return ws, ok
}

// Drop ends a session, discarding its view and registration state.
func (s *Store) Drop(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[sessionID]; !ok {
		return false
	}
	delete(s.workspaces, sessionID)
	return true
}

// Len returns the number of live workspaces.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Sweep drops workspaces idle for longer than the TTL and returns how many
// were removed. Idleness is checked again under the store lock, so a
// workspace reopened during the sweep survives.
func (s *Store) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	removed := 0
	for id, ws := range s.workspaces {
		if ws.idleSince(now) > s.idleTTL {
			delete(s.workspaces, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		slog.Info("idle workspaces swept", slog.Int("count", removed))
	}
	return removed
}

// Refresh points every workspace at the calendar's current index. Call it
// after a successful reload.
func (s *Store) Refresh() {
	index := s.cal.Index()
	for _, ws := range s.snapshot() {
		ws.refresh(index)
	}
}

// ClaimDueReminders collects due reminders from every workspace and marks
// them delivered.
func (s *Store) ClaimDueReminders(now time.Time) []registration.Reminder {
	var due []registration.Reminder
	for _, ws := range s.snapshot() {
		due = append(due, ws.claimDue(now)...)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Start.Before(due[j].Start)
	})
	return due
}

// ReleaseReminder makes a claimed reminder eligible again.
func (s *Store) ReleaseReminder(r registration.Reminder) {
	if ws, ok := s.Get(r.SessionID); ok {
		ws.release(r.EventID)
	}
}

// snapshot copies the workspace list so per-workspace locks are never taken
// while the store lock is held.
func (s *Store) snapshot() []*Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		out = append(out, ws)
	}
	return out
}

func sortFeed(feed []calendar.FeedEvent) {
	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].Start.Equal(feed[j].Start) {
			return feed[i].Start.Before(feed[j].Start)
		}
		return feed[i].ID < feed[j].ID
	})
}
