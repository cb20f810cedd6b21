package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// Settings are the calendar-wide presentation settings shared by every view.
type Settings struct {
	Location         *time.Location
	WeekStart        time.Weekday
	MaxEventsPerCell int
	ExportBaseURL    string
	Theme            Theme
}

// MaxListDays bounds the date range ListEvents accepts.
const MaxListDays = 366

// CalendarService owns the loaded event collection and hands out views
// over it.
type CalendarService interface {
	// Reload replaces the event collection with a fresh load from the source.
	// On failure the previous collection stays in place.
	Reload(ctx context.Context) error

	// Index returns the current event index.
	Index() *EventIndex

	// GetEvent returns an event by id.
	GetEvent(ctx context.Context, id string) (Event, error)

	// ListEvents returns the events starting between from and to inclusive.
	// Ranges longer than MaxListDays are a validation error.
	ListEvents(ctx context.Context, from, to Date) ([]Event, error)

	// NewView creates a cursor over the current index with the service's
	// week start and clock.
	NewView(opts ...ViewOption) *View

	// ExportURL returns the "add to calendar" link for an event.
	ExportURL(e Event) string

	// Feed renders events as an iCalendar document.
	Feed(events []FeedEvent, name string) string

	// Settings returns the presentation settings.
	Settings() Settings

	// LoadedAt reports when the collection was last replaced.
	LoadedAt() time.Time
}

// calendarService is the default CalendarService implementation.
type calendarService struct {
	source   Source
	settings Settings
	baseURL  string
	now      func() time.Time

	mu       sync.RWMutex
	index    *EventIndex
	loadedAt time.Time
}

// NewCalendarService creates a service over source. The collection is empty
// until Reload succeeds.
func NewCalendarService(source Source, settings Settings, baseURL string) CalendarService {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.MaxEventsPerCell < 1 {
		settings.MaxEventsPerCell = 3
	}
	if settings.ExportBaseURL == "" {
		settings.ExportBaseURL = DefaultExportBaseURL
	}
	if settings.Theme.Name == "" {
		settings.Theme = DefaultTheme()
	}
	return &calendarService{
		source:   source,
		settings: settings,
		baseURL:  baseURL,
		now:      time.Now,
		index:    NewEventIndex(nil, settings.Location),
	}
}

// Reload loads the source and swaps the index in one step.
func (s *calendarService) Reload(ctx context.Context) error {
	events, err := s.source.Load(ctx)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("loading events: %w", err))
	}

	idx := NewEventIndex(events, s.settings.Location)
	if skipped := len(events) - idx.Len(); skipped > 0 {
		slog.Warn("events without a valid start were not indexed", slog.Int("count", skipped))
	}

	s.mu.Lock()
	s.index = idx
	s.loadedAt = s.now()
	s.mu.Unlock()

	slog.Info("event collection loaded", slog.Int("events", idx.Len()))
	return nil
}

func (s *calendarService) Index() *EventIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *calendarService) GetEvent(ctx context.Context, id string) (Event, error) {
	evt, ok := s.Index().Find(id)
	if !ok {
		return Event{}, apperror.NewNotFound("event not found")
	}
	return evt, nil
}

func (s *calendarService) ListEvents(ctx context.Context, from, to Date) ([]Event, error) {
	if !from.Valid() || !to.Valid() {
		return nil, apperror.NewInvalidDate("from and to must be valid dates")
	}
	if to.Before(from) {
		return nil, apperror.NewValidation("to must not be before from")
	}
	if to.After(from.AddDays(MaxListDays - 1)) {
		return nil, apperror.NewValidation(fmt.Sprintf("a range covers at most %d days", MaxListDays))
	}
	events := []Event{}
	for _, day := range s.Index().Between(from, to) {
		events = append(events, day.Events...)
	}
	return events, nil
}

func (s *calendarService) NewView(opts ...ViewOption) *View {
	base := []ViewOption{WithWeekStart(s.settings.WeekStart), WithClock(s.now)}
	return NewView(s.Index(), append(base, opts...)...)
}

func (s *calendarService) ExportURL(e Event) string {
	return EventExportURL(s.settings.ExportBaseURL, e, s.settings.Location)
}

func (s *calendarService) Feed(events []FeedEvent, name string) string {
	return BuildICS(events, FeedOptions{
		Name:    name,
		BaseURL: s.baseURL,
		Stamp:   s.now(),
	})
}

func (s *calendarService) Settings() Settings {
	return s.settings
}

func (s *calendarService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
