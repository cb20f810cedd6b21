// Package calendar renders the community event calendar. It builds
// month-aligned day grids, binds events to the days they start on, and
// tracks per-session navigation through months and view modes. Events come
// from a file-backed source (YAML or iCalendar) that is reloaded wholesale.
package calendar

import (
	"time"
)

// Event is a scheduled community event. Events are immutable once loaded.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Speaker       string    `json:"speaker,omitempty"`
	Location      string    `json:"location,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Category      string    `json:"category,omitempty"`
	Track         string    `json:"track,omitempty"`
	Type          string    `json:"type,omitempty"`
	Color         string    `json:"color,omitempty"`
	AttendeeCount int       `json:"attendee_count"`
}

// HasValidStart reports whether the event has a usable start time.
// Events without one are never bound to a grid day.
func (e Event) HasValidStart() bool {
	return !e.Start.IsZero()
}

// Duration returns how long the event runs.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// StartDate returns the calendar date the event starts on in loc.
func (e Event) StartDate(loc *time.Location) Date {
	return DateOf(e.Start, loc)
}

// ViewMode selects how the calendar page is laid out.
type ViewMode string

// View modes.
const (
	ModeMonth  ViewMode = "month"
	ModeWeek   ViewMode = "week"
	ModeDay    ViewMode = "day"
	ModeAgenda ViewMode = "agenda"
	ModeList   ViewMode = "list"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	switch m {
	case ModeMonth, ModeWeek, ModeDay, ModeAgenda, ModeList:
		return true
	}
	return false
}

// Direction is a navigation step.
type Direction string

// Navigation directions.
const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
	DirectionToday    Direction = "today"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionPrevious || d == DirectionNext || d == DirectionToday
}

// AgendaDay groups the events starting on one date.
type AgendaDay struct {
	Date   Date    `json:"date"`
	Events []Event `json:"events"`
}

// Page is a fully rendered calendar for one view mode. Only the fields for
// the current mode are populated.
type Page struct {
	Mode      ViewMode    `json:"mode"`
	Reference Date        `json:"reference"`
	Title     string      `json:"title"`
	Weeks     []Week      `json:"weeks,omitempty"`
	Day       *Cell       `json:"day,omitempty"`
	Agenda    []AgendaDay `json:"agenda,omitempty"`
	Events    []Event     `json:"events,omitempty"`
	Selected  *Event      `json:"selected,omitempty"`
}

// EventCount returns the number of distinct events bound into the page's
// current-month cells, agenda or list.
func (p Page) EventCount() int {
	switch {
	case p.Mode == ModeList:
		return len(p.Events)
	case p.Mode == ModeAgenda:
		n := 0
		for _, d := range p.Agenda {
			n += len(d.Events)
		}
		return n
	case p.Day != nil:
		return len(p.Day.Events)
	}
	n := 0
	for _, w := range p.Weeks {
		for _, c := range w {
			if c.IsCurrentMonth {
				n += len(c.Events)
			}
		}
	}
	return n
}
