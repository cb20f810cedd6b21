package calendar

import (
	"sort"
	"time"
)

// EventIndex groups events by the calendar date they start on. Within a
// date, events keep the order they had in the source collection so callers
// truncating to "first N plus overflow" get a stable cut.
//
// An EventIndex is read-only after construction and safe for concurrent use.
type EventIndex struct {
	loc    *time.Location
	byDate map[Date][]Event
	dates  []Date // keys of byDate, ascending
	events []Event
}

// NewEventIndex builds an index over events, binding starts to dates in loc.
// Events without a valid start are left out of every bucket.
func NewEventIndex(events []Event, loc *time.Location) *EventIndex {
	if loc == nil {
		loc = time.Local
	}
	idx := &EventIndex{
		loc:    loc,
		byDate: make(map[Date][]Event),
		events: make([]Event, 0, len(events)),
	}
	for _, e := range events {
		if !e.HasValidStart() {
			continue
		}
		d := e.StartDate(loc)
		if _, seen := idx.byDate[d]; !seen {
			idx.dates = append(idx.dates, d)
		}
		idx.byDate[d] = append(idx.byDate[d], e)
		idx.events = append(idx.events, e)
	}
	sort.Slice(idx.dates, func(i, j int) bool { return idx.dates[i].Before(idx.dates[j]) })
	return idx
}

// Location returns the zone starts are bound in.
func (idx *EventIndex) Location() *time.Location {
	return idx.loc
}

// Len returns the number of indexed events.
func (idx *EventIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.events)
}

// All returns every indexed event in source order.
func (idx *EventIndex) All() []Event {
	if idx == nil {
		return []Event{}
	}
	return append([]Event(nil), idx.events...)
}

// On returns the events starting on d. The result is never nil and may be
// modified by the caller.
func (idx *EventIndex) On(d Date) []Event {
	if idx == nil {
		return []Event{}
	}
	return append([]Event{}, idx.byDate[d]...)
}

// Between returns the events starting from `from` through `to` inclusive,
// ordered by date and then by source order.
func (idx *EventIndex) Between(from, to Date) []AgendaDay {
	var out []AgendaDay
	if idx == nil || to.Before(from) {
		return out
	}
	i := sort.Search(len(idx.dates), func(i int) bool { return !idx.dates[i].Before(from) })
	for ; i < len(idx.dates) && !idx.dates[i].After(to); i++ {
		d := idx.dates[i]
		out = append(out, AgendaDay{Date: d, Events: append([]Event(nil), idx.byDate[d]...)})
	}
	return out
}

// Find returns the indexed event with the given id.
func (idx *EventIndex) Find(id string) (Event, bool) {
	if idx == nil {
		return Event{}, false
	}
	for _, e := range idx.events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// EventsOn is the linear-scan form of EventIndex.On. It returns the events
// in events whose start falls on d in loc, in collection order.
func EventsOn(events []Event, d Date, loc *time.Location) []Event {
	out := []Event{}
	for _, e := range events {
		if e.HasValidStart() && e.StartDate(loc) == d {
			out = append(out, e)
		}
	}
	return out
}
