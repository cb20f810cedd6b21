package calendar

import (
	"testing"
	"time"
)

// at returns a UTC timestamp for test fixtures.
func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// evt builds an hour-long event starting at start.
func evt(id string, start time.Time) Event {
	return Event{ID: id, Title: "Event " + id, Start: start, End: start.Add(time.Hour)}
}

func TestEventIndex_On(t *testing.T) {
	idx := NewEventIndex([]Event{
		evt("b", at(2026, time.March, 3, 18, 0)),
		evt("a", at(2026, time.March, 3, 9, 0)),
		evt("c", at(2026, time.March, 4, 9, 0)),
		{ID: "broken", Title: "No start"},
	}, time.UTC)

	got := idx.On(NewDate(2026, time.March, 3))
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("expected collection order [b a], got [%s %s]", got[0].ID, got[1].ID)
	}
	if idx.Len() != 3 {
		t.Errorf("zero-start event should be skipped, Len = %d", idx.Len())
	}

	none := idx.On(NewDate(2026, time.March, 5))
	if none == nil || len(none) != 0 {
		t.Errorf("unknown date should give an empty non-nil slice, got %#v", none)
	}
}

func TestEventIndex_OnReturnsCopy(t *testing.T) {
	idx := NewEventIndex([]Event{evt("a", at(2026, time.March, 3, 9, 0))}, time.UTC)
	got := idx.On(NewDate(2026, time.March, 3))
	got[0].Title = "changed"
	if again := idx.On(NewDate(2026, time.March, 3)); again[0].Title != "Event a" {
		t.Error("mutating the result changed the index")
	}
}

func TestEventIndex_Empty(t *testing.T) {
	for _, idx := range []*EventIndex{NewEventIndex(nil, time.UTC), nil} {
		if got := idx.On(NewDate(2026, time.January, 1)); len(got) != 0 {
			t.Errorf("expected no events, got %d", len(got))
		}
		if got := idx.Between(NewDate(2026, time.January, 1), NewDate(2026, time.December, 31)); len(got) != 0 {
			t.Errorf("expected no agenda days, got %d", len(got))
		}
		if _, ok := idx.Find("x"); ok {
			t.Error("Find should miss on an empty index")
		}
	}
}

func TestEventIndex_Location(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	// 03:00 UTC on the 10th is still the 9th in New York.
	e := evt("late", at(2026, time.January, 10, 3, 0))
	idx := NewEventIndex([]Event{e}, ny)
	if len(idx.On(NewDate(2026, time.January, 9))) != 1 {
		t.Error("event should bind to the local date")
	}
	if len(idx.On(NewDate(2026, time.January, 10))) != 0 {
		t.Error("event should not bind to the UTC date")
	}
}

func TestEventIndex_Between(t *testing.T) {
	idx := NewEventIndex([]Event{
		evt("1", at(2026, time.March, 31, 9, 0)),
		evt("2", at(2026, time.April, 2, 9, 0)),
		evt("3", at(2026, time.April, 1, 9, 0)),
		evt("4", at(2026, time.April, 2, 8, 0)),
		evt("5", at(2026, time.May, 1, 9, 0)),
	}, time.UTC)

	days := idx.Between(NewDate(2026, time.April, 1), NewDate(2026, time.April, 30))
	if len(days) != 2 {
		t.Fatalf("expected 2 agenda days, got %d", len(days))
	}
	if days[0].Date != NewDate(2026, time.April, 1) || days[0].Events[0].ID != "3" {
		t.Errorf("first day wrong: %+v", days[0])
	}
	if len(days[1].Events) != 2 || days[1].Events[0].ID != "2" || days[1].Events[1].ID != "4" {
		t.Errorf("second day should keep collection order: %+v", days[1])
	}

	if got := idx.Between(NewDate(2026, time.May, 1), NewDate(2026, time.April, 1)); len(got) != 0 {
		t.Error("reversed range should be empty")
	}

	all := idx.Between(NewDate(1, time.January, 1), NewDate(9999, time.December, 31))
	if len(all) != 4 {
		t.Fatalf("full range should hold every event day, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if !all[i-1].Date.Before(all[i].Date) {
			t.Errorf("days out of order at %d: %s then %s", i, all[i-1].Date, all[i].Date)
		}
	}
	if got := idx.Between(NewDate(2026, time.April, 3), NewDate(2026, time.April, 30)); len(got) != 0 {
		t.Errorf("range without events should be empty, got %+v", got)
	}
}

func TestEventsOn_MatchesIndex(t *testing.T) {
	events := []Event{
		evt("a", at(2026, time.March, 3, 9, 0)),
		evt("b", at(2026, time.March, 4, 9, 0)),
		evt("c", at(2026, time.March, 3, 20, 0)),
		{ID: "z"},
	}
	idx := NewEventIndex(events, time.UTC)
	for day := 1; day <= 5; day++ {
		d := NewDate(2026, time.March, day)
		linear := EventsOn(events, d, time.UTC)
		indexed := idx.On(d)
		if len(linear) != len(indexed) {
			t.Fatalf("%s: linear %d vs indexed %d", d, len(linear), len(indexed))
		}
		for i := range linear {
			if linear[i].ID != indexed[i].ID {
				t.Errorf("%s[%d]: %s vs %s", d, i, linear[i].ID, indexed[i].ID)
			}
		}
	}
}
