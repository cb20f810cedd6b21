package calendar

import (
	"time"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// Cell is one day slot of a rendered calendar grid.
type Cell struct {
	Date           Date    `json:"date"`
	IsCurrentMonth bool    `json:"is_current_month"`
	IsToday        bool    `json:"is_today"`
	Events         []Event `json:"events"`
}

// Visible returns at most max of the cell's events, in order, and how many
// were left out. A max below one shows everything.
func (c Cell) Visible(max int) ([]Event, int) {
	if max < 1 || len(c.Events) <= max {
		return c.Events, 0
	}
	return c.Events[:max], len(c.Events) - max
}

// Week is one row of the grid. The array type keeps every row at exactly
// seven days.
type Week [7]Cell

// Dates returns the seven dates of the week in column order.
func (w Week) Dates() [7]Date {
	var out [7]Date
	for i, c := range w {
		out[i] = c.Date
	}
	return out
}

// Contains reports whether d is one of the week's days.
func (w Week) Contains(d Date) bool {
	return !d.Before(w[0].Date) && !d.After(w[6].Date)
}

// GridBuilder computes month-aligned grids of complete weeks. The zero value
// starts weeks on Sunday.
type GridBuilder struct {
	WeekStart time.Weekday
}

// BuildMonth returns the weeks covering ref's whole month, extended backward
// to the nearest week start and forward to the nearest week end. Cells are
// flagged against ref's month and against today. Events are left empty for
// the view to bind.
func (b GridBuilder) BuildMonth(ref, today Date) ([]Week, error) {
	if !ref.Valid() {
		return nil, apperror.NewInvalidDate("reference date " + ref.String() + " is not a valid calendar date")
	}

	first := ref.StartOfMonth()
	last := ref.EndOfMonth()

	lead := (int(first.Weekday()) - int(b.WeekStart) + 7) % 7
	weekEnd := (b.WeekStart + 6) % 7
	trail := (int(weekEnd) - int(last.Weekday()) + 7) % 7

	start := first.AddDays(-lead)
	days := lead + last.Day + trail

	weeks := make([]Week, 0, days/7)
	var week Week
	for i := 0; i < days; i++ {
		d := start.AddDays(i)
		week[i%7] = Cell{
			Date:           d,
			IsCurrentMonth: d.SameMonth(ref),
			IsToday:        d == today,
		}
		if i%7 == 6 {
			weeks = append(weeks, week)
			week = Week{}
		}
	}

	return weeks, nil
}
