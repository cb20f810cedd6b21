package calendar

import (
	"fmt"
	"time"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// View is one session's calendar cursor: a reference date, a view mode and
// the selected event. The grid itself is never stored; Render derives it
// from the reference date every time. View is not safe for concurrent use;
// the owning workspace serializes access.
type View struct {
	builder   GridBuilder
	index     *EventIndex
	now       func() time.Time
	reference Date
	mode      ViewMode
	selected  string

	// OnSelectDate, when set, receives dates forwarded by SelectDate.
	OnSelectDate func(Cell)
}

// ViewOption customizes a new View.
type ViewOption func(*View)

// WithClock overrides the clock used for "today" (tests, fixed demos).
func WithClock(now func() time.Time) ViewOption {
	return func(v *View) { v.now = now }
}

// WithWeekStart sets the grid's first weekday.
func WithWeekStart(day time.Weekday) ViewOption {
	return func(v *View) { v.builder.WeekStart = day }
}

// WithReference starts the view on a given date instead of today.
func WithReference(d Date) ViewOption {
	return func(v *View) { v.reference = d }
}

// NewView returns a month view over index positioned on today.
func NewView(index *EventIndex, opts ...ViewOption) *View {
	v := &View{
		index: index,
		now:   time.Now,
		mode:  ModeMonth,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.reference.IsZero() {
		v.reference = v.today()
	}
	return v
}

// Reference returns the date anchoring the current page.
func (v *View) Reference() Date {
	return v.reference
}

// Mode returns the current view mode.
func (v *View) Mode() ViewMode {
	return v.mode
}

// SelectedID returns the id of the selected event, or "".
func (v *View) SelectedID() string {
	return v.selected
}

// SetIndex swaps in a freshly loaded event collection. Navigation state and
// the selection are kept.
func (v *View) SetIndex(index *EventIndex) {
	v.index = index
}

// Navigate moves the reference date one whole month back or forward, or
// resets it to today.
func (v *View) Navigate(dir Direction) error {
	switch dir {
	case DirectionPrevious:
		v.reference = v.reference.AddMonths(-1)
	case DirectionNext:
		v.reference = v.reference.AddMonths(1)
	case DirectionToday:
		v.reference = v.today()
	default:
		return apperror.NewBadRequest(fmt.Sprintf("unknown direction %q", dir))
	}
	return nil
}

// GoTo jumps to an arbitrary date.
func (v *View) GoTo(d Date) error {
	if !d.Valid() {
		return apperror.NewInvalidDate(d.String() + " is not a valid calendar date")
	}
	v.reference = d
	return nil
}

// SetViewMode changes the layout. The reference date is untouched.
func (v *View) SetViewMode(mode ViewMode) error {
	if !mode.Valid() {
		return apperror.NewBadRequest(fmt.Sprintf("unknown view mode %q", mode))
	}
	v.mode = mode
	return nil
}

// SelectEvent marks e as the open event. It reports false when e was
// already selected so callers never open a second panel for it.
func (v *View) SelectEvent(e Event) bool {
	if v.selected == e.ID {
		return false
	}
	v.selected = e.ID
	return true
}

// ClearSelection closes the open event, if any.
func (v *View) ClearSelection() {
	v.selected = ""
}

// SelectDate resolves d to its cell and forwards it to OnSelectDate.
func (v *View) SelectDate(d Date) (Cell, error) {
	if !d.Valid() {
		return Cell{}, apperror.NewInvalidDate(d.String() + " is not a valid calendar date")
	}
	cell := Cell{
		Date:           d,
		IsCurrentMonth: d.SameMonth(v.reference),
		IsToday:        d == v.today(),
		Events:         v.index.On(d),
	}
	if v.OnSelectDate != nil {
		v.OnSelectDate(cell)
	}
	return cell, nil
}

// Render derives the page for the current mode. "Today" and current-month
// flags are recomputed on every call.
func (v *View) Render() (Page, error) {
	weeks, err := v.builder.BuildMonth(v.reference, v.today())
	if err != nil {
		return Page{}, err
	}
	for wi := range weeks {
		for ci := range weeks[wi] {
			weeks[wi][ci].Events = v.index.On(weeks[wi][ci].Date)
		}
	}

	page := Page{
		Mode:      v.mode,
		Reference: v.reference,
		Title:     fmt.Sprintf("%s %d", v.reference.Month, v.reference.Year),
	}

	switch v.mode {
	case ModeWeek:
		for _, w := range weeks {
			if w.Contains(v.reference) {
				page.Weeks = []Week{w}
				break
			}
		}
	case ModeDay:
		for _, w := range weeks {
			for _, c := range w {
				if c.Date == v.reference {
					cell := c
					page.Day = &cell
				}
			}
		}
	case ModeAgenda:
		page.Agenda = v.index.Between(v.reference.StartOfMonth(), v.reference.EndOfMonth())
	case ModeList:
		page.Events = []Event{}
		for _, day := range v.index.Between(v.reference.StartOfMonth(), v.reference.EndOfMonth()) {
			page.Events = append(page.Events, day.Events...)
		}
	default:
		page.Weeks = weeks
	}

	if v.selected != "" {
		if e, ok := v.index.Find(v.selected); ok {
			page.Selected = &e
		}
	}

	return page, nil
}

func (v *View) today() Date {
	var loc *time.Location
	if v.index != nil {
		loc = v.index.Location()
	}
	return DateOf(v.now(), loc)
}
