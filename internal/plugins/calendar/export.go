package calendar

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// exportTimeLayout is the compact local timestamp the calendar template
// endpoint expects (YYYYMMDDTHHmmss, no zone suffix).
const exportTimeLayout = "20060102T150405"

// DefaultExportBaseURL is the calendar template endpoint used when none is
// configured.
const DefaultExportBaseURL = "https://calendar.google.com/calendar/render"

// ExportURL builds an "add to calendar" link for the template endpoint at
// base. Times are formatted in their own location; convert them first to
// change the wall clock shown.
func ExportURL(base, title string, start, end time.Time, description string) string {
	if base == "" {
		base = DefaultExportBaseURL
	}
	var b strings.Builder
	b.WriteString(base)
	if strings.Contains(base, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("action=TEMPLATE")
	b.WriteString("&text=")
	b.WriteString(encodeComponent(title))
	b.WriteString("&dates=")
	b.WriteString(start.Format(exportTimeLayout))
	b.WriteByte('/')
	b.WriteString(end.Format(exportTimeLayout))
	b.WriteString("&details=")
	b.WriteString(encodeComponent(description))
	return b.String()
}

// EventExportURL is ExportURL for an event, with times shown in loc.
func EventExportURL(base string, e Event, loc *time.Location) string {
	start, end := e.Start, e.End
	if loc != nil {
		start, end = start.In(loc), end.In(loc)
	}
	return ExportURL(base, e.Title, start, end, e.Description)
}

// componentUnescaper undoes QueryEscape for the marks encodeURIComponent
// leaves alone, and writes spaces as %20 rather than '+'.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s for a query value the way
// encodeURIComponent does.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// FeedEvent is an event plus an optional alarm lead time for ICS feeds.
type FeedEvent struct {
	Event
	Alarm time.Duration
}

// FeedOptions describe an iCalendar feed.
type FeedOptions struct {
	Name    string
	ProdID  string
	BaseURL string
	Stamp   time.Time
}

// BuildICS serializes events as a VCALENDAR document. Events with an Alarm
// get a display VALARM that many minutes before the start.
func BuildICS(events []FeedEvent, opts FeedOptions) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if opts.ProdID != "" {
		cal.SetProductId(opts.ProdID)
	} else {
		cal.SetProductId("-//eventhub//calendar//EN")
	}
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, fe := range events {
		if !fe.HasValidStart() {
			continue
		}
		ve := cal.AddEvent(fe.ID + "@eventhub")
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(fe.Start.UTC())
		ve.SetEndAt(fe.End.UTC())
		ve.SetSummary(fe.Title)
		if fe.Description != "" {
			ve.SetDescription(fe.Description)
		}
		if fe.Location != "" {
			ve.SetLocation(fe.Location)
		}
		if fe.Category != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, fe.Category)
		}
		if opts.BaseURL != "" {
			ve.SetURL(strings.TrimRight(opts.BaseURL, "/") + "/calendar?date=" + fe.StartDate(fe.Start.Location()).String())
		}
		if fe.Alarm > 0 {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(alarmTrigger(fe.Alarm))
			alarm.SetProperty(ical.ComponentPropertyDescription, fe.Title)
		}
	}

	return cal.Serialize()
}

// alarmTrigger formats a lead time as a negative ISO 8601 duration in
// minutes, e.g. -PT60M.
func alarmTrigger(d time.Duration) string {
	return "-PT" + strconv.Itoa(int(d/time.Minute)) + "M"
}
