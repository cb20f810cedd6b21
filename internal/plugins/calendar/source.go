package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"gopkg.in/yaml.v3"

	"github.com/keyxmakerx/eventhub/internal/sanitize"
)

// defaultEventDuration is used when a record gives a start but no end.
const defaultEventDuration = time.Hour

// Source supplies the complete event collection. The calendar treats it as
// read-only and replaces its copy wholesale on every load.
type Source interface {
	Load(ctx context.Context) ([]Event, error)
}

// StaticSource serves a fixed list of events.
type StaticSource []Event

// Load returns a copy of the list.
func (s StaticSource) Load(ctx context.Context) ([]Event, error) {
	return append([]Event(nil), s...), nil
}

// ParseOptions control how source records are normalized.
type ParseOptions struct {
	// Location is the zone for timestamps that carry no offset.
	Location *time.Location

	// RecurrenceHorizon bounds open-ended rrule expansion from the first start.
	RecurrenceHorizon time.Duration

	// RecurrenceLimit caps occurrences per recurring record.
	RecurrenceLimit int
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.RecurrenceHorizon <= 0 {
		o.RecurrenceHorizon = 365 * 24 * time.Hour
	}
	if o.RecurrenceLimit <= 0 {
		o.RecurrenceLimit = 100
	}
	return o
}

// FileSource loads events from a YAML (.yaml, .yml) or iCalendar (.ics)
// file, chosen by extension.
type FileSource struct {
	Path    string
	Options ParseOptions
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string, opts ParseOptions) *FileSource {
	return &FileSource{Path: path, Options: opts}
}

// Load reads and parses the file.
func (s *FileSource) Load(ctx context.Context) ([]Event, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading event source: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, s.Options)
	case ".ics", ".ical":
		return ParseICS(data, s.Options)
	default:
		return nil, fmt.Errorf("unsupported event source format %q", filepath.Ext(s.Path))
	}
}

// --- YAML ---

// yamlDocument is the top-level shape of a YAML event file.
type yamlDocument struct {
	Events []yamlEvent `yaml:"events"`
}

// yamlEvent is one record as written in the file. Either start/end
// timestamps or the display form date + time (+ end_time or duration) may
// be used.
type yamlEvent struct {
	ID          flexString `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Speaker     string     `yaml:"speaker"`
	Location    string     `yaml:"location"`
	Start       string     `yaml:"start"`
	End         string     `yaml:"end"`
	Date        string     `yaml:"date"`
	Time        string     `yaml:"time"`
	EndTime     string     `yaml:"end_time"`
	Duration    string     `yaml:"duration"`
	Category    string     `yaml:"category"`
	Track       string     `yaml:"track"`
	Type        string     `yaml:"type"`
	Color       string     `yaml:"color"`
	Attendees   int        `yaml:"attendees"`
	RRule       string     `yaml:"rrule"`
}

// flexString accepts any YAML scalar (ids are often written as integers).
type flexString string

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar id", node.Line)
	}
	*f = flexString(strings.TrimSpace(node.Value))
	return nil
}

// ParseYAML decodes a YAML event file. Records that fail normalization are
// logged and skipped; only a malformed document is an error.
func ParseYAML(data []byte, opts ParseOptions) ([]Event, error) {
	opts = opts.withDefaults()

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml events: %w", err)
	}

	events := make([]Event, 0, len(doc.Events))
	for i, raw := range doc.Events {
		evt, err := raw.normalize(opts.Location)
		if err != nil {
			slog.Warn("skipping event record",
				slog.Int("index", i),
				slog.String("id", string(raw.ID)),
				slog.Any("error", err),
			)
			continue
		}
		expanded, err := expandRecurrence(evt, raw.RRule, opts)
		if err != nil {
			slog.Warn("skipping recurring event",
				slog.String("id", evt.ID),
				slog.String("rrule", raw.RRule),
				slog.Any("error", err),
			)
			continue
		}
		events = append(events, expanded...)
	}

	return uniqueIDs(events), nil
}

// normalize turns a record into an Event, resolving the display
// date + time form into a timestamp pair.
func (r yamlEvent) normalize(loc *time.Location) (Event, error) {
	evt := Event{
		ID:            string(r.ID),
		Title:         sanitize.Text(r.Title),
		Description:   sanitize.HTML(r.Description),
		Speaker:       sanitize.Text(r.Speaker),
		Location:      sanitize.Text(r.Location),
		Category:      strings.TrimSpace(r.Category),
		Track:         strings.TrimSpace(r.Track),
		Type:          strings.TrimSpace(r.Type),
		Color:         strings.TrimSpace(r.Color),
		AttendeeCount: r.Attendees,
	}
	if evt.ID == "" {
		return Event{}, errors.New("id is required")
	}
	if evt.Title == "" {
		return Event{}, errors.New("title is required")
	}
	if evt.AttendeeCount < 0 {
		return Event{}, fmt.Errorf("attendees must be non-negative, got %d", evt.AttendeeCount)
	}

	var err error
	switch {
	case r.Start != "":
		if evt.Start, err = parseTimestamp(r.Start, loc); err != nil {
			return Event{}, fmt.Errorf("start: %w", err)
		}
	case r.Date != "":
		if evt.Start, err = parseDateAndClock(r.Date, r.Time, loc); err != nil {
			return Event{}, fmt.Errorf("date/time: %w", err)
		}
	default:
		return Event{}, errors.New("start or date is required")
	}

	switch {
	case r.End != "":
		if evt.End, err = parseTimestamp(r.End, loc); err != nil {
			return Event{}, fmt.Errorf("end: %w", err)
		}
	case r.EndTime != "":
		day := r.Date
		if day == "" {
			day = evt.Start.In(loc).Format(dateLayout)
		}
		if evt.End, err = parseDateAndClock(day, r.EndTime, loc); err != nil {
			return Event{}, fmt.Errorf("end_time: %w", err)
		}
	case r.Duration != "":
		d, err := time.ParseDuration(r.Duration)
		if err != nil {
			return Event{}, fmt.Errorf("duration: %w", err)
		}
		evt.End = evt.Start.Add(d)
	case r.Date != "" && r.Time == "":
		// A bare date is an all-day event.
		evt.End = evt.Start.AddDate(0, 0, 1)
	default:
		evt.End = evt.Start.Add(defaultEventDuration)
	}

	if !evt.Start.Before(evt.End) {
		return Event{}, fmt.Errorf("end %s is not after start %s", evt.End.Format(time.RFC3339), evt.Start.Format(time.RFC3339))
	}

	return evt, nil
}

// timestampLayouts are tried in order for start/end values. Layouts without
// an offset are read in the source's location.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// clockLayouts are tried in order for the display-form time field.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseDateAndClock(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, err
	}
	clock = strings.ToUpper(strings.TrimSpace(clock))
	if clock == "" {
		return d.Time(loc), nil
	}
	for _, layout := range clockLayouts {
		if c, err := time.Parse(layout, clock); err == nil {
			return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), c.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time of day %q", clock)
}

// --- iCalendar ---

// ParseICS decodes a VCALENDAR document. VEVENTs without a UID, summary or
// usable start are logged and skipped.
func ParseICS(data []byte, opts ParseOptions) ([]Event, error) {
	opts = opts.withDefaults()

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding ics events: %w", err)
	}

	var events []Event
	for _, ve := range cal.Events() {
		evt, rule, err := fromVEvent(ve, opts.Location)
		if err != nil {
			slog.Warn("skipping vevent", slog.String("uid", evt.ID), slog.Any("error", err))
			continue
		}
		expanded, err := expandRecurrence(evt, rule, opts)
		if err != nil {
			slog.Warn("skipping recurring vevent",
				slog.String("uid", evt.ID),
				slog.String("rrule", rule),
				slog.Any("error", err),
			)
			continue
		}
		events = append(events, expanded...)
	}

	return uniqueIDs(events), nil
}

// uniqueIDs keeps the first event for each id and drops the rest with a
// warning, so lookups by id always find a single event.
func uniqueIDs(events []Event) []Event {
	seen := make(map[string]bool, len(events))
	out := events[:0]
	for _, e := range events {
		if seen[e.ID] {
			slog.Warn("skipping event with duplicate id",
				slog.String("id", e.ID),
				slog.String("start", e.Start.Format(time.RFC3339)),
			)
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func fromVEvent(ve *ical.VEvent, loc *time.Location) (Event, string, error) {
	var evt Event
	prop := func(p ical.ComponentProperty) string {
		if v := ve.GetProperty(p); v != nil {
			return v.Value
		}
		return ""
	}

	evt.ID = strings.TrimSuffix(prop(ical.ComponentPropertyUniqueId), "@eventhub")
	if evt.ID == "" {
		return evt, "", errors.New("missing UID")
	}
	evt.Title = sanitize.Text(prop(ical.ComponentPropertySummary))
	if evt.Title == "" {
		return evt, "", errors.New("missing SUMMARY")
	}
	evt.Description = sanitize.HTML(prop(ical.ComponentPropertyDescription))
	evt.Location = sanitize.Text(prop(ical.ComponentPropertyLocation))
	if cats := prop(ical.ComponentPropertyCategories); cats != "" {
		evt.Category = strings.TrimSpace(strings.Split(cats, ",")[0])
	}
	if org := ve.GetProperty(ical.ComponentPropertyOrganizer); org != nil {
		if cn, ok := org.ICalParameters["CN"]; ok && len(cn) > 0 {
			evt.Speaker = sanitize.Text(cn[0])
		}
	}
	if n, err := strconv.Atoi(prop("X-ATTENDEE-COUNT")); err == nil && n >= 0 {
		evt.AttendeeCount = n
	}

	allDay := false
	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		if !strings.Contains(dt.Value, "T") {
			allDay = true
		}
	}

	if allDay {
		start, err := ve.GetAllDayStartAt()
		if err != nil {
			return evt, "", fmt.Errorf("DTSTART: %w", err)
		}
		evt.Start = DateOf(start, nil).Time(loc)
		evt.End = evt.Start.AddDate(0, 0, 1)
		if end, err := ve.GetAllDayEndAt(); err == nil && DateOf(end, nil).After(DateOf(start, nil)) {
			evt.End = DateOf(end, nil).Time(loc)
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return evt, "", fmt.Errorf("DTSTART: %w", err)
		}
		evt.Start = start.In(loc)
		if end, err := ve.GetEndAt(); err == nil {
			evt.End = end.In(loc)
		} else {
			evt.End = evt.Start.Add(defaultEventDuration)
		}
	}

	if !evt.Start.Before(evt.End) {
		return evt, "", errors.New("DTEND is not after DTSTART")
	}

	return evt, prop(ical.ComponentPropertyRrule), nil
}
