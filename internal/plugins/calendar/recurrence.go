package calendar

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/teambition/rrule-go"
)

// occurrenceIDLayout suffixes occurrence ids with their start date.
const occurrenceIDLayout = "20060102"

// expandRecurrence turns a record with an RRULE into one Event per
// occurrence. Occurrence ids are "<id>-<YYYYMMDD>" and keep the base
// event's duration. An empty rule returns the event unchanged.
//
// Expansion stops at the rule's own COUNT/UNTIL, at opts.RecurrenceHorizon
// past the first start, or at opts.RecurrenceLimit occurrences, whichever
// comes first.
func expandRecurrence(base Event, rule string, opts ParseOptions) ([]Event, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return []Event{base}, nil
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, err
	}
	// One occurrence per day at most, so date-suffixed ids stay unique.
	if r.OrigOptions.Freq > rrule.DAILY {
		return nil, errors.New("sub-daily recurrence is not supported")
	}
	if n := max(1, len(r.OrigOptions.Byhour)) * max(1, len(r.OrigOptions.Byminute)) * max(1, len(r.OrigOptions.Bysecond)); n > 1 {
		return nil, errors.New("several times of day per occurrence are not supported")
	}
	r.DTStart(base.Start)

	starts := r.Between(base.Start, base.Start.Add(opts.RecurrenceHorizon), true)
	if len(starts) > opts.RecurrenceLimit {
		slog.Warn("truncating recurring event",
			slog.String("id", base.ID),
			slog.Int("occurrences", len(starts)),
			slog.Int("limit", opts.RecurrenceLimit),
		)
		starts = starts[:opts.RecurrenceLimit]
	}

	dur := base.Duration()
	out := make([]Event, 0, len(starts))
	for _, s := range starts {
		occ := base
		occ.ID = base.ID + "-" + s.Format(occurrenceIDLayout)
		occ.Start = s
		occ.End = s.Add(dur)
		out = append(out, occ)
	}
	return out, nil
}
