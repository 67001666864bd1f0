package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "jcal/internal/log"
	"jcal/internal/model"
)

const defaultMaxPerEvent = 2000

// Window is the span of dates events are expanded for, typically the first
// through last cell of the calendar's grids.
type Window struct {
	First model.Date
	Last  model.Date

	// Location is the display timezone; nil means UTC.
	Location *time.Location

	// MaxPerEvent caps the instances produced by one recurring event.
	MaxPerEvent int
}

func (w Window) bounds() (time.Time, time.Time) {
	from := time.Date(w.First.Year, w.First.Month, w.First.Day, 0, 0, 0, 0, w.Location)
	to := time.Date(w.Last.Year, w.Last.Month, w.Last.Day+1, 0, 0, 0, 0, w.Location)
	return from, to
}

// Expansion is the result of Expand.
type Expansion struct {
	Occurrences []model.Occurrence
	// Truncated lists UIDs whose recurrence hit MaxPerEvent.
	Truncated []string
}

// Expand turns events into concrete occurrences overlapping w, applying
// RRULE, EXDATE and RECURRENCE-ID overrides. Occurrences are sorted by start.
func Expand(events []Event, w Window) (Expansion, error) {
	var out Expansion
	if w.Last.Before(w.First) {
		return out, errors.New("ics: window ends before it starts")
	}
	if w.Location == nil {
		w.Location = time.UTC
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxPerEvent
	}

	overrides := make(map[string][]Event)
	var bases []Event
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	for _, ev := range bases {
		occs, capped := expandOne(ev, overrides[ev.UID], w)
		out.Occurrences = append(out.Occurrences, occs...)
		if capped {
			out.Truncated = append(out.Truncated, ev.UID)
			appLog.Warn("ics recurrence truncated", "uid", ev.UID, "cap", w.MaxPerEvent)
		}
	}

	sort.SliceStable(out.Occurrences, func(i, j int) bool {
		return out.Occurrences[i].Start.Before(out.Occurrences[j].Start)
	})
	return out, nil
}

func expandOne(ev Event, overrides []Event, w Window) ([]model.Occurrence, bool) {
	from, to := w.bounds()

	if ev.RRule == "" {
		start, end := ev.Start, ev.End
		if o, ok := overrideFor(overrides, start); ok {
			ev, start, end = o, o.Start, o.End
		}
		if !overlaps(start, end, from, to) {
			return nil, false
		}
		return []model.Occurrence{occurrence(ev, start, end, w.Location)}, false
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	// Widen by the duration so instances starting before the window but
	// still running inside it are kept.
	starts := set.Between(from.Add(-dur).In(ev.Start.Location()), to.In(ev.Start.Location()), true)

	capped := false
	if len(starts) > w.MaxPerEvent {
		starts = starts[:w.MaxPerEvent]
		capped = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		base, start, end := ev, s, s.Add(dur)
		if o, ok := overrideFor(overrides, s); ok {
			base, start, end = o, o.Start, o.End
		}
		if !overlaps(start, end, from, to) {
			continue
		}
		out = append(out, occurrence(base, start, end, w.Location))
	}
	return out, capped
}

func overrideFor(overrides []Event, start time.Time) (Event, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Event{}, false
}

// overlaps treats both ranges as half-open; zero-length events count when
// their instant lies inside the window.
func overlaps(start, end, from, to time.Time) bool {
	if !end.After(start) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}

func occurrence(ev Event, start, end time.Time, loc *time.Location) model.Occurrence {
	if ev.AllDay {
		// All-day values are dates; keep the date rather than converting
		// an instant across zones.
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	} else {
		start, end = start.In(loc), end.In(loc)
	}
	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: start.Format(time.RFC3339),
		Summary:     ev.Summary,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	}
}
