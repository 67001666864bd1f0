package model

import "time"

// Occurrence represents a single concrete instance of a calendar event
// (after recurrence expansion and timezone normalization). Occurrences are
// overlaid on the calendar's day cells by the host.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary  string
	Location string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

// Dates returns every calendar date the occurrence touches. End is
// exclusive, so an all-day event ending at next midnight covers one date.
func (o Occurrence) Dates() []Date {
	first := DateOf(o.Start)
	last := DateOf(o.End)
	if o.End.After(o.Start) && o.End.Equal(time.Date(o.End.Year(), o.End.Month(), o.End.Day(), 0, 0, 0, 0, o.End.Location())) {
		last = last.AddDays(-1)
	}
	if last.Before(first) {
		last = first
	}
	out := []Date{}
	for d := first; !d.After(last); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
