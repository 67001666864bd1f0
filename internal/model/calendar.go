package model

import "time"

// Day is a single calendar cell.
type Day struct {
	DayOfWeek time.Weekday
	Date      Date

	// IsSelected is true when Date equals the calendar's selected date.
	IsSelected bool

	// IsOutDay is true when Date belongs to the month before or after the
	// grid's anchor month (padding cells).
	IsOutDay bool
}

// Week is exactly seven days ordered from the configured first day of week.
type Week struct {
	Days [7]Day
}

// FirstDate returns the earliest date of the week.
func (w Week) FirstDate() Date {
	return w.Days[0].Date
}

// LastDate returns the latest date of the week.
func (w Week) LastDate() Date {
	return w.Days[6].Date
}

// SameDates reports whether both weeks cover the same dates in the same order.
// Selection and out-day flags are ignored.
func (w Week) SameDates(o Week) bool {
	for i := range w.Days {
		if w.Days[i].Date != o.Days[i].Date {
			return false
		}
	}
	return true
}

// Contains reports whether d is one of the week's dates.
func (w Week) Contains(d Date) bool {
	for _, day := range w.Days {
		if day.Date == d {
			return true
		}
	}
	return false
}

// PrimaryYearMonth returns the month owning the majority (at least four) of
// the week's dates.
func (w Week) PrimaryYearMonth() YearMonth {
	first := w.Days[0].Date.YearMonth()
	n := 0
	for _, day := range w.Days {
		if first.Contains(day.Date) {
			n++
		}
	}
	if n >= 4 {
		return first
	}
	return w.Days[6].Date.YearMonth()
}

// Month is the grid of weeks covering a single anchor month.
type Month struct {
	YearMonth YearMonth
	Weeks     []Week
}

// Days returns all cells of the month grid, padding included, in order.
func (m Month) Days() []Day {
	out := make([]Day, 0, len(m.Weeks)*7)
	for _, w := range m.Weeks {
		out = append(out, w.Days[:]...)
	}
	return out
}

// HasSelection reports whether any cell of the grid is selected.
func (m Month) HasSelection() bool {
	for _, d := range m.Days() {
		if d.IsSelected {
			return true
		}
	}
	return false
}
