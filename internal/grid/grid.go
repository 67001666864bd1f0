// Package grid partitions calendar months into seven-day weeks.
//
// All functions are pure: the same inputs always produce the same grids.
package grid

import (
	"time"

	"jcal/internal/model"
)

const daysPerWeek = 7

// MonthDates returns every date of ym, first to last.
func MonthDates(ym model.YearMonth) []model.Date {
	n := ym.Length()
	out := make([]model.Date, 0, n)
	for day := 1; day <= n; day++ {
		out = append(out, model.Date{Year: ym.Year, Month: ym.Month, Day: day})
	}
	return out
}

// SortedDaysOfWeek returns the seven weekdays rotated so that first comes
// first. SortedDaysOfWeek(time.Tuesday) is Tue, Wed, Thu, Fri, Sat, Sun, Mon.
func SortedDaysOfWeek(first time.Weekday) [7]time.Weekday {
	var out [7]time.Weekday
	for i := range out {
		out[i] = time.Weekday((int(first) + i) % daysPerWeek)
	}
	return out
}

// leadingDays is the number of previous-month dates needed in front of the
// 1st of the month so that the grid starts on firstDayOfWeek.
func leadingDays(firstOfMonth time.Weekday, firstDayOfWeek time.Weekday) int {
	return (int(firstOfMonth) - int(firstDayOfWeek) + daysPerWeek) % daysPerWeek
}

// MonthWeeks builds the week grid of ym. The month's dates are padded with
// the minimum number of dates from the previous and next month so the grid
// divides into whole weeks starting on firstDayOfWeek. Padding cells are
// flagged IsOutDay; the cell whose date equals selected is flagged
// IsSelected (this includes padding cells).
func MonthWeeks(ym model.YearMonth, firstDayOfWeek time.Weekday, selected model.Date) []model.Week {
	current := MonthDates(ym)
	sorted := SortedDaysOfWeek(firstDayOfWeek)

	dates := make([]model.Date, 0, 6*daysPerWeek)

	if lead := leadingDays(current[0].Weekday(), firstDayOfWeek); lead > 0 {
		prev := MonthDates(ym.Previous())
		dates = append(dates, prev[len(prev)-lead:]...)
	}
	dates = append(dates, current...)

	if rem := len(dates) % daysPerWeek; rem > 0 {
		next := MonthDates(ym.Next())
		dates = append(dates, next[:daysPerWeek-rem]...)
	}

	weeks := make([]model.Week, 0, len(dates)/daysPerWeek)
	for i := 0; i < len(dates); i += daysPerWeek {
		chunk := dates[i : i+daysPerWeek]

		var w model.Week
		for j, wd := range sorted {
			date := dateWithWeekday(chunk, wd)
			w.Days[j] = model.Day{
				DayOfWeek:  wd,
				Date:       date,
				IsSelected: date == selected,
				IsOutDay:   !ym.Contains(date),
			}
		}
		weeks = append(weeks, w)
	}
	return weeks
}

// dateWithWeekday returns the date in chunk falling on wd. A chunk always
// spans seven consecutive dates so exactly one matches.
func dateWithWeekday(chunk []model.Date, wd time.Weekday) model.Date {
	for _, d := range chunk {
		if d.Weekday() == wd {
			return d
		}
	}
	return chunk[0]
}
