package grid

import (
	"sort"
	"time"

	"jcal/internal/model"
)

// MonthsInRange enumerates start..end inclusive. It returns nil when end is
// before start.
func MonthsInRange(start, end model.YearMonth) []model.YearMonth {
	if end.Before(start) {
		return nil
	}
	out := []model.YearMonth{}
	for ym := start; !ym.After(end); ym = ym.Next() {
		out = append(out, ym)
	}
	return out
}

// BuildMonths returns one month grid per month of [start, end].
func BuildMonths(start, end model.YearMonth, firstDayOfWeek time.Weekday, selected model.Date) []model.Month {
	yms := MonthsInRange(start, end)
	months := make([]model.Month, 0, len(yms))
	for _, ym := range yms {
		months = append(months, model.Month{
			YearMonth: ym,
			Weeks:     MonthWeeks(ym, firstDayOfWeek, selected),
		})
	}
	return months
}

// BuildWeeks flattens the weeks of months, drops weeks whose dates were
// already seen (a week spanning a month boundary appears in both adjacent
// grids) and orders the result by each week's first date.
//
// When a boundary week is duplicated, the copy from the earlier month is
// kept, so its out-day flags are relative to that month.
func BuildWeeks(months []model.Month) []model.Week {
	seen := make(map[[7]model.Date]struct{})
	weeks := make([]model.Week, 0)

	for _, m := range months {
		for _, w := range m.Weeks {
			key := weekKey(w)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			weeks = append(weeks, w)
		}
	}

	sort.SliceStable(weeks, func(i, j int) bool {
		return weeks[i].FirstDate().Before(weeks[j].FirstDate())
	})
	return weeks
}

func weekKey(w model.Week) [7]model.Date {
	var k [7]model.Date
	for i, d := range w.Days {
		k[i] = d.Date
	}
	return k
}
