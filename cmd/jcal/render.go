package main

import (
	"fmt"
	"io"
	"strings"

	"jcal/internal/calendar"
	"jcal/internal/grid"
	"jcal/internal/ics"
	"jcal/internal/model"
)

// renderText prints one page as a seven-column grid. Out-days are shown in
// parentheses, the selected day carries '*', days with events carry '+'.
func renderText(w io.Writer, st *calendar.State, page int, index *ics.Index) error {
	ym, ok := st.PageYearMonth(page)
	if !ok {
		return fmt.Errorf("page %d out of range (0..%d)", page, st.PageCount()-1)
	}

	var weeks []model.Week
	if st.Mode() == model.ModeWeek {
		weeks = []model.Week{st.Weeks()[page]}
	} else {
		weeks = st.Months()[page].Weeks
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s view, page %d/%d\n", ym, st.Mode(), page+1, st.PageCount())
	for _, wd := range grid.SortedDaysOfWeek(st.FirstDayOfWeek()) {
		fmt.Fprintf(&b, "%6s", wd.String()[:3])
	}
	b.WriteString("\n")

	for _, week := range weeks {
		for _, d := range week.Days {
			b.WriteString(cell(d, index.Count(d.Date)))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func cell(d model.Day, events int) string {
	label := fmt.Sprintf("%d", d.Date.Day)
	if d.IsOutDay {
		label = "(" + label + ")"
	}
	if d.IsSelected {
		label += "*"
	}
	if events > 0 {
		label += "+"
	}
	return fmt.Sprintf("%6s", label)
}
