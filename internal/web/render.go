package web

import (
	"time"

	"jcal/internal/grid"
	"jcal/internal/ics"
	"jcal/internal/model"
)

// calendarResponse is the JSON shape of /api/calendar and of every command
// response.
type calendarResponse struct {
	Mode           string    `json:"mode"`
	FirstDayOfWeek string    `json:"first_day_of_week"`
	Weekdays       []string  `json:"weekdays"`
	SelectedDate   string    `json:"selected_date"`
	CurrentMonth   string    `json:"current_month"`
	ScrollPosition int       `json:"scroll_position"`
	Page           int       `json:"page"`
	PageCount      int       `json:"page_count"`
	Visible        pageDTO   `json:"visible"`
	Pages          []pageDTO `json:"pages,omitempty"`
}

type pageDTO struct {
	Index int        `json:"index"`
	Month string     `json:"month"`
	Weeks [][]dayDTO `json:"weeks"`
}

type dayDTO struct {
	Date     string `json:"date"`
	Day      int    `json:"day"`
	Weekday  string `json:"weekday"`
	Selected bool   `json:"selected"`
	OutDay   bool   `json:"out_day"`
	Events   int    `json:"events"`
}

// weekdayLabel is the host's short display name; the calendar core only
// carries time.Weekday values.
func weekdayLabel(wd time.Weekday) string {
	return wd.String()[:3]
}

// render builds the response for the current state. Callers hold s.mu.
func (s *Server) render(all bool) calendarResponse {
	st := s.state
	var index *ics.Index
	if s.overlay != nil {
		index = s.overlay.Index()
	}

	labels := make([]string, 0, 7)
	for _, wd := range grid.SortedDaysOfWeek(st.FirstDayOfWeek()) {
		labels = append(labels, weekdayLabel(wd))
	}

	pages := s.pages(index)
	resp := calendarResponse{
		Mode:           st.Mode().String(),
		FirstDayOfWeek: st.FirstDayOfWeek().String(),
		Weekdays:       labels,
		SelectedDate:   st.SelectedDate().String(),
		CurrentMonth:   st.CurrentMonth().String(),
		ScrollPosition: st.ScrollPosition(),
		Page:           s.pager.current,
		PageCount:      len(pages),
	}
	if s.pager.current >= 0 && s.pager.current < len(pages) {
		resp.Visible = pages[s.pager.current]
	}
	if all {
		resp.Pages = pages
	}
	return resp
}

func (s *Server) pages(index *ics.Index) []pageDTO {
	st := s.state
	var out []pageDTO

	if st.Mode() == model.ModeWeek {
		for i, w := range st.Weeks() {
			ym, _ := st.PageYearMonth(i)
			out = append(out, pageDTO{Index: i, Month: ym.String(), Weeks: [][]dayDTO{weekDTO(w, index)}})
		}
		return out
	}

	for i, m := range st.Months() {
		p := pageDTO{Index: i, Month: m.YearMonth.String()}
		for _, w := range m.Weeks {
			p.Weeks = append(p.Weeks, weekDTO(w, index))
		}
		out = append(out, p)
	}
	return out
}

func weekDTO(w model.Week, index *ics.Index) []dayDTO {
	days := make([]dayDTO, 0, len(w.Days))
	for _, d := range w.Days {
		days = append(days, dayDTO{
			Date:     d.Date.String(),
			Day:      d.Date.Day,
			Weekday:  weekdayLabel(d.DayOfWeek),
			Selected: d.IsSelected,
			OutDay:   d.IsOutDay,
			Events:   index.Count(d.Date),
		})
	}
	return days
}
