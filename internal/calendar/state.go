// Package calendar holds the session state of one calendar instance: its
// configuration, the month and week grids derived from it, the selection and
// the currently visible month.
//
// A State is not safe for concurrent use. Hosts that dispatch events from
// several goroutines must serialize calls themselves.
package calendar

import (
	"slices"
	"time"

	"jcal/internal/grid"
	appLog "jcal/internal/log"
	"jcal/internal/model"
)

// Pager is the host's page navigation control. ScrollToPage may complete
// asynchronously; the host reports arrival through ReportPageChanged.
type Pager interface {
	CurrentPage() int
	ScrollToPage(index int)
}

// State is the mutable calendar session.
type State struct {
	cfg Config

	// Derived from cfg by recompute; never patched in place.
	months         []model.Month
	weeks          []model.Week
	scrollPosition int

	currentMonth model.YearMonth

	// reported is the last month passed to onMonthChanged.
	reported    model.YearMonth
	hasReported bool

	pager Pager

	onDateSelected func(model.Date)
	onMonthChanged func(model.YearMonth)
}

// New validates cfg and builds the derived grids. It returns a
// *ConfigurationError and no State when cfg is invalid.
func New(cfg Config) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &State{
		cfg:          cfg,
		currentMonth: cfg.SelectedDate.YearMonth(),
	}
	s.recompute()

	appLog.Debug("calendar state created",
		"start_month", cfg.StartMonth,
		"end_month", cfg.EndMonth,
		"selected", cfg.SelectedDate,
		"week_start", cfg.FirstDayOfWeek,
		"mode", cfg.Mode,
		"pages", s.PageCount(),
	)
	return s, nil
}

// OnDateSelected registers the callback fired once per SelectDay.
func (s *State) OnDateSelected(fn func(model.Date)) {
	s.onDateSelected = fn
}

// OnMonthChanged registers the callback fired when a reported page change
// moves the visible month.
func (s *State) OnMonthChanged(fn func(model.YearMonth)) {
	s.onMonthChanged = fn
}

// BindPager attaches the host's page control used by ScrollForward,
// ScrollBack and JumpToMonth. Passing nil detaches it.
func (s *State) BindPager(p Pager) {
	s.pager = p
}

func (s *State) Config() Config                { return s.cfg }
func (s *State) Mode() model.Mode              { return s.cfg.Mode }
func (s *State) FirstDayOfWeek() time.Weekday  { return s.cfg.FirstDayOfWeek }
func (s *State) SelectedDate() model.Date      { return s.cfg.SelectedDate }
func (s *State) CurrentMonth() model.YearMonth { return s.currentMonth }

// ScrollPosition is the index of the page containing the selected date,
// into Months or Weeks depending on the mode.
func (s *State) ScrollPosition() int { return s.scrollPosition }

// Months returns a copy of every month grid in range.
func (s *State) Months() []model.Month {
	out := make([]model.Month, len(s.months))
	for i, m := range s.months {
		out[i] = model.Month{YearMonth: m.YearMonth, Weeks: slices.Clone(m.Weeks)}
	}
	return out
}

// Weeks returns a copy of the de-duplicated, chronologically ordered weeks.
func (s *State) Weeks() []model.Week {
	return slices.Clone(s.weeks)
}

// PageCount is the number of pages for the current mode.
func (s *State) PageCount() int {
	if s.cfg.Mode == model.ModeWeek {
		return len(s.weeks)
	}
	return len(s.months)
}

// PageYearMonth returns the month a page primarily shows: the anchor month
// in month mode, or the month owning most of the week in week mode.
func (s *State) PageYearMonth(index int) (model.YearMonth, bool) {
	if index < 0 || index >= s.PageCount() {
		return model.YearMonth{}, false
	}
	if s.cfg.Mode == model.ModeWeek {
		return s.weeks[index].PrimaryYearMonth(), true
	}
	return s.months[index].YearMonth, true
}

// PageOf returns the first page whose primary month is ym.
func (s *State) PageOf(ym model.YearMonth) (int, bool) {
	for i := 0; i < s.PageCount(); i++ {
		if got, _ := s.PageYearMonth(i); got == ym {
			return i, true
		}
	}
	return 0, false
}

// SelectDay selects day.Date and fires the date-selected callback.
func (s *State) SelectDay(day model.Day) {
	s.SelectDate(day.Date)
}

// SelectDate selects d, rebuilds every derived view and fires the
// date-selected callback once. Dates outside the configured range are
// accepted; no cell will carry the selection flag.
func (s *State) SelectDate(d model.Date) {
	s.cfg.SelectedDate = d
	s.recompute()

	ym := d.YearMonth()
	if ym.Before(s.cfg.StartMonth) || ym.After(s.cfg.EndMonth) {
		appLog.Debug("calendar selection outside range", "date", d,
			"start_month", s.cfg.StartMonth, "end_month", s.cfg.EndMonth)
	} else {
		appLog.Debug("calendar day selected", "date", d, "scroll_position", s.scrollPosition)
	}

	if s.onDateSelected != nil {
		s.onDateSelected(d)
	}
}

// SelectMonth sets the visible month without touching the selection.
func (s *State) SelectMonth(ym model.YearMonth) {
	s.currentMonth = ym
}

// ReportPageChanged is called by the host once its pager settled on index.
// The visible month is updated and the month-changed callback fires only if
// the month differs from the last one reported. Out-of-range indices are
// ignored.
func (s *State) ReportPageChanged(index int) {
	ym, ok := s.PageYearMonth(index)
	if !ok {
		appLog.Debug("calendar page change ignored", "index", index, "pages", s.PageCount())
		return
	}
	s.currentMonth = ym

	if s.hasReported && s.reported == ym {
		return
	}
	s.reported = ym
	s.hasReported = true

	appLog.Debug("calendar month changed", "month", ym, "page", index)
	if s.onMonthChanged != nil {
		s.onMonthChanged(ym)
	}
}

// ScrollForward asks the pager to advance one page. It reports whether a
// request was issued; at the last page, or without a pager, it does nothing.
func (s *State) ScrollForward() bool {
	return s.scrollBy(1)
}

// ScrollBack asks the pager to go back one page. See ScrollForward.
func (s *State) ScrollBack() bool {
	return s.scrollBy(-1)
}

// JumpToMonth asks the pager to show the first page of ym.
func (s *State) JumpToMonth(ym model.YearMonth) bool {
	if s.pager == nil {
		return false
	}
	idx, ok := s.PageOf(ym)
	if !ok {
		return false
	}
	s.pager.ScrollToPage(idx)
	return true
}

func (s *State) scrollBy(delta int) bool {
	if s.pager == nil {
		return false
	}
	target := s.pager.CurrentPage() + delta
	if target < 0 || target >= s.PageCount() {
		return false
	}
	s.pager.ScrollToPage(target)
	return true
}

// recompute rebuilds months, weeks and scrollPosition from cfg and swaps
// them in together.
func (s *State) recompute() {
	months := grid.BuildMonths(s.cfg.StartMonth, s.cfg.EndMonth, s.cfg.FirstDayOfWeek, s.cfg.SelectedDate)
	weeks := grid.BuildWeeks(months)
	pos := scrollPosition(s.cfg, months, weeks)

	s.months, s.weeks, s.scrollPosition = months, weeks, pos
}

func scrollPosition(cfg Config, months []model.Month, weeks []model.Week) int {
	if cfg.Mode == model.ModeWeek {
		for i, w := range weeks {
			if w.Contains(cfg.SelectedDate) {
				return i
			}
		}
		return 0
	}

	// The selected date may also sit in a neighbour's padding; the page is
	// the month that owns it.
	sel := cfg.SelectedDate.YearMonth()
	for i, m := range months {
		if m.YearMonth == sel {
			return i
		}
	}
	return 0
}
