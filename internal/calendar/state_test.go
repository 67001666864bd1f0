package calendar

import (
	"errors"
	"testing"
	"time"

	"jcal/internal/model"
)

func ym(y int, m time.Month) model.YearMonth { return model.YearMonth{Year: y, Month: m} }

func date(y int, m time.Month, d int) model.Date { return model.Date{Year: y, Month: m, Day: d} }

// fakePager records scroll requests; CurrentPage only moves when the test
// says the transition finished.
type fakePager struct {
	page     int
	requests []int
}

func (p *fakePager) CurrentPage() int { return p.page }

func (p *fakePager) ScrollToPage(index int) { p.requests = append(p.requests, index) }

func mustNew(t *testing.T, cfg Config) *State {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

func selectedDays(s *State) []model.Day {
	var out []model.Day
	for _, m := range s.Months() {
		for _, d := range m.Days() {
			if d.IsSelected {
				out = append(out, d)
			}
		}
	}
	return out
}

func TestNewSingleMonth(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:     ym(2024, time.January),
		EndMonth:       ym(2024, time.January),
		SelectedDate:   date(2024, time.January, 15),
		FirstDayOfWeek: time.Monday,
		Mode:           model.ModeMonth,
	})

	if got := len(s.Months()); got != 1 {
		t.Fatalf("got %d months, want 1", got)
	}
	sel := selectedDays(s)
	if len(sel) != 1 || sel[0].Date != date(2024, time.January, 15) {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	if s.ScrollPosition() != 0 {
		t.Errorf("got scroll position %d, want 0", s.ScrollPosition())
	}
	if s.CurrentMonth() != ym(2024, time.January) {
		t.Errorf("got current month %v, want 2024-01", s.CurrentMonth())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"end before start", Config{
			StartMonth:   ym(2024, time.February),
			EndMonth:     ym(2024, time.January),
			SelectedDate: date(2024, time.January, 10),
		}},
		{"selection before range", Config{
			StartMonth:   ym(2024, time.February),
			EndMonth:     ym(2024, time.March),
			SelectedDate: date(2024, time.January, 31),
		}},
		{"selection after range", Config{
			StartMonth:   ym(2024, time.February),
			EndMonth:     ym(2024, time.March),
			SelectedDate: date(2024, time.April, 1),
		}},
		{"bad mode", Config{
			StartMonth:   ym(2024, time.February),
			EndMonth:     ym(2024, time.March),
			SelectedDate: date(2024, time.March, 1),
			Mode:         model.Mode(7),
		}},
	}

	for _, tt := range tests {
		s, err := New(tt.cfg)
		if s != nil {
			t.Errorf("%s: expected no state", tt.name)
		}
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) {
			t.Errorf("%s: expected ConfigurationError, got %v", tt.name, err)
		}
	}
}

func TestScrollPositionMonthMode(t *testing.T) {
	// March 1 2024 is also a padding cell of the February grid.
	s := mustNew(t, Config{
		StartMonth:     ym(2024, time.January),
		EndMonth:       ym(2024, time.April),
		SelectedDate:   date(2024, time.March, 1),
		FirstDayOfWeek: time.Monday,
	})
	if s.ScrollPosition() != 2 {
		t.Fatalf("got scroll position %d, want 2", s.ScrollPosition())
	}
}

func TestWeekModeBoundaryWeekOnce(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:     ym(2024, time.January),
		EndMonth:       ym(2024, time.February),
		SelectedDate:   date(2024, time.February, 1),
		FirstDayOfWeek: time.Monday,
		Mode:           model.ModeWeek,
	})

	n := 0
	for _, w := range s.Weeks() {
		if w.Contains(date(2024, time.February, 1)) {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("boundary week appears %d times, want 1", n)
	}

	// Jan 1 2024 is a Monday: weeks start Jan 1, 8, 15, 22, 29.
	if s.ScrollPosition() != 4 {
		t.Fatalf("got scroll position %d, want 4", s.ScrollPosition())
	}
	if s.PageCount() != len(s.Weeks()) {
		t.Fatalf("page count %d does not match weeks %d", s.PageCount(), len(s.Weeks()))
	}
}

func TestSelectDay(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:     ym(2024, time.January),
		EndMonth:       ym(2024, time.March),
		SelectedDate:   date(2024, time.January, 15),
		FirstDayOfWeek: time.Sunday,
		Mode:           model.ModeWeek,
	})

	var got []model.Date
	s.OnDateSelected(func(d model.Date) { got = append(got, d) })

	target := model.Day{Date: date(2024, time.March, 20)}
	s.SelectDay(target)

	if len(got) != 1 || got[0] != target.Date {
		t.Fatalf("callback got %v, want one call with %v", got, target.Date)
	}
	if s.SelectedDate() != target.Date {
		t.Fatalf("selected date %v, want %v", s.SelectedDate(), target.Date)
	}
	for _, d := range selectedDays(s) {
		if d.Date != target.Date {
			t.Fatalf("stale selection on %v", d.Date)
		}
	}

	weeksSelected := 0
	for _, w := range s.Weeks() {
		for _, d := range w.Days {
			if d.IsSelected {
				weeksSelected++
			}
		}
	}
	if weeksSelected != 1 {
		t.Fatalf("got %d selected cells in weeks, want 1", weeksSelected)
	}
	if !s.Weeks()[s.ScrollPosition()].Contains(target.Date) {
		t.Fatalf("scroll position %d does not contain the selection", s.ScrollPosition())
	}
}

func TestSelectDayIdempotent(t *testing.T) {
	cfg := Config{
		StartMonth:     ym(2024, time.May),
		EndMonth:       ym(2024, time.July),
		SelectedDate:   date(2024, time.May, 2),
		FirstDayOfWeek: time.Monday,
	}
	a := mustNew(t, cfg)
	b := mustNew(t, cfg)

	day := model.Day{Date: date(2024, time.June, 30)}
	a.SelectDay(day)
	b.SelectDay(day)
	b.SelectDay(day)

	if a.ScrollPosition() != b.ScrollPosition() || a.Config() != b.Config() {
		t.Fatalf("states diverged: %+v vs %+v", a.Config(), b.Config())
	}
	am, bm := a.Months(), b.Months()
	for i := range am {
		for j := range am[i].Weeks {
			if am[i].Weeks[j] != bm[i].Weeks[j] {
				t.Fatalf("month %d week %d differs", i, j)
			}
		}
	}
}

func TestSelectDayOutsideRange(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:   ym(2024, time.January),
		EndMonth:     ym(2024, time.January),
		SelectedDate: date(2024, time.January, 10),
	})
	calls := 0
	s.OnDateSelected(func(model.Date) { calls++ })

	s.SelectDay(model.Day{Date: date(2025, time.June, 1)})

	if calls != 1 {
		t.Fatalf("got %d callbacks, want 1", calls)
	}
	if n := len(selectedDays(s)); n != 0 {
		t.Fatalf("got %d selected cells, want 0", n)
	}
	if s.ScrollPosition() != 0 {
		t.Fatalf("got scroll position %d, want 0", s.ScrollPosition())
	}
}

func TestMonthsCopyIsolation(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:   ym(2024, time.January),
		EndMonth:     ym(2024, time.January),
		SelectedDate: date(2024, time.January, 10),
	})
	m := s.Months()
	m[0].Weeks[0].Days[0].IsSelected = true

	if s.Months()[0].Weeks[0].Days[0].IsSelected {
		t.Fatalf("mutating a returned month leaked into the state")
	}
}

func TestScrollForwardBack(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:   ym(2024, time.January),
		EndMonth:     ym(2024, time.March),
		SelectedDate: date(2024, time.January, 10),
	})

	if s.ScrollForward() {
		t.Fatalf("scroll without pager should be a no-op")
	}

	p := &fakePager{}
	s.BindPager(p)

	if s.ScrollBack() {
		t.Fatalf("scroll back from first page should be a no-op")
	}
	if !s.ScrollForward() {
		t.Fatalf("scroll forward from first page should be issued")
	}

	p.page = 2
	if s.ScrollForward() {
		t.Fatalf("scroll forward from last page should be a no-op")
	}
	if !s.ScrollBack() {
		t.Fatalf("scroll back from last page should be issued")
	}

	want := []int{1, 1}
	if len(p.requests) != len(want) || p.requests[0] != want[0] || p.requests[1] != want[1] {
		t.Fatalf("got requests %v, want %v", p.requests, want)
	}
}

func TestReportPageChangedDistinct(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:     ym(2024, time.January),
		EndMonth:       ym(2024, time.March),
		SelectedDate:   date(2024, time.January, 10),
		FirstDayOfWeek: time.Monday,
		Mode:           model.ModeWeek,
	})

	var got []model.YearMonth
	s.OnMonthChanged(func(m model.YearMonth) { got = append(got, m) })

	s.ReportPageChanged(0) // Jan 1-7
	s.ReportPageChanged(1) // Jan 8-14, same month
	s.ReportPageChanged(4) // Jan 29 - Feb 4, mostly February
	s.ReportPageChanged(5) // Feb 5-11, same month
	s.ReportPageChanged(99)

	want := []model.YearMonth{ym(2024, time.January), ym(2024, time.February)}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if s.CurrentMonth() != ym(2024, time.February) {
		t.Fatalf("got current month %v, want 2024-02", s.CurrentMonth())
	}
}

func TestSelectMonthAndJump(t *testing.T) {
	s := mustNew(t, Config{
		StartMonth:   ym(2024, time.January),
		EndMonth:     ym(2024, time.June),
		SelectedDate: date(2024, time.January, 10),
	})
	s.SelectMonth(ym(2024, time.April))
	if s.CurrentMonth() != ym(2024, time.April) {
		t.Fatalf("got current month %v, want 2024-04", s.CurrentMonth())
	}
	if s.SelectedDate() != date(2024, time.January, 10) {
		t.Fatalf("SelectMonth changed the selection")
	}

	p := &fakePager{}
	s.BindPager(p)
	if !s.JumpToMonth(ym(2024, time.May)) {
		t.Fatalf("jump to May should be issued")
	}
	if s.JumpToMonth(ym(2025, time.May)) {
		t.Fatalf("jump outside range should be a no-op")
	}
	if len(p.requests) != 1 || p.requests[0] != 4 {
		t.Fatalf("got requests %v, want [4]", p.requests)
	}
}

func TestDefaultConfig(t *testing.T) {
	now := time.Date(2026, time.October, 17, 22, 0, 0, 0, time.UTC)
	cfg := DefaultConfig(now)
	if cfg.StartMonth != ym(2026, time.October) || cfg.EndMonth != cfg.StartMonth {
		t.Fatalf("unexpected range %v..%v", cfg.StartMonth, cfg.EndMonth)
	}
	if cfg.FirstDayOfWeek != time.Monday || cfg.Mode != model.ModeMonth {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
