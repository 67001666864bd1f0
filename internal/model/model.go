package model

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used for textual date values (config files, snapshots, query strings).
const (
	YearMonthLayout = "2006-01"
	DateLayout      = "2006-01-02"
)

// Date is a calendar date without time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate normalizes the given components the same way time.Date does,
// so NewDate(2024, 2, 30) is 2024-03-01.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("model: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

func (d Date) Before(o Date) bool {
	return d.Compare(o) < 0
}

func (d Date) After(o Date) bool {
	return d.Compare(o) > 0
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// YearMonth identifies a single calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(YearMonthLayout, strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("model: invalid year-month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// AddMonths shifts ym by n months (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	t := time.Date(ym.Year, ym.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return YearMonthOf(t)
}

func (ym YearMonth) Next() YearMonth     { return ym.AddMonths(1) }
func (ym YearMonth) Previous() YearMonth { return ym.AddMonths(-1) }

// FirstDay returns the 1st of the month.
func (ym YearMonth) FirstDay() Date {
	return Date{Year: ym.Year, Month: ym.Month, Day: 1}
}

// Length returns the number of days in the month.
func (ym YearMonth) Length() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (ym YearMonth) Contains(d Date) bool {
	return d.Year == ym.Year && d.Month == ym.Month
}

func (ym YearMonth) Compare(o YearMonth) int {
	if ym.Year != o.Year {
		return cmpInt(ym.Year, o.Year)
	}
	return cmpInt(int(ym.Month), int(o.Month))
}

func (ym YearMonth) Before(o YearMonth) bool { return ym.Compare(o) < 0 }
func (ym YearMonth) After(o YearMonth) bool  { return ym.Compare(o) > 0 }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Mode selects how the calendar paginates.
type Mode int

const (
	ModeMonth Mode = iota
	ModeWeek
)

// ParseMode accepts "month" or "week" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month":
		return ModeMonth, nil
	case "week":
		return ModeWeek, nil
	default:
		return ModeMonth, fmt.Errorf("model: unknown calendar mode %q", s)
	}
}

func (m Mode) Valid() bool {
	return m == ModeMonth || m == ModeWeek
}

func (m Mode) String() string {
	switch m {
	case ModeMonth:
		return "month"
	case ModeWeek:
		return "week"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseWeekday accepts English weekday names ("monday") or their
// three-letter abbreviations ("mon"), case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if v == name || v == name[:3] {
			return wd, nil
		}
	}
	return time.Monday, fmt.Errorf("model: unknown weekday %q", s)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
