package calendar

import (
	"fmt"
	"time"

	"jcal/internal/model"
)

// Config is the small set of inputs every derived view is computed from.
type Config struct {
	StartMonth     model.YearMonth
	EndMonth       model.YearMonth
	SelectedDate   model.Date
	FirstDayOfWeek time.Weekday
	Mode           model.Mode
}

// DefaultConfig returns a single-month calendar for the month of now,
// selecting now's date, with weeks starting on Monday in month mode.
func DefaultConfig(now time.Time) Config {
	today := model.DateOf(now)
	return Config{
		StartMonth:     today.YearMonth(),
		EndMonth:       today.YearMonth(),
		SelectedDate:   today,
		FirstDayOfWeek: time.Monday,
		Mode:           model.ModeMonth,
	}
}

// ConfigurationError reports an invalid Config passed to New.
type ConfigurationError struct {
	Reason string
	Config Config
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("calendar: invalid configuration: %s (start=%s end=%s selected=%s)",
		e.Reason, e.Config.StartMonth, e.Config.EndMonth, e.Config.SelectedDate)
}

// Validate checks the range and selection invariants. It returns a
// *ConfigurationError on violation.
func (c Config) Validate() error {
	if c.EndMonth.Before(c.StartMonth) {
		return &ConfigurationError{Reason: "end month is before start month", Config: c}
	}
	sel := c.SelectedDate.YearMonth()
	if sel.Before(c.StartMonth) || sel.After(c.EndMonth) {
		return &ConfigurationError{Reason: "selected date is outside the month range", Config: c}
	}
	if c.FirstDayOfWeek < time.Sunday || c.FirstDayOfWeek > time.Saturday {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid first day of week %d", int(c.FirstDayOfWeek)), Config: c}
	}
	if !c.Mode.Valid() {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid mode %d", int(c.Mode)), Config: c}
	}
	return nil
}
