// Package snapshot converts a calendar's configuration to a flat list of
// primitives and back, so a session can be restored after restart. Derived
// grids are never stored; they are rebuilt from the configuration.
package snapshot

import (
	"fmt"
	"math"
	"time"

	"jcal/internal/calendar"
	"jcal/internal/model"
)

// Version is written as the first element of every encoded snapshot.
const Version = 1

// Layout of a versioned snapshot:
//
//	[version, startMonth "YYYY-MM", endMonth "YYYY-MM", selectedDate "YYYY-MM-DD", firstDayOfWeek 0-6 (Sunday=0), mode 0-1]
//
// Unversioned 5-element snapshots (no leading version) are still accepted.
const (
	versionedLen = 6
	legacyLen    = 5
)

// DecodeError reports a snapshot with the wrong arity or a field of the
// wrong kind. Index is -1 for arity errors.
type DecodeError struct {
	Index  int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "snapshot: "
	if e.Index >= 0 {
		msg += fmt.Sprintf("field %d: ", e.Index)
	}
	msg += e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode captures the configuration of s.
func Encode(s *calendar.State) []any {
	return EncodeConfig(s.Config())
}

// EncodeConfig is Encode for a bare configuration.
func EncodeConfig(c calendar.Config) []any {
	return []any{
		Version,
		c.StartMonth.String(),
		c.EndMonth.String(),
		c.SelectedDate.String(),
		int(c.FirstDayOfWeek),
		int(c.Mode),
	}
}

// Decode is the inverse of Encode. The result is not validated against the
// range invariants; calendar.New does that.
func Decode(fields []any) (calendar.Config, error) {
	var cfg calendar.Config

	offset := 0
	switch len(fields) {
	case versionedLen:
		v, err := intField(fields, 0)
		if err != nil {
			return cfg, err
		}
		if v != Version {
			return cfg, &DecodeError{Index: 0, Reason: fmt.Sprintf("unsupported version %d", v)}
		}
		offset = 1
	case legacyLen:
	default:
		return cfg, &DecodeError{Index: -1, Reason: fmt.Sprintf("expected %d or %d fields, got %d", versionedLen, legacyLen, len(fields))}
	}

	var err error
	if cfg.StartMonth, err = yearMonthField(fields, offset); err != nil {
		return cfg, err
	}
	if cfg.EndMonth, err = yearMonthField(fields, offset+1); err != nil {
		return cfg, err
	}
	if cfg.SelectedDate, err = dateField(fields, offset+2); err != nil {
		return cfg, err
	}

	wd, err := intField(fields, offset+3)
	if err != nil {
		return cfg, err
	}
	if wd < int(time.Sunday) || wd > int(time.Saturday) {
		return cfg, &DecodeError{Index: offset + 3, Reason: fmt.Sprintf("weekday ordinal %d out of range", wd)}
	}
	cfg.FirstDayOfWeek = time.Weekday(wd)

	mode, err := intField(fields, offset+4)
	if err != nil {
		return cfg, err
	}
	cfg.Mode = model.Mode(mode)
	if !cfg.Mode.Valid() {
		return cfg, &DecodeError{Index: offset + 4, Reason: fmt.Sprintf("mode ordinal %d out of range", mode)}
	}

	return cfg, nil
}

// Restore decodes fields and builds a calendar from them. Errors are either
// *DecodeError or *calendar.ConfigurationError.
func Restore(fields []any) (*calendar.State, error) {
	cfg, err := Decode(fields)
	if err != nil {
		return nil, err
	}
	return calendar.New(cfg)
}

func yearMonthField(fields []any, i int) (model.YearMonth, error) {
	switch v := fields[i].(type) {
	case string:
		ym, err := model.ParseYearMonth(v)
		if err != nil {
			return model.YearMonth{}, &DecodeError{Index: i, Reason: "bad year-month", Err: err}
		}
		return ym, nil
	case time.Time:
		return model.YearMonthOf(v), nil
	default:
		return model.YearMonth{}, &DecodeError{Index: i, Reason: fmt.Sprintf("expected year-month string, got %T", v)}
	}
}

func dateField(fields []any, i int) (model.Date, error) {
	switch v := fields[i].(type) {
	case string:
		d, err := model.ParseDate(v)
		if err != nil {
			return model.Date{}, &DecodeError{Index: i, Reason: "bad date", Err: err}
		}
		return d, nil
	case time.Time:
		// YAML resolves unquoted YYYY-MM-DD scalars to timestamps.
		return model.DateOf(v), nil
	default:
		return model.Date{}, &DecodeError{Index: i, Reason: fmt.Sprintf("expected date string, got %T", v)}
	}
}

func intField(fields []any, i int) (int, error) {
	switch v := fields[i].(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt32 {
			break
		}
		return int(v), nil
	case float64:
		// JSON numbers.
		if v == math.Trunc(v) && math.Abs(v) <= math.MaxInt32 {
			return int(v), nil
		}
	}
	return 0, &DecodeError{Index: i, Reason: fmt.Sprintf("expected integer, got %T(%v)", fields[i], fields[i])}
}
