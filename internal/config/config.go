package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"jcal/internal/calendar"
	"jcal/internal/model"
)

// ICSConfig describes a single ICS subscription whose events are overlaid on
// the calendar's day cells.
type ICSConfig struct {
	// URL of the .ics feed.
	URL string `yaml:"url" json:"url"`
	// ID tags occurrences and log lines. Defaults to Name, then URL.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CalendarConfig is the textual form of calendar.Config. Empty month and
// date values mean "now" in the configured timezone.
type CalendarConfig struct {
	StartMonth   string `yaml:"start_month" json:"start_month"`
	EndMonth     string `yaml:"end_month" json:"end_month"`
	SelectedDate string `yaml:"selected_date" json:"selected_date"`

	// WeekStart is the first day of each week: any English weekday name
	// ("monday", "sunday", ...). Defaults to monday.
	WeekStart string `yaml:"week_start" json:"week_start"`

	// Mode is "month" (default) or "week".
	Mode string `yaml:"mode" json:"mode"`
}

// Config is the contents of the jcal YAML file.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to resolve "today" and to display
	// overlaid events (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// refreshing the ICS overlay in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// SnapshotPath is where the session snapshot is stored between runs.
	// Empty disables session restore.
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`

	// CacheDir holds downloaded ICS feeds.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	// ICS feeds whose events are counted per day cell.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultLogLevel    = "info"
	defaultRefreshCron = "*/15 * * * *"
	defaultWeekStart   = "monday"
	defaultMode        = "month"
	defaultCacheDir    = "./cache"
)

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		LogLevel:     defaultLogLevel,
		RefreshCron:  defaultRefreshCron,
		SnapshotPath: "",
		CacheDir:     defaultCacheDir,
		Calendar: CalendarConfig{
			WeekStart: defaultWeekStart,
			Mode:      defaultMode,
		},
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values and replaces values that cannot be
// parsed with defaults, so partially filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	} else if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		c.RefreshCron = defaultRefreshCron
	}

	if _, err := model.ParseWeekday(c.Calendar.WeekStart); err != nil {
		c.Calendar.WeekStart = defaultWeekStart
	}
	c.Calendar.WeekStart = strings.ToLower(strings.TrimSpace(c.Calendar.WeekStart))

	if _, err := model.ParseMode(c.Calendar.Mode); err != nil {
		c.Calendar.Mode = defaultMode
	}
	c.Calendar.Mode = strings.ToLower(strings.TrimSpace(c.Calendar.Mode))

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CalendarSettings converts the textual calendar section into a
// calendar.Config. Empty fields resolve relative to now: selected date is
// today, start month is the selected month, end month is the start month.
// Range invariants are left to calendar.New.
func (c *Config) CalendarSettings(now time.Time) (calendar.Config, error) {
	out := calendar.DefaultConfig(now.In(c.Location()))
	cc := c.Calendar

	if cc.SelectedDate != "" {
		d, err := model.ParseDate(cc.SelectedDate)
		if err != nil {
			return out, fmt.Errorf("config: selected_date: %w", err)
		}
		out.SelectedDate = d
	}

	out.StartMonth = out.SelectedDate.YearMonth()
	if cc.StartMonth != "" {
		ym, err := model.ParseYearMonth(cc.StartMonth)
		if err != nil {
			return out, fmt.Errorf("config: start_month: %w", err)
		}
		out.StartMonth = ym
	}

	out.EndMonth = out.StartMonth
	if cc.EndMonth != "" {
		ym, err := model.ParseYearMonth(cc.EndMonth)
		if err != nil {
			return out, fmt.Errorf("config: end_month: %w", err)
		}
		out.EndMonth = ym
	}

	if cc.WeekStart != "" {
		wd, err := model.ParseWeekday(cc.WeekStart)
		if err != nil {
			return out, fmt.Errorf("config: week_start: %w", err)
		}
		out.FirstDayOfWeek = wd
	}
	if cc.Mode != "" {
		m, err := model.ParseMode(cc.Mode)
		if err != nil {
			return out, fmt.Errorf("config: mode: %w", err)
		}
		out.Mode = m
	}
	return out, nil
}

// Load reads path, writing DefaultConfig there first (0600, parent
// directories created) if it does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can still run.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save normalizes cfg and writes it to path atomically (temp file + rename)
// with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
