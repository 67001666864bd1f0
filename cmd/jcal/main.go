package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"jcal/internal/calendar"
	"jcal/internal/capture"
	"jcal/internal/config"
	"jcal/internal/ics"
	appLog "jcal/internal/log"
	"jcal/internal/model"
	"jcal/internal/snapshot"
	"jcal/internal/web"
)

type flagConfig struct {
	configPath   string
	listen       string
	snapshotPath string
	pngPath      string
	once         bool
	fresh        bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.snapshotPath != "" {
		conf.SnapshotPath = flags.snapshotPath
	}
	if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(lvl)
	} else {
		appLog.Warn("unknown log level, using INFO", "log_level", conf.LogLevel)
	}

	appLog.Info("jcal starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"snapshot_path", conf.SnapshotPath,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	state, err := buildState(conf, flags.fresh)
	if err != nil {
		appLog.Error("failed to build calendar", err)
		os.Exit(1)
	}

	state.OnDateSelected(func(d model.Date) {
		appLog.Info("date selected", "date", d)
		persist(conf.SnapshotPath, state)
	})
	state.OnMonthChanged(func(ym model.YearMonth) {
		appLog.Info("visible month changed", "month", ym)
	})

	overlay := ics.NewOverlay(ics.NewFetcher(filepath.Join(conf.CacheDir, "ics"), nil), sourcesFromConfig(conf))
	window := ics.WindowFor(state.Months(), conf.Location())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.once {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := overlay.Refresh(refreshCtx, window); err != nil {
			appLog.Error("overlay refresh failed", err)
		}
		refreshCancel()

		if err := renderText(os.Stdout, state, state.ScrollPosition(), overlay.Index()); err != nil {
			appLog.Error("render failed", err)
			os.Exit(1)
		}
		if flags.pngPath != "" {
			if err := capturePage(ctx, conf, state, overlay, flags.pngPath); err != nil {
				appLog.Error("png capture failed", err, "png", flags.pngPath)
				os.Exit(1)
			}
			appLog.Info("png written", "png", flags.pngPath)
		}
		persist(conf.SnapshotPath, state)
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if err := overlay.Refresh(ctx, window); err != nil {
			appLog.Error("scheduled overlay refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	go func() {
		if err := overlay.Refresh(ctx, window); err != nil {
			appLog.Error("initial overlay refresh failed", err)
		}
	}()
	sched.Start()

	srv := web.NewServer(conf, state, overlay)
	if err := srv.Run(ctx); err != nil {
		appLog.Error("http server stopped", err)
	}

	<-sched.Stop().Done()
	appLog.Info("jcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/jcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.snapshotPath, "snapshot", "", "Session snapshot path (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print the visible calendar page and exit")
	flag.StringVar(&cfg.pngPath, "png", "", "With -once, also write a PNG screenshot of the visible page")
	flag.BoolVar(&cfg.fresh, "fresh", false, "Ignore any saved session snapshot")

	flag.Parse()

	return cfg
}

// buildState restores the saved session when one exists and is usable,
// falling back to the configured calendar otherwise.
func buildState(conf *config.Config, fresh bool) (*calendar.State, error) {
	if conf.SnapshotPath != "" && !fresh {
		st, err := restore(conf.SnapshotPath)
		switch {
		case err == nil:
			appLog.Info("session restored", "snapshot_path", conf.SnapshotPath, "selected", st.SelectedDate())
			return st, nil
		case errors.Is(err, fs.ErrNotExist):
		default:
			appLog.Warn("discarding session snapshot", "snapshot_path", conf.SnapshotPath, "cause", err)
		}
	}

	cfg, err := conf.CalendarSettings(time.Now())
	if err != nil {
		return nil, err
	}
	return calendar.New(cfg)
}

// capturePage serves the HTML page on a loopback port for the duration of
// one screenshot.
func capturePage(ctx context.Context, conf *config.Config, st *calendar.State, overlay *ics.Overlay, path string) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	local := *conf
	local.Listen = ln.Addr().String()
	local.BasicAuth = nil

	srv := &http.Server{
		Handler:           web.NewServer(&local, st, overlay).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	return capture.WritePNG(ctx, capture.Options{URL: "http://" + local.Listen + "/calendar"}, path)
}

func restore(path string) (*calendar.State, error) {
	fields, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	return snapshot.Restore(fields)
}

func persist(path string, st *calendar.State) {
	if path == "" {
		return
	}
	if err := snapshot.Save(path, snapshot.Encode(st)); err != nil {
		appLog.Error("failed to save session snapshot", err, "snapshot_path", path)
	}
}

func sourcesFromConfig(conf *config.Config) []ics.Source {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL})
	}
	return sources
}
