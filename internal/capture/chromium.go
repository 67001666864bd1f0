// Package capture takes PNG screenshots of the calendar page with a headless
// Chromium driven by chromedp.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Viewport defaults fit a six-week month grid.
const (
	DefaultWidth   = 1024
	DefaultHeight  = 768
	DefaultTimeout = 30 * time.Second
)

// ReadySelector matches the page's root element once rendering is done.
const ReadySelector = `[data-ready="true"]`

// Options configures one capture.
type Options struct {
	// URL of the HTML calendar page, e.g. "http://127.0.0.1:8080/calendar".
	URL string

	// Width and Height of the viewport in pixels. Zero means the default.
	Width  int
	Height int

	// Timeout bounds the whole capture. Zero means DefaultTimeout.
	Timeout time.Duration
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	u, err := url.Parse(o.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("capture: invalid URL %q", o.URL)
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("capture: invalid viewport %dx%d", o.Width, o.Height)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// PNG navigates to opts.URL, waits for ReadySelector and returns a full-page
// screenshot.
func PNG(parent context.Context, opts Options) ([]byte, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var buf []byte
	if err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return buf, nil
}

// WritePNG captures opts.URL into path.
func WritePNG(ctx context.Context, opts Options, path string) error {
	if path == "" {
		return errors.New("capture: output path is required")
	}
	buf, err := PNG(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("capture: write %s: %w", path, err)
	}
	return nil
}
