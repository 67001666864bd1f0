package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "jcal/internal/log"
)

// Source is a single ICS subscription.
type Source struct {
	ID  string
	URL string
}

// Feed is the body of one source, fresh or from the disk cache.
type Feed struct {
	Source    Source
	Body      []byte
	FromCache bool
}

// validators are the HTTP cache validators stored next to a cached body.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Fetcher downloads ICS feeds with conditional requests and keeps the last
// good body on disk so a flaky network still yields events.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher returns a Fetcher caching under cacheDir. An empty cacheDir
// uses ./cache/ics.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./cache/ics"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// FetchAll fetches every source. Failed sources are logged, skipped and
// returned as errors; the other feeds are still returned.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]Feed, []error) {
	feeds := make([]Feed, 0, len(sources))
	var errs []error
	for _, src := range sources {
		feed, err := f.Fetch(ctx, src)
		if err != nil {
			appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			errs = append(errs, fmt.Errorf("ics: %s: %w", src.ID, err))
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds, errs
}

// Fetch downloads one source. A 304 or a failed request falls back to the
// cached body when one exists.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (Feed, error) {
	if src.URL == "" {
		return Feed{}, errors.New("source URL is empty")
	}

	dir := f.entryDir(src.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Feed{}, err
	}
	meta := f.readValidators(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	fallback := func(cause error) (Feed, error) {
		if len(cached) == 0 {
			return Feed{}, cause
		}
		appLog.Warn("ics fetch degraded, using cached body", "id", src.ID, "url", redactURL(src.URL), "cause", cause)
		return Feed{Source: src, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Feed{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		meta = validators{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			FetchedAt:    time.Now().UTC(),
		}
		if err := f.store(dir, meta, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", src.ID)
		}
		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return Feed{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return Feed{}, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("ics feed not modified", "id", src.ID)
		return Feed{Source: src, Body: cached, FromCache: true}, nil

	default:
		return fallback(errors.New(resp.Status))
	}
}

func (f *Fetcher) entryDir(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) readValidators(dir string) validators {
	var v validators
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return v
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return validators{}
	}
	return v
}

// store writes the body before the validators so meta never refers to a
// missing body.
func (f *Fetcher) store(dir string, meta validators, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host; subscription URLs often embed tokens.
func redactURL(u string) string {
	const suffix = "/...(redacted)"
	i := 0
	for ; i+3 <= len(u); i++ {
		if u[i:i+3] == "://" {
			break
		}
	}
	if i+3 > len(u) {
		return "ics://...(redacted)"
	}
	j := i + 3
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + suffix
}
