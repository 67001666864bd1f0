package ics

import (
	"context"
	"errors"
	"sync"
	"time"

	appLog "jcal/internal/log"
	"jcal/internal/model"
)

// Index groups occurrences by the calendar dates they touch.
type Index struct {
	byDate map[model.Date][]model.Occurrence
	total  int
}

// NewIndex buckets occs per date. A multi-day occurrence is listed under
// every date it covers.
func NewIndex(occs []model.Occurrence) *Index {
	ix := &Index{byDate: make(map[model.Date][]model.Occurrence), total: len(occs)}
	for _, o := range occs {
		for _, d := range o.Dates() {
			ix.byDate[d] = append(ix.byDate[d], o)
		}
	}
	return ix
}

// On returns the occurrences touching d in start order.
func (ix *Index) On(d model.Date) []model.Occurrence {
	if ix == nil {
		return nil
	}
	return ix.byDate[d]
}

func (ix *Index) Count(d model.Date) int {
	return len(ix.On(d))
}

// Len is the number of distinct occurrences indexed.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.total
}

// WindowFor returns the window spanning every cell of months, padding
// included.
func WindowFor(months []model.Month, loc *time.Location) Window {
	w := Window{Location: loc}
	if len(months) == 0 {
		return w
	}
	first, last := months[0], months[len(months)-1]
	w.First = first.Weeks[0].FirstDate()
	w.Last = last.Weeks[len(last.Weeks)-1].LastDate()
	return w
}

// Overlay keeps the latest event index for a set of sources. Refresh may run
// from a scheduler while readers call Index.
type Overlay struct {
	fetcher *Fetcher
	sources []Source

	mu        sync.RWMutex
	index     *Index
	updatedAt time.Time
}

func NewOverlay(fetcher *Fetcher, sources []Source) *Overlay {
	return &Overlay{
		fetcher: fetcher,
		sources: sources,
		index:   NewIndex(nil),
	}
}

// Index returns the current index; it is never nil.
func (o *Overlay) Index() *Index {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.index
}

func (o *Overlay) UpdatedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updatedAt
}

// Refresh fetches, parses and expands all sources for w and swaps in the new
// index. Per-source failures are joined into the returned error but do not
// prevent the other sources from being indexed.
func (o *Overlay) Refresh(ctx context.Context, w Window) error {
	if len(o.sources) == 0 {
		return nil
	}

	feeds, errs := o.fetcher.FetchAll(ctx, o.sources)

	var events []Event
	for _, f := range feeds {
		evs, err := ParseICS(f.Source, f.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", f.Source.ID)
			errs = append(errs, err)
			continue
		}
		events = append(events, evs...)
	}

	exp, err := Expand(events, w)
	if err != nil {
		return err
	}

	ix := NewIndex(exp.Occurrences)
	o.mu.Lock()
	o.index = ix
	o.updatedAt = time.Now()
	o.mu.Unlock()

	appLog.Info("ics overlay refreshed",
		"sources", len(o.sources),
		"feeds", len(feeds),
		"occurrences", ix.Len(),
		"from", w.First,
		"to", w.Last,
	)
	return errors.Join(errs...)
}
