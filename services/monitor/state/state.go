// Package state is the dedup and run-gate core of the monitor: it
// turns a freshly scraped snapshot of the actions listing into the
// subset that hasn't been handled before, and remembers what was
// handled across runs through a small persisted blob.
package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"eomonitor/lib/scrapers/whitehouse"
)

const Version = "1.0"

// History tracks which order ids have been archived and which have
// been announced. The two collections are sets: marking the same id
// twice is a no-op.
type History struct {
	LastCheck     string
	LastOrderDate string

	processed map[string]struct{}
	posted    map[string]struct{}
}

// persisted wire layout. The sets serialize as plain string lists
// for compatibility with earlier versions of the blob.
type persistedHistory struct {
	LastCheck       string   `json:"last_check"`
	ProcessedOrders []string `json:"processed_orders"`
	PostedToBluesky []string `json:"posted_to_bluesky"`
	LastOrderDate   string   `json:"last_order_date"`
	Version         string   `json:"version"`
}

func NewHistory() *History {
	return &History{
		processed: map[string]struct{}{},
		posted:    map[string]struct{}{},
	}
}

func (h *History) IsProcessed(id string) bool {
	_, ok := h.processed[id]
	return ok
}

func (h *History) MarkProcessed(id string) {
	h.processed[id] = struct{}{}
}

func (h *History) IsPosted(id string) bool {
	_, ok := h.posted[id]
	return ok
}

func (h *History) MarkPosted(id string) {
	h.posted[id] = struct{}{}
}

func (h *History) SetLastOrderDate(dateStr string) {
	h.LastOrderDate = dateStr
}

// SelectNew returns the candidates whose id is not yet in the
// processed set, newest first. The sort key is the raw scraped date
// text compared lexicographically, not a parsed date: consistent
// formats sort chronologically, mixed formats degrade to a stable
// but arbitrary order, and a missing date sorts last. The receiver
// is not mutated; calling this twice on the same inputs gives the
// same answer.
func (h *History) SelectNew(candidates []whitehouse.Order) []whitehouse.Order {
	var fresh []whitehouse.Order
	for _, c := range candidates {
		if !h.IsProcessed(c.Id) {
			fresh = append(fresh, c)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].DateStr > fresh[j].DateStr
	})
	return fresh
}

// last_check timestamps written by older versions of the blob carry
// no timezone suffix; those are taken as UTC.
var lastCheckLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseLastCheck(s string) (time.Time, bool) {
	for _, layout := range lastCheckLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ShouldSkip reports whether a run arriving at `now` is too soon
// after the previous completed run. No recorded or unparseable
// last check fails open: the run proceeds.
func (h *History) ShouldSkip(now time.Time, intervalHours int) bool {
	if h.LastCheck == "" {
		return false
	}
	last, ok := parseLastCheck(h.LastCheck)
	if !ok {
		slog.Warn("unparseable last_check in history, not skipping", "last_check", h.LastCheck)
		return false
	}
	return now.UTC().Sub(last) < time.Duration(intervalHours)*time.Hour
}

type Stats struct {
	TotalProcessed int
	TotalPosted    int
	LastCheck      string
	LastOrderDate  string
}

func (h *History) Stats() Stats {
	return Stats{
		TotalProcessed: len(h.processed),
		TotalPosted:    len(h.posted),
		LastCheck:      h.LastCheck,
		LastOrderDate:  h.LastOrderDate,
	}
}

// Load reads history out of a store. A store without state yet, a
// corrupt blob or a blob from an older narrower schema all come back
// as a usable History with whatever fields could be recovered; a
// load never fails the run.
func Load(ctx context.Context, store Store) *History {
	h := NewHistory()

	blob, err := store.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load history, starting fresh", "err", err)
		return h
	}
	if len(blob) == 0 {
		return h
	}

	var p persistedHistory
	err = json.Unmarshal(blob, &p)
	if err != nil {
		slog.ErrorContext(ctx, "corrupt history blob, starting fresh", "err", err)
		return h
	}

	h.LastCheck = p.LastCheck
	h.LastOrderDate = p.LastOrderDate
	for _, id := range p.ProcessedOrders {
		h.processed[id] = struct{}{}
	}
	for _, id := range p.PostedToBluesky {
		h.posted[id] = struct{}{}
	}
	return h
}

// Save stamps last_check with `now` and writes the history back.
// A write failure is returned to the caller: losing the history
// would reprocess and re-announce everything on the next run, so
// the run must fail loudly instead.
func Save(ctx context.Context, store Store, h *History, now time.Time) error {
	h.LastCheck = now.UTC().Format(time.RFC3339)

	p := persistedHistory{
		LastCheck:       h.LastCheck,
		ProcessedOrders: sortedIds(h.processed),
		PostedToBluesky: sortedIds(h.posted),
		LastOrderDate:   h.LastOrderDate,
		Version:         Version,
	}
	blob, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return store.Save(ctx, blob)
}

func sortedIds(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
