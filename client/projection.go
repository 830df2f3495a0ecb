package client

import (
	"sort"
	"sync"
	"time"

	"github.com/stocktally/stocktally/timeseries"
)

// Entry is the client-side view of an entry document. Quantity is parsed
// at the write boundary, so it is always numeric here.
type Entry struct {
	ID       string    `json:"id"`
	ItemID   string    `json:"item_id"`
	UID      string    `json:"uid"`
	Name     string    `json:"name"`
	Quantity float64   `json:"quantity"`
	Date     time.Time `json:"date"`
}

// Projection is the in-memory item → entries cache the UI reads. Entries
// are held newest first, matching the store's query order. Optimistic
// mutations apply synchronously; an authoritative snapshot replaces an
// item's entries wholesale and always wins over optimistic state.
type Projection struct {
	mu    sync.RWMutex
	items map[string][]Entry
}

// NewProjection constructs an empty projection.
func NewProjection() *Projection {
	return &Projection{items: make(map[string][]Entry)}
}

// ApplyCreate inserts an entry into its item's sequence, keeping newest
// first order.
func (p *Projection) ApplyCreate(entry Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := append(p.items[entry.ItemID], entry)
	sortNewestFirst(list)
	p.items[entry.ItemID] = list
}

// ApplyUpdate replaces the entry matched by id. Reports whether the id
// was present.
func (p *Projection) ApplyUpdate(entry Entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.items[entry.ItemID]
	for i := range list {
		if list[i].ID == entry.ID {
			list[i] = entry
			sortNewestFirst(list)
			return true
		}
	}
	return false
}

// Remove deletes the entry by id, returning the removed copy so callers
// can roll the removal back.
func (p *Projection) Remove(itemID, entryID string) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.items[itemID]
	for i := range list {
		if list[i].ID == entryID {
			removed := list[i]
			p.items[itemID] = append(list[:i:i], list[i+1:]...)
			return removed, true
		}
	}
	return Entry{}, false
}

// Get returns the entry by id.
func (p *Projection) Get(itemID, entryID string) (Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, e := range p.items[itemID] {
		if e.ID == entryID {
			return e, true
		}
	}
	return Entry{}, false
}

// ApplySnapshot replaces the item's entries with the authoritative set.
func (p *Projection) ApplySnapshot(itemID string, entries []Entry) {
	list := make([]Entry, len(entries))
	copy(list, entries)
	sortNewestFirst(list)

	p.mu.Lock()
	p.items[itemID] = list
	p.mu.Unlock()
}

// Entries returns a copy of the item's sequence, newest first. Never nil.
func (p *Projection) Entries(itemID string) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, len(p.items[itemID]))
	copy(out, p.items[itemID])
	return out
}

// Series derives the chart series for one of the named windows from the
// item's current entries.
func (p *Projection) Series(itemID, window string) (timeseries.Series, bool) {
	size := timeseries.WindowSize(window)
	if size == 0 {
		return timeseries.Series{}, false
	}
	points := make([]timeseries.Point, 0)
	for _, e := range p.Entries(itemID) {
		points = append(points, timeseries.Point{Date: e.Date, Quantity: timeseries.QuantityOf(e.Quantity)})
	}
	chronological := timeseries.Reversed(points)
	return timeseries.ToSeries(timeseries.Window(chronological, size)), true
}

func sortNewestFirst(list []Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.After(list[j].Date)
	})
}
