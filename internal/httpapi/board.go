package httpapi

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/models"
)

type boardEntry struct {
	RunID        string
	CommenceTime time.Time
	UpdatedAt    time.Time
	Result       lines.Result
}

// Board keeps the latest scan result per event and serves them merged.
type Board struct {
	mu      sync.RWMutex
	events  map[string]boardEntry
	usage   collectors.Usage
	updated time.Time
	now     func() time.Time
}

func NewBoard() *Board {
	return &Board{events: make(map[string]boardEntry), now: baseline.Now}
}

// Accept replaces the event's previous result.
func (b *Board) Accept(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[snap.Event.EventID] = boardEntry{
		RunID:        snap.RunID,
		CommenceTime: snap.Event.CommenceTime,
		UpdatedAt:    now,
		Result:       res,
	}
	b.updated = now
	return nil
}

// RecordUsage folds one pass's quota spend into the running total.
func (b *Board) RecordUsage(u collectors.Usage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage.Add(u)
}

func (b *Board) Usage() collectors.Usage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage
}

// Prune drops events that have commenced and reports how many went.
func (b *Board) Prune() int {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for id, e := range b.events {
		if !e.CommenceTime.IsZero() && !e.CommenceTime.After(now) {
			delete(b.events, id)
			removed++
		}
	}
	return removed
}

// Slate merges every event's result into one ranked result.
func (b *Board) Slate() lines.Result {
	b.mu.RLock()
	ids := make([]string, 0, len(b.events))
	for id := range b.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	results := make([]lines.Result, 0, len(ids))
	for _, id := range ids {
		results = append(results, b.events[id].Result)
	}
	b.mu.RUnlock()
	return lines.Merge(results...)
}

func (b *Board) Event(eventID string) (lines.Result, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.events[eventID]
	return e.Result, ok
}

// Stats summarises the board for health checks.
func (b *Board) Stats() (events int, updated time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events), b.updated
}
