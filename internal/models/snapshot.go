package models

import (
	"time"

	"github.com/hetulpatel/PropLines/internal/collectors"
)

// EventSnapshot is the payload placed on the events topic: one fixture with
// all bookmaker odds, stamped with the scan pass it belongs to.
type EventSnapshot struct {
	RunID      string              `json:"run_id"`
	Provider   collectors.Provider `json:"provider"`
	Event      collectors.Event    `json:"event"`
	CapturedAt time.Time           `json:"captured_at"`
}

func NewSnapshot(runID string, ev collectors.Event, capturedAt time.Time) EventSnapshot {
	return EventSnapshot{
		RunID:      runID,
		Provider:   ev.Provider,
		Event:      ev,
		CapturedAt: capturedAt,
	}
}
