// Package baseline defines the earliest-observation contract the line scanner
// compares reference quotes against, and the clock it purges by.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// ErrNotFound is returned when no observation exists for a key.
var ErrNotFound = errors.New("baseline not found")

// Key identifies one tracked side of one player line.
type Key struct {
	EventID   string
	MarketKey string
	Outcome   string
	Player    string
}

func (k Key) String() string {
	return strings.Join([]string{k.EventID, k.MarketKey, k.Outcome, k.Player}, "|")
}

// Observation is a single reference-book reading to record.
type Observation struct {
	Key          Key
	Point        *float64
	Odds         int
	CommenceTime time.Time
	ObservedAt   time.Time
	EventName    string
	SportKey     string
	Bookmaker    string
}

// Record is a stored observation.
type Record struct {
	Key          Key
	Point        *float64
	Odds         int
	CommenceTime time.Time
	ObservedAt   time.Time
	WrittenAt    time.Time
	EventName    string
	SportKey     string
	Bookmaker    string
}

type Reader interface {
	// Earliest returns the oldest retained observation for key, or ErrNotFound.
	Earliest(ctx context.Context, key Key) (Record, error)
}

type Writer interface {
	Upsert(ctx context.Context, obs Observation) error
}

// Tx is a serialized unit of work covering one event scan.
type Tx interface {
	Reader
	Writer
	Commit() error
	Rollback() error
}

// Store is implemented by the SQLite and Postgres backends.
type Store interface {
	Reader
	Writer
	Begin(ctx context.Context, eventID string) (Tx, error)
	PurgeCommenced(ctx context.Context, now time.Time) (int64, error)
	LatestLines(ctx context.Context, bookmaker string, marketKeys []string) ([]Record, error)
	Strategy() Strategy
	Close() error
}

// Strategy picks how "earliest" survives repeated observations of a key.
type Strategy string

const (
	// StrategyHistory appends every observation and keeps the minimum
	// observed-at record as the live baseline, whatever the write order.
	StrategyHistory Strategy = "history"
	// StrategyReadBeforeWrite overwrites the live record on every write; the
	// scanner reads all baselines for an event before writing any of them.
	StrategyReadBeforeWrite Strategy = "read_before_write"
)

func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StrategyHistory:
		return StrategyHistory, nil
	case StrategyReadBeforeWrite:
		return StrategyReadBeforeWrite, nil
	}
	return "", fmt.Errorf("unknown baseline strategy %q", raw)
}

// Eastern is the zone schedules are reported in.
var Eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load %s: %v", name, err))
	}
	return loc
}

// Now is the reference clock for commence-time comparisons.
func Now() time.Time {
	return time.Now().In(Eastern)
}
