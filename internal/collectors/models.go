package collectors

import (
	"context"
	"time"
)

// Provider identifies the odds feed an event came from.
type Provider string

const (
	ProviderOddsAPI Provider = "oddsapi"
)

// FetchOptions control which events a collector returns per run.
type FetchOptions struct {
	// TodayOnly keeps events whose commence time falls on the current
	// US Eastern calendar day.
	TodayOnly bool
	// MaxEvents caps the number of events fetched with odds; 0 means no cap.
	MaxEvents int
}

// Collector is implemented by odds-feed collectors. Each collector fetches
// upcoming events with their bookmaker odds and reports the request quota it
// spent doing so.
type Collector interface {
	Name() string
	Fetch(ctx context.Context, opts FetchOptions) ([]Event, Usage, error)
}

// Usage accounts for metered provider requests. Callers own their totals and
// fold each fetch's usage in with Add.
type Usage struct {
	Calls     int `json:"calls"`
	Cost      int `json:"cost"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Add folds other into u. Used and Remaining are account-level readings, so
// the most recent non-empty one wins.
func (u *Usage) Add(other Usage) {
	u.Calls += other.Calls
	u.Cost += other.Cost
	if other.Used > 0 || other.Remaining > 0 {
		u.Used = other.Used
		u.Remaining = other.Remaining
	}
}

// Event is one fixture with every bookmaker's prop markets.
type Event struct {
	Provider     Provider    `json:"provider"`
	EventID      string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Name renders the fixture as "away @ home".
func (e Event) Name() string {
	return e.AwayTeam + " @ " + e.HomeTeam
}

// Bookmaker returns the block for key, if present.
func (e Event) Bookmaker(key string) (Bookmaker, bool) {
	for _, b := range e.Bookmakers {
		if b.Key == key {
			return b, true
		}
	}
	return Bookmaker{}, false
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market returns the market for key, if the bookmaker offers it.
func (b Bookmaker) Market(key string) (Market, bool) {
	for _, m := range b.Markets {
		if m.Key == key {
			return m, true
		}
	}
	return Market{}, false
}

type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is a raw provider outcome. Name is the side label (Over, Under,
// Yes, No) and Description the player.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}
