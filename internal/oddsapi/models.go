package oddsapi

import (
	"math"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
)

// EventSummary is a scheduled event without odds.
type EventSummary struct {
	ID           string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
}

func (s EventSummary) Name() string {
	return s.AwayTeam + " @ " + s.HomeTeam
}

// FilterUpcoming keeps events that commence after now. With todayOnly, they
// must also fall on now's US Eastern calendar day.
func FilterUpcoming(events []EventSummary, now time.Time, todayOnly bool) []EventSummary {
	now = now.In(baseline.Eastern)
	y, m, d := now.Date()
	out := make([]EventSummary, 0, len(events))
	for _, e := range events {
		if !e.CommenceTime.After(now) {
			continue
		}
		if todayOnly {
			ey, em, ed := e.CommenceTime.In(baseline.Eastern).Date()
			if ey != y || em != m || ed != d {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key        string       `json:"key"`
	LastUpdate time.Time    `json:"last_update"`
	Outcomes   []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}

func (e apiEvent) summary() EventSummary {
	return EventSummary{
		ID:           e.ID,
		SportKey:     e.SportKey,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		CommenceTime: e.CommenceTime,
	}
}

func (e apiEvent) normalize() collectors.Event {
	ev := collectors.Event{
		Provider:     collectors.ProviderOddsAPI,
		EventID:      e.ID,
		SportKey:     e.SportKey,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		CommenceTime: e.CommenceTime,
	}
	for _, b := range e.Bookmakers {
		book := collectors.Bookmaker{Key: b.Key, Title: b.Title}
		for _, m := range b.Markets {
			updated := m.LastUpdate
			if updated.IsZero() {
				updated = b.LastUpdate
			}
			market := collectors.Market{Key: m.Key, LastUpdate: updated}
			for _, o := range m.Outcomes {
				market.Outcomes = append(market.Outcomes, collectors.Outcome{
					Name:        o.Name,
					Description: o.Description,
					Price:       int(math.Round(o.Price)),
					Point:       o.Point,
				})
			}
			book.Markets = append(book.Markets, market)
		}
		ev.Bookmakers = append(ev.Bookmakers, book)
	}
	return ev
}
