// Package projections turns the reference book's latest player lines into
// PPR fantasy point projections.
package projections

import (
	"sort"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/oddsmath"
)

const anytimeTD = "player_anytime_td"

// Weights maps a market key to fantasy points per projected unit.
type Weights map[string]float64

// PPR is full point per reception scoring.
var PPR = Weights{
	"player_pass_yds":           1.0 / 25,
	"player_pass_tds":           4,
	"player_pass_interceptions": -2,
	"player_reception_yds":      1.0 / 10,
	"player_receptions":         1,
	"player_rush_yds":           1.0 / 10,
	anytimeTD:                   6,
	"player_kicking_points":     1,
}

// Markets lists the market keys w scores, sorted.
func (w Weights) Markets() []string {
	out := make([]string, 0, len(w))
	for k := range w {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type PlayerProjection struct {
	EventID       string             `json:"event_id"`
	EventName     string             `json:"event"`
	Player        string             `json:"player"`
	FantasyPoints float64            `json:"projected_fantasy_points"`
	Markets       map[string]float64 `json:"markets"`
}

type marketSides struct {
	over, under, yes *baseline.Record
}

type playerKey struct {
	eventID string
	player  string
}

// Project scores every player with a usable line. Over/Under markets use the
// de-vigged projected value around the Over point; anytime TD uses the
// implied probability of Yes. Results are sorted by points, highest first.
func Project(records []baseline.Record, weights Weights) []PlayerProjection {
	sides := make(map[playerKey]map[string]*marketSides)
	names := make(map[playerKey]string)
	var order []playerKey

	for i := range records {
		r := &records[i]
		if _, ok := weights[r.Key.MarketKey]; !ok {
			continue
		}
		pk := playerKey{eventID: r.Key.EventID, player: r.Key.Player}
		if _, ok := sides[pk]; !ok {
			sides[pk] = make(map[string]*marketSides)
			names[pk] = r.EventName
			order = append(order, pk)
		}
		ms := sides[pk][r.Key.MarketKey]
		if ms == nil {
			ms = &marketSides{}
			sides[pk][r.Key.MarketKey] = ms
		}
		switch models.OutcomeLabel(r.Key.Outcome) {
		case models.OutcomeOver:
			ms.over = r
		case models.OutcomeUnder:
			ms.under = r
		case models.OutcomeYes:
			ms.yes = r
		}
	}

	out := make([]PlayerProjection, 0, len(order))
	for _, pk := range order {
		p := PlayerProjection{EventID: pk.eventID, EventName: names[pk], Player: pk.player, Markets: map[string]float64{}}
		for _, market := range weights.Markets() {
			ms, ok := sides[pk][market]
			if !ok {
				continue
			}
			v, ok := project(market, ms)
			if !ok {
				continue
			}
			p.Markets[market] = v
			p.FantasyPoints += v * weights[market]
		}
		if len(p.Markets) == 0 {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FantasyPoints > out[j].FantasyPoints
	})
	return out
}

func project(market string, ms *marketSides) (float64, bool) {
	if market == anytimeTD {
		if ms.yes == nil {
			return 0, false
		}
		p, err := oddsmath.ImpliedProbability(ms.yes.Odds)
		if err != nil {
			logging.Debugf("[projections] %s %s: %v", ms.yes.Key.Player, market, err)
			return 0, false
		}
		return p, true
	}
	if ms.over == nil || ms.under == nil || ms.over.Point == nil {
		return 0, false
	}
	v, err := oddsmath.ProjectedValue(ms.over.Odds, ms.under.Odds, *ms.over.Point)
	if err != nil {
		logging.Debugf("[projections] %s %s: %v", ms.over.Key.Player, market, err)
		return 0, false
	}
	return v, true
}
