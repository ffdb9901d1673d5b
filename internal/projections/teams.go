package projections

import (
	"sort"

	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/oddsmath"
)

// TeamTotalsMarket is the Odds API market carrying per-team point totals.
const TeamTotalsMarket = "team_totals"

type TeamProjection struct {
	EventID         string  `json:"event_id"`
	Team            string  `json:"team"`
	Opponent        string  `json:"opponent"`
	Point           float64 `json:"point_total"`
	OverOdds        int     `json:"over_odds"`
	UnderOdds       int     `json:"under_odds"`
	OverDecimal     float64 `json:"over_decimal"`
	UnderDecimal    float64 `json:"under_decimal"`
	OverProb        float64 `json:"over_prob"`
	UnderProb       float64 `json:"under_prob"`
	ProjectedPoints float64 `json:"projected_points"`
}

type teamSides struct {
	over, under *collectors.Outcome
}

// TeamTotals projects each team's points from the reference book's team
// totals. Probabilities are the de-vigged inverse decimal prices; the
// projection shifts the Over point half a point toward the favoured side.
// Teams missing either side or a point are left out. Results are sorted by
// projected points, highest first.
func TeamTotals(events []collectors.Event, referenceBook string) []TeamProjection {
	var out []TeamProjection
	for _, ev := range events {
		book, ok := ev.Bookmaker(referenceBook)
		if !ok {
			continue
		}
		market, ok := book.Market(TeamTotalsMarket)
		if !ok {
			continue
		}

		sides := make(map[string]*teamSides)
		var teams []string
		for i := range market.Outcomes {
			o := &market.Outcomes[i]
			label, err := models.ParseOutcomeLabel(o.Name)
			if err != nil {
				continue
			}
			ts := sides[o.Description]
			if ts == nil {
				ts = &teamSides{}
				sides[o.Description] = ts
				teams = append(teams, o.Description)
			}
			switch label {
			case models.OutcomeOver:
				ts.over = o
			case models.OutcomeUnder:
				ts.under = o
			}
		}

		for _, team := range teams {
			p, err := projectTeam(ev, team, sides[team])
			if err != nil {
				logging.Debugf("[projections] %s %s: %v", ev.EventID, team, err)
				continue
			}
			if p != nil {
				out = append(out, *p)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProjectedPoints != out[j].ProjectedPoints {
			return out[i].ProjectedPoints > out[j].ProjectedPoints
		}
		return out[i].Team < out[j].Team
	})
	return out
}

func projectTeam(ev collectors.Event, team string, ts *teamSides) (*TeamProjection, error) {
	if ts.over == nil || ts.under == nil || ts.over.Point == nil {
		return nil, nil
	}
	overDec, err := oddsmath.AmericanToDecimal(ts.over.Price)
	if err != nil {
		return nil, err
	}
	underDec, err := oddsmath.AmericanToDecimal(ts.under.Price)
	if err != nil {
		return nil, err
	}
	projected, err := oddsmath.ProjectedValue(ts.over.Price, ts.under.Price, *ts.over.Point)
	if err != nil {
		return nil, err
	}
	overProb, underProb := oddsmath.RemoveVig(1/overDec, 1/underDec)
	return &TeamProjection{
		EventID:         ev.EventID,
		Team:            team,
		Opponent:        opponent(ev, team),
		Point:           *ts.over.Point,
		OverOdds:        ts.over.Price,
		UnderOdds:       ts.under.Price,
		OverDecimal:     overDec,
		UnderDecimal:    underDec,
		OverProb:        overProb,
		UnderProb:       underProb,
		ProjectedPoints: projected,
	}, nil
}

func opponent(ev collectors.Event, team string) string {
	switch team {
	case ev.HomeTeam:
		return ev.AwayTeam
	case ev.AwayTeam:
		return ev.HomeTeam
	}
	return "Unknown"
}
