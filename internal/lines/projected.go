package lines

import (
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/oddsmath"
)

type pricedQuote struct {
	models.OutcomeQuote
	Projected *float64
}

// withProjections pairs each player's Over and Under and attaches the
// de-vigged projection to both sides. Quotes without a complete pair keep a
// nil projection.
func withProjections(quotes []models.OutcomeQuote) []pricedQuote {
	out := make([]pricedQuote, len(quotes))
	type pair struct{ over, under int }
	pairs := make(map[string]*pair)
	order := make([]string, 0)
	for i, q := range quotes {
		out[i] = pricedQuote{OutcomeQuote: q}
		if q.Label != models.OutcomeOver && q.Label != models.OutcomeUnder {
			continue
		}
		p, ok := pairs[q.Player]
		if !ok {
			p = &pair{over: -1, under: -1}
			pairs[q.Player] = p
			order = append(order, q.Player)
		}
		if q.Label == models.OutcomeOver && p.over < 0 {
			p.over = i
		}
		if q.Label == models.OutcomeUnder && p.under < 0 {
			p.under = i
		}
	}

	for _, player := range order {
		p := pairs[player]
		if p.over < 0 || p.under < 0 || quotes[p.over].Point == nil {
			continue
		}
		pv, err := oddsmath.ProjectedValue(quotes[p.over].Odds, quotes[p.under].Odds, *quotes[p.over].Point)
		if err != nil {
			continue
		}
		out[p.over].Projected = &pv
		under := pv
		out[p.under].Projected = &under
	}
	return out
}
