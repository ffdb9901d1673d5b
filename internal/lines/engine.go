package lines

import (
	"context"
	"errors"
	"fmt"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/oddsmath"
)

const (
	DefaultReferenceBook          = "pinnacle"
	DefaultBinaryMinProbDelta     = 0.01
	DefaultBinaryMaxReferenceOdds = 300
)

// Config tunes the comparison against the reference book.
type Config struct {
	ReferenceBook string
	// BinaryMinProbDelta is the de-vig edge a point-less line needs.
	BinaryMinProbDelta float64
	// BinaryMaxReferenceOdds filters long shots out of point-less lines.
	BinaryMaxReferenceOdds int
}

// WithDefaults fills unset fields with the package defaults. Zero counts as
// unset; config.Validate rejects an explicit zero.
func (c Config) WithDefaults() Config {
	if c.ReferenceBook == "" {
		c.ReferenceBook = DefaultReferenceBook
	}
	if c.BinaryMinProbDelta == 0 {
		c.BinaryMinProbDelta = DefaultBinaryMinProbDelta
	}
	if c.BinaryMaxReferenceOdds == 0 {
		c.BinaryMaxReferenceOdds = DefaultBinaryMaxReferenceOdds
	}
	return c
}

// Result is the ranked output for one event (or a merged slate).
type Result struct {
	EventID         string               `json:"event_id,omitempty"`
	DifferentPoints []models.ResultEntry `json:"different_points"`
	SamePoints      []models.ResultEntry `json:"same_points"`
	Compared        int                  `json:"compared"`
	Skipped         int                  `json:"skipped"`
	Untradable      bool                 `json:"untradable,omitempty"`
	Reason          string               `json:"reason,omitempty"`
}

// Entries returns both buckets, different points first.
func (r Result) Entries() []models.ResultEntry {
	out := make([]models.ResultEntry, 0, len(r.DifferentPoints)+len(r.SamePoints))
	out = append(out, r.DifferentPoints...)
	return append(out, r.SamePoints...)
}

// Evaluate compares every non-reference bookmaker quote of ev with the
// reference book and the stored baselines, and returns the two ranked buckets.
// Missing reference data is not an error; baseline read failures other than
// baseline.ErrNotFound are.
func Evaluate(ctx context.Context, ev collectors.Event, baselines baseline.Reader, cfg Config) (Result, error) {
	cfg = cfg.WithDefaults()
	res := Result{EventID: ev.EventID}

	ref, ok := ev.Bookmaker(cfg.ReferenceBook)
	if !ok {
		res.Untradable = true
		res.Reason = fmt.Sprintf("reference book %s not offered", cfg.ReferenceBook)
		return res, nil
	}

	refMarkets := make(map[string][]pricedQuote, len(ref.Markets))
	for _, m := range ref.Markets {
		refMarkets[m.Key] = withProjections(marketQuotes(ref, m))
	}

	lookups := make(map[baseline.Key]*baseline.Record)
	earliest := func(key baseline.Key) (*baseline.Record, error) {
		if rec, ok := lookups[key]; ok {
			return rec, nil
		}
		rec, err := baselines.Earliest(ctx, key)
		if errors.Is(err, baseline.ErrNotFound) {
			lookups[key] = nil
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		lookups[key] = &rec
		return &rec, nil
	}

	for _, b := range ev.Bookmakers {
		if b.Key == cfg.ReferenceBook {
			continue
		}
		for _, m := range b.Markets {
			refQuotes, ok := refMarkets[m.Key]
			if !ok {
				continue
			}
			label := MarketLabel(m.Key)
			for _, cur := range withProjections(marketQuotes(b, m)) {
				refQuote, ok := matchQuote(refQuotes, cur)
				if !ok {
					continue
				}

				var rec *baseline.Record
				if cur.Label.Tracked() && baselines != nil {
					key := baseline.Key{EventID: ev.EventID, MarketKey: m.Key, Outcome: string(cur.Label), Player: cur.Player}
					var err error
					if rec, err = earliest(key); err != nil {
						return Result{}, fmt.Errorf("baseline for %s: %w", key, err)
					}
				}

				entry, err := compare(ev, cur, refQuote, label, rec, cfg)
				if errors.Is(err, oddsmath.ErrInvalidOdds) {
					logging.Debugf("[lines] skip %s %s %s at %s: %v", ev.EventID, cur.Player, cur.Label, b.Key, err)
					res.Skipped++
					continue
				}
				if err != nil {
					return Result{}, err
				}
				res.Compared++

				switch entry.Bucket {
				case models.BucketDifferentPoints:
					res.DifferentPoints = append(res.DifferentPoints, entry)
				case models.BucketSamePoints:
					res.SamePoints = append(res.SamePoints, entry)
				}
			}
		}
	}

	Rank(res.DifferentPoints)
	Rank(res.SamePoints)
	return res, nil
}

// compare builds the classified entry for one quote against its reference quote.
func compare(ev collectors.Event, cur, ref pricedQuote, label string, earliest *baseline.Record, cfg Config) (models.ResultEntry, error) {
	refProb, err := oddsmath.ImpliedProbability(ref.Odds)
	if err != nil {
		return models.ResultEntry{}, err
	}
	curProb, err := oddsmath.ImpliedProbability(cur.Odds)
	if err != nil {
		return models.ResultEntry{}, err
	}
	probDelta := refProb - curProb
	pd := pointDelta(cur.Label, cur.Point, ref.Point)
	mv := baselineMovement(ref.OutcomeQuote, refProb, earliest)

	entry := models.ResultEntry{
		EventID:                 ev.EventID,
		EventName:               ev.Name(),
		CommenceTime:            ev.CommenceTime.In(baseline.Eastern),
		BookmakerKey:            cur.BookmakerKey,
		Source:                  cur.BookmakerTitle,
		Player:                  cur.Player,
		Outcome:                 cur.Label,
		MarketKey:               cur.MarketKey,
		MarketLabel:             label,
		Point:                   cur.Point,
		Odds:                    cur.Odds,
		ReferencePoint:          ref.Point,
		ReferenceOdds:           ref.Odds,
		ReferenceLine:           referenceLine(cur.OutcomeQuote, ref.OutcomeQuote),
		ProbDelta:               probDelta,
		PointDelta:              pd,
		Favorable:               mv.Favorable,
		ProjectedValue:          cur.Projected,
		ReferenceProjectedValue: ref.Projected,
		PointMove:               mv.PointMove,
		OddsMove:                mv.OddsMove,
		AbsPointMove:            absPtr(mv.PointMove),
		AbsOddsMove:             absPtr(mv.OddsMove),
	}
	if cur.Projected != nil && ref.Projected != nil {
		d := *ref.Projected - *cur.Projected
		entry.ProjectedValueDelta = &d
		entry.AbsProjectedDelta = absPtr(&d)
	}

	var rankDelta float64
	if pd != nil {
		rankDelta = *pd
	}
	entry.Bucket = route(routeInput{
		Label:          cur.Label,
		Point:          cur.Point,
		ReferencePoint: ref.Point,
		ReferenceOdds:  ref.Odds,
		ReferenceProb:  refProb,
		ProbDelta:      probDelta,
		PointDelta:     rankDelta,
	}, cfg)
	return entry, nil
}

// marketQuotes validates the raw outcomes of one bookmaker market. Outcomes
// with labels outside Over/Under/Yes/No are dropped.
func marketQuotes(b collectors.Bookmaker, m collectors.Market) []models.OutcomeQuote {
	out := make([]models.OutcomeQuote, 0, len(m.Outcomes))
	for _, o := range m.Outcomes {
		q, err := models.NewOutcomeQuote(b, m, o)
		if err != nil {
			logging.Debugf("[lines] %s %s: %v", b.Key, m.Key, err)
			continue
		}
		out = append(out, q)
	}
	return out
}

func matchQuote(quotes []pricedQuote, cur pricedQuote) (pricedQuote, bool) {
	for _, q := range quotes {
		if q.Matches(cur.OutcomeQuote) {
			return q, true
		}
	}
	return pricedQuote{}, false
}
