package lines

import (
	"fmt"
	"math"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/oddsmath"
)

// Point-line thresholds. Both are compared against a probability delta, which
// never exceeds 1, so these branches are decided by the point delta alone.
const (
	minReferenceProb   = 0.5
	minPointDelta      = 1.0
	pointLineProbDelta = 2.0
	samePointProbDelta = 3.0
)

type routeInput struct {
	Label          models.OutcomeLabel
	Point          *float64
	ReferencePoint *float64
	ReferenceOdds  int
	ReferenceProb  float64
	ProbDelta      float64
	PointDelta     float64
}

// route assigns a compared quote to a result bucket, or BucketNone to drop it.
func route(in routeInput, cfg Config) models.Bucket {
	if in.Point == nil {
		if in.Label != models.OutcomeNo &&
			in.ProbDelta >= cfg.BinaryMinProbDelta &&
			in.ReferenceOdds <= cfg.BinaryMaxReferenceOdds {
			return models.BucketSamePoints
		}
		return models.BucketNone
	}
	if in.ReferencePoint == nil {
		return models.BucketNone
	}

	cur, ref := *in.Point, *in.ReferencePoint
	better := (in.Label == models.OutcomeOver && cur < ref) ||
		(in.Label == models.OutcomeUnder && cur > ref)
	if better && in.ReferenceProb >= minReferenceProb &&
		(math.Abs(in.PointDelta) >= minPointDelta || in.ProbDelta >= pointLineProbDelta) {
		return models.BucketDifferentPoints
	}
	if cur == ref && in.ProbDelta > samePointProbDelta {
		return models.BucketSamePoints
	}
	return models.BucketNone
}

// pointDelta is positive when the quote's number beats the reference number
// for a bettor on that side.
func pointDelta(label models.OutcomeLabel, cur, ref *float64) *float64 {
	if cur == nil || ref == nil {
		return nil
	}
	d := *cur - *ref
	if label == models.OutcomeOver {
		d = *ref - *cur
	}
	return &d
}

type movement struct {
	Favorable models.Favorability
	PointMove *float64
	OddsMove  *float64
}

// baselineMovement compares the reference quote with the earliest record for
// its key. A nil record means no baseline exists yet.
func baselineMovement(ref models.OutcomeQuote, refProb float64, earliest *baseline.Record) movement {
	var mv movement
	if earliest == nil || !ref.Label.Tracked() {
		return mv
	}

	if ref.Point != nil && earliest.Point != nil {
		d := *ref.Point - *earliest.Point
		mv.PointMove = &d
	}
	if p, err := oddsmath.ImpliedProbability(earliest.Odds); err == nil {
		d := refProb - p
		mv.OddsMove = &d
	}

	switch ref.Label {
	case models.OutcomeOver, models.OutcomeUnder:
		if ref.Point == nil || earliest.Point == nil {
			return mv
		}
		cur, first := *ref.Point, *earliest.Point
		moved := cur > first
		if ref.Label == models.OutcomeUnder {
			moved = cur < first
		}
		mv.Favorable = flag(moved || (cur == first && ref.Odds < earliest.Odds))
	case models.OutcomeYes:
		mv.Favorable = flag(ref.Odds < earliest.Odds)
	}
	return mv
}

func flag(ok bool) models.Favorability {
	if ok {
		return models.FavorabilityFavorable
	}
	return models.FavorabilityUnfavorable
}

func referenceLine(cur, ref models.OutcomeQuote) string {
	if cur.Point != nil && ref.Point != nil {
		return fmt.Sprintf("%s %s %s @ %d", ref.Player, ref.Label, formatPoint(*ref.Point), ref.Odds)
	}
	return fmt.Sprintf("%s %s @ %d", ref.Player, ref.Label, ref.Odds)
}

func absPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	a := math.Abs(*v)
	return &a
}
