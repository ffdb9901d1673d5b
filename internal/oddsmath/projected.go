package oddsmath

// RemoveVig rescales two complementary probabilities so they sum to 1.
func RemoveVig(a, b float64) (float64, float64) {
	total := a + b
	if total <= 0 {
		return 0, 0
	}
	return a / total, b / total
}

// ProjectedValue estimates the expected statistic behind a half-point
// over/under line. Both sides are de-vigged, then the point is shifted half a
// unit toward whichever side the market favours:
//
//	normOver*(point+0.5) + normUnder*(point-0.5)
//
// which, since the normalized sides sum to 1, equals point + 0.5*(normOver-normUnder).
func ProjectedValue(overOdds, underOdds int, point float64) (float64, error) {
	over, err := ImpliedProbability(overOdds)
	if err != nil {
		return 0, err
	}
	under, err := ImpliedProbability(underOdds)
	if err != nil {
		return 0, err
	}
	normOver, normUnder := RemoveVig(over, under)
	return point + 0.5*(normOver-normUnder), nil
}
