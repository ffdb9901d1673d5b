package oddsmath

import (
	"errors"
	"fmt"
)

// ErrInvalidOdds is matched by every InvalidOddsError.
var ErrInvalidOdds = errors.New("invalid american odds")

// InvalidOddsError reports an American price that has no implied probability.
type InvalidOddsError struct {
	Odds int
}

func (e *InvalidOddsError) Error() string {
	return fmt.Sprintf("invalid american odds %d: cannot be 0", e.Odds)
}

func (e *InvalidOddsError) Is(target error) bool {
	return target == ErrInvalidOdds
}

// ImpliedProbability converts American odds to the probability they imply,
// margin included.
// +150 → 0.40
// -150 → 0.60
func ImpliedProbability(odds int) (float64, error) {
	if odds == 0 {
		return 0, &InvalidOddsError{Odds: odds}
	}
	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0), nil
	}
	abs := float64(-odds)
	return abs / (abs + 100.0), nil
}

// AmericanToDecimal converts American odds to decimal odds.
func AmericanToDecimal(odds int) (float64, error) {
	if odds == 0 {
		return 0, &InvalidOddsError{Odds: odds}
	}
	if odds > 0 {
		return float64(odds)/100.0 + 1.0, nil
	}
	return 100.0/float64(-odds) + 1.0, nil
}
