package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hetulpatel/PropLines/internal/collectors"
)

// OutcomeLabel is the side of a prop line.
type OutcomeLabel string

const (
	OutcomeOver  OutcomeLabel = "Over"
	OutcomeUnder OutcomeLabel = "Under"
	OutcomeYes   OutcomeLabel = "Yes"
	OutcomeNo    OutcomeLabel = "No"
)

var ErrUnknownOutcome = errors.New("unknown outcome label")

// ParseOutcomeLabel maps a provider label onto the closed label set.
func ParseOutcomeLabel(raw string) (OutcomeLabel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "over":
		return OutcomeOver, nil
	case "under":
		return OutcomeUnder, nil
	case "yes":
		return OutcomeYes, nil
	case "no":
		return OutcomeNo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, raw)
}

// Tracked reports whether baseline movement is followed for the label.
func (l OutcomeLabel) Tracked() bool {
	return l == OutcomeOver || l == OutcomeUnder || l == OutcomeYes
}

// OutcomeQuote is one priced line for one outcome of one bookmaker market.
type OutcomeQuote struct {
	BookmakerKey   string
	BookmakerTitle string
	MarketKey      string
	Label          OutcomeLabel
	Player         string
	Point          *float64
	Odds           int
	LastUpdate     time.Time
}

// NewOutcomeQuote validates a raw provider outcome. The point is copied so the
// quote does not alias the payload.
func NewOutcomeQuote(b collectors.Bookmaker, m collectors.Market, o collectors.Outcome) (OutcomeQuote, error) {
	label, err := ParseOutcomeLabel(o.Name)
	if err != nil {
		return OutcomeQuote{}, err
	}
	q := OutcomeQuote{
		BookmakerKey:   b.Key,
		BookmakerTitle: b.Title,
		MarketKey:      m.Key,
		Label:          label,
		Player:         o.Description,
		Odds:           o.Price,
		LastUpdate:     m.LastUpdate,
	}
	if o.Point != nil {
		p := *o.Point
		q.Point = &p
	}
	return q, nil
}

func (q OutcomeQuote) HasPoint() bool {
	return q.Point != nil
}

// Matches reports whether other prices the same side of the same player line.
func (q OutcomeQuote) Matches(other OutcomeQuote) bool {
	return q.MarketKey == other.MarketKey && q.Player == other.Player && q.Label == other.Label
}
