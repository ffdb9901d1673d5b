package models

import (
	"encoding/json"
	"time"
)

// Bucket is the result sequence an entry is ranked in.
type Bucket string

const (
	BucketNone            Bucket = ""
	BucketDifferentPoints Bucket = "different_points"
	BucketSamePoints      Bucket = "same_points"
)

// Favorability records how the reference line moved against its baseline.
// The zero value means unknown.
type Favorability string

const (
	FavorabilityUnknown     Favorability = ""
	FavorabilityFavorable   Favorability = "Y"
	FavorabilityUnfavorable Favorability = "N"
)

func (f Favorability) MarshalJSON() ([]byte, error) {
	if f == FavorabilityUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

func (f *Favorability) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FavorabilityUnknown
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Favorability(raw)
	return nil
}

// ResultEntry is one classified comparison of a bookmaker quote against the
// reference book.
type ResultEntry struct {
	EventID        string       `json:"event_id"`
	EventName      string       `json:"event_name"`
	CommenceTime   time.Time    `json:"commence_time"`
	BookmakerKey   string       `json:"bookmaker"`
	Source         string       `json:"source"`
	Player         string       `json:"player"`
	Outcome        OutcomeLabel `json:"type"`
	MarketKey      string       `json:"market_key"`
	MarketLabel    string       `json:"bet_type"`
	Point          *float64     `json:"point,omitempty"`
	Odds           int          `json:"odds"`
	ReferencePoint *float64     `json:"reference_point,omitempty"`
	ReferenceOdds  int          `json:"reference_odds"`
	ReferenceLine  string       `json:"pinnacle"`

	ProbDelta  float64      `json:"delta"`
	PointDelta *float64     `json:"point_delta"`
	Favorable  Favorability `json:"is_favorable"`

	ProjectedValue          *float64 `json:"projected_value"`
	ReferenceProjectedValue *float64 `json:"pinnacle_projected_val"`
	ProjectedValueDelta     *float64 `json:"projected_val_delta"`

	PointMove         *float64 `json:"point_move"`
	OddsMove          *float64 `json:"odds_pct_move"`
	AbsPointMove      *float64 `json:"abs_point_move"`
	AbsOddsMove       *float64 `json:"abs_odds_pct_move"`
	AbsProjectedDelta *float64 `json:"abs_proj_delta"`

	Bucket Bucket `json:"bucket"`
}

// RankPointDelta is the point delta used for ordering; absent counts as zero.
func (e ResultEntry) RankPointDelta() float64 {
	if e.PointDelta == nil {
		return 0
	}
	return *e.PointDelta
}
