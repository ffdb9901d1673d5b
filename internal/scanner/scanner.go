package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
)

// Scanner runs one event at a time through the baseline store and the line
// classifier. Reads and writes for an event share a single store transaction.
type Scanner struct {
	store baseline.Store
	cfg   lines.Config
	now   func() time.Time
}

func New(store baseline.Store, cfg lines.Config) *Scanner {
	return &Scanner{store: store, cfg: cfg.WithDefaults(), now: baseline.Now}
}

// NewRunID labels one scan pass.
func NewRunID() string {
	return uuid.NewString()
}

func (s *Scanner) Config() lines.Config {
	return s.cfg
}

// Purge drops baselines of events that already started. Call it before each pass.
func (s *Scanner) Purge(ctx context.Context) (int64, error) {
	removed, err := s.store.PurgeCommenced(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge commenced: %w", err)
	}
	if removed > 0 {
		logging.Infof("[scanner] purged %d baselines for commenced events", removed)
	}
	return removed, nil
}

// Scan records the reference book's quotes as baseline observations and
// classifies every other bookmaker's quotes against them. With
// baseline.StrategyReadBeforeWrite all reads happen before the writes.
func (s *Scanner) Scan(ctx context.Context, ev collectors.Event) (lines.Result, error) {
	tx, err := s.store.Begin(ctx, ev.EventID)
	if err != nil {
		return lines.Result{}, err
	}
	defer tx.Rollback()

	obs := Observations(ev, s.cfg.ReferenceBook, s.now())

	var res lines.Result
	switch s.store.Strategy() {
	case baseline.StrategyReadBeforeWrite:
		if res, err = lines.Evaluate(ctx, ev, tx, s.cfg); err != nil {
			return lines.Result{}, err
		}
		if err := record(ctx, tx, obs); err != nil {
			return lines.Result{}, err
		}
	default:
		if err := record(ctx, tx, obs); err != nil {
			return lines.Result{}, err
		}
		if res, err = lines.Evaluate(ctx, ev, tx, s.cfg); err != nil {
			return lines.Result{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return lines.Result{}, fmt.Errorf("commit scan of %s: %w", ev.EventID, err)
	}

	if res.Untradable {
		logging.Warnf("[scanner] %s (%s) skipped: %s", ev.EventID, ev.Name(), res.Reason)
	} else {
		logging.Infof("[scanner] %s (%s): %d different-points, %d same-points, %d compared, %d skipped, %d observations",
			ev.EventID, ev.Name(), len(res.DifferentPoints), len(res.SamePoints), res.Compared, res.Skipped, len(obs))
	}
	return res, nil
}

func record(ctx context.Context, w baseline.Writer, obs []baseline.Observation) error {
	for _, o := range obs {
		if err := w.Upsert(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// Observations extracts the reference book's quotes of ev. Markets without a
// last-update time are stamped with capturedAt.
func Observations(ev collectors.Event, referenceBook string, capturedAt time.Time) []baseline.Observation {
	ref, ok := ev.Bookmaker(referenceBook)
	if !ok {
		return nil
	}
	var out []baseline.Observation
	for _, m := range ref.Markets {
		observed := m.LastUpdate
		if observed.IsZero() {
			observed = capturedAt
		}
		for _, o := range m.Outcomes {
			label, err := models.ParseOutcomeLabel(o.Name)
			if err != nil {
				continue
			}
			var point *float64
			if o.Point != nil {
				p := *o.Point
				point = &p
			}
			out = append(out, baseline.Observation{
				Key: baseline.Key{
					EventID:   ev.EventID,
					MarketKey: m.Key,
					Outcome:   string(label),
					Player:    o.Description,
				},
				Point:        point,
				Odds:         o.Price,
				CommenceTime: ev.CommenceTime,
				ObservedAt:   observed,
				EventName:    ev.Name(),
				SportKey:     ev.SportKey,
				Bookmaker:    ref.Key,
			})
		}
	}
	return out
}
