package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hetulpatel/PropLines/internal/baseline"
)

var _ baseline.Store = (*Store)(nil)

// Store keeps prop baselines in Postgres so several scanners can share them.
type Store struct {
	db       *sql.DB
	strategy baseline.Strategy
}

// Open connects to dsn, pings it and ensures the schema.
func Open(ctx context.Context, dsn string, strategy baseline.Strategy) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if strategy == "" {
		strategy = baseline.StrategyHistory
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db, strategy: strategy}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS prop_baselines (
	event_id TEXT NOT NULL,
	market_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	player TEXT NOT NULL,
	point DOUBLE PRECISION,
	odds INTEGER NOT NULL,
	commence_time TIMESTAMPTZ NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	written_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	event_name TEXT NOT NULL DEFAULT '',
	sport_key TEXT NOT NULL DEFAULT '',
	bookmaker TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (event_id, market_key, outcome, player)
);
CREATE INDEX IF NOT EXISTS idx_prop_baselines_commence ON prop_baselines(commence_time);

CREATE TABLE IF NOT EXISTS prop_baseline_history (
	id BIGSERIAL PRIMARY KEY,
	event_id TEXT NOT NULL,
	market_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	player TEXT NOT NULL,
	point DOUBLE PRECISION,
	odds INTEGER NOT NULL,
	commence_time TIMESTAMPTZ NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	written_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	event_name TEXT NOT NULL DEFAULT '',
	sport_key TEXT NOT NULL DEFAULT '',
	bookmaker TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_prop_baseline_history_key ON prop_baseline_history(event_id, market_key, outcome, player, observed_at);
CREATE INDEX IF NOT EXISTS idx_prop_baseline_history_commence ON prop_baseline_history(commence_time);
`

func (s *Store) Strategy() baseline.Strategy {
	return s.strategy
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const columns = `event_id, market_key, outcome, player, point, odds, commence_time, observed_at, written_at, event_name, sport_key, bookmaker`

const historyInsertSQL = `
INSERT INTO prop_baseline_history (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const baselineInsertSQL = `
INSERT INTO prop_baselines (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (event_id, market_key, outcome, player) DO UPDATE SET
	point = EXCLUDED.point,
	odds = EXCLUDED.odds,
	commence_time = EXCLUDED.commence_time,
	observed_at = EXCLUDED.observed_at,
	written_at = EXCLUDED.written_at,
	event_name = EXCLUDED.event_name,
	sport_key = EXCLUDED.sport_key,
	bookmaker = EXCLUDED.bookmaker`

func upsertSQL(strategy baseline.Strategy) string {
	if strategy == baseline.StrategyReadBeforeWrite {
		return baselineInsertSQL
	}
	return baselineInsertSQL + `
WHERE EXCLUDED.observed_at < prop_baselines.observed_at`
}

func (s *Store) Upsert(ctx context.Context, obs baseline.Observation) error {
	return upsert(ctx, s.db, s.strategy, obs)
}

func (s *Store) Earliest(ctx context.Context, key baseline.Key) (baseline.Record, error) {
	return earliest(ctx, s.db, key)
}

func upsert(ctx context.Context, q querier, strategy baseline.Strategy, obs baseline.Observation) error {
	now := time.Now().UTC()
	observed := obs.ObservedAt
	if observed.IsZero() {
		observed = now
	}
	var point sql.NullFloat64
	if obs.Point != nil {
		point = sql.NullFloat64{Float64: *obs.Point, Valid: true}
	}
	args := []any{
		obs.Key.EventID, obs.Key.MarketKey, obs.Key.Outcome, obs.Key.Player,
		point, obs.Odds, obs.CommenceTime.UTC(), observed.UTC(), now,
		obs.EventName, obs.SportKey, obs.Bookmaker,
	}
	if _, err := q.ExecContext(ctx, historyInsertSQL, args...); err != nil {
		return fmt.Errorf("append baseline history %s: %w", obs.Key, err)
	}
	if _, err := q.ExecContext(ctx, upsertSQL(strategy), args...); err != nil {
		return fmt.Errorf("upsert baseline %s: %w", obs.Key, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (baseline.Record, error) {
	var (
		rec   baseline.Record
		point sql.NullFloat64
	)
	err := row.Scan(
		&rec.Key.EventID, &rec.Key.MarketKey, &rec.Key.Outcome, &rec.Key.Player,
		&point, &rec.Odds, &rec.CommenceTime, &rec.ObservedAt, &rec.WrittenAt,
		&rec.EventName, &rec.SportKey, &rec.Bookmaker,
	)
	if err != nil {
		return baseline.Record{}, err
	}
	if point.Valid {
		p := point.Float64
		rec.Point = &p
	}
	rec.CommenceTime = rec.CommenceTime.In(baseline.Eastern)
	rec.ObservedAt = rec.ObservedAt.In(baseline.Eastern)
	return rec, nil
}

func earliest(ctx context.Context, q querier, key baseline.Key) (baseline.Record, error) {
	row := q.QueryRowContext(ctx, `
	SELECT `+columns+` FROM prop_baselines
	WHERE event_id = $1 AND market_key = $2 AND outcome = $3 AND player = $4
	`, key.EventID, key.MarketKey, key.Outcome, key.Player)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return baseline.Record{}, baseline.ErrNotFound
	}
	if err != nil {
		return baseline.Record{}, fmt.Errorf("query baseline %s: %w", key, err)
	}
	return rec, nil
}

// PurgeCommenced removes baselines and history for events that started before now.
func (s *Store) PurgeCommenced(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM prop_baselines WHERE commence_time < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge baselines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM prop_baseline_history WHERE commence_time < $1`, now.UTC()); err != nil {
		return 0, fmt.Errorf("purge baseline history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LatestLines returns the most recently written observation per key for one bookmaker.
func (s *Store) LatestLines(ctx context.Context, bookmaker string, marketKeys []string) ([]baseline.Record, error) {
	query := `
	SELECT DISTINCT ON (event_id, market_key, outcome, player) ` + columns + `
	FROM prop_baseline_history
	WHERE bookmaker = $1 AND (cardinality($2::text[]) = 0 OR market_key = ANY($2))
	ORDER BY event_id, market_key, outcome, player, id DESC
	`
	if marketKeys == nil {
		marketKeys = []string{}
	}
	rows, err := s.db.QueryContext(ctx, query, bookmaker, pq.Array(marketKeys))
	if err != nil {
		return nil, fmt.Errorf("query latest lines: %w", err)
	}
	defer rows.Close()

	var out []baseline.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Begin opens a transaction holding an advisory lock on the event, so scans
// of the same event never interleave across processes.
func (s *Store) Begin(ctx context.Context, eventID string) (baseline.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("lock event %s: %w", eventID, err)
	}
	return &scanTx{tx: tx, strategy: s.strategy}, nil
}

type scanTx struct {
	tx       *sql.Tx
	strategy baseline.Strategy
}

func (t *scanTx) Earliest(ctx context.Context, key baseline.Key) (baseline.Record, error) {
	return earliest(ctx, t.tx, key)
}

func (t *scanTx) Upsert(ctx context.Context, obs baseline.Observation) error {
	return upsert(ctx, t.tx, t.strategy, obs)
}

func (t *scanTx) Commit() error {
	return t.tx.Commit()
}

func (t *scanTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
