package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
)

// querier is satisfied by both *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const baselineColumns = `event_id, market_key, outcome, player, point, odds, commence_ms, commence_time,
	observed_ms, observed_at, written_at, event_name, sport_key, bookmaker`

const historyInsertSQL = `
INSERT INTO baseline_history (` + baselineColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`

const baselineInsertSQL = `
INSERT INTO baselines (` + baselineColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(event_id, market_key, outcome, player) DO UPDATE SET
	point=excluded.point,
	odds=excluded.odds,
	commence_ms=excluded.commence_ms,
	commence_time=excluded.commence_time,
	observed_ms=excluded.observed_ms,
	observed_at=excluded.observed_at,
	written_at=excluded.written_at,
	event_name=excluded.event_name,
	sport_key=excluded.sport_key,
	bookmaker=excluded.bookmaker`

// Later readings only replace the live baseline when they were observed earlier.
const keepEarliestClause = `
WHERE excluded.observed_ms < baselines.observed_ms`

func upsertSQL(strategy baseline.Strategy) string {
	if strategy == baseline.StrategyReadBeforeWrite {
		return baselineInsertSQL + ";"
	}
	return baselineInsertSQL + keepEarliestClause + ";"
}

// Upsert appends the observation to history and updates the live baseline
// according to the store's strategy.
func (s *Store) Upsert(ctx context.Context, obs baseline.Observation) error {
	return upsert(ctx, s.db, s.strategy, obs)
}

// Earliest returns the live baseline for key.
func (s *Store) Earliest(ctx context.Context, key baseline.Key) (baseline.Record, error) {
	return earliest(ctx, s.db, key)
}

func upsert(ctx context.Context, q querier, strategy baseline.Strategy, obs baseline.Observation) error {
	args := observationArgs(obs, time.Now())
	if _, err := q.ExecContext(ctx, historyInsertSQL, args...); err != nil {
		return fmt.Errorf("append baseline history %s: %w", obs.Key, err)
	}
	if _, err := q.ExecContext(ctx, upsertSQL(strategy), args...); err != nil {
		return fmt.Errorf("upsert baseline %s: %w", obs.Key, err)
	}
	return nil
}

func observationArgs(obs baseline.Observation, writtenAt time.Time) []any {
	observed := obs.ObservedAt
	if observed.IsZero() {
		observed = writtenAt
	}
	return []any{
		obs.Key.EventID,
		obs.Key.MarketKey,
		obs.Key.Outcome,
		obs.Key.Player,
		nullFloat(obs.Point),
		obs.Odds,
		obs.CommenceTime.UnixMilli(),
		formatTime(obs.CommenceTime),
		observed.UnixMilli(),
		formatTime(observed),
		formatTime(writtenAt),
		obs.EventName,
		obs.SportKey,
		obs.Bookmaker,
	}
}

func earliest(ctx context.Context, q querier, key baseline.Key) (baseline.Record, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+baselineColumns+`
FROM baselines
WHERE event_id=? AND market_key=? AND outcome=? AND player=?`,
		key.EventID, key.MarketKey, key.Outcome, key.Player)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return baseline.Record{}, baseline.ErrNotFound
	}
	if err != nil {
		return baseline.Record{}, fmt.Errorf("query baseline %s: %w", key, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (baseline.Record, error) {
	var (
		rec                                     baseline.Record
		point                                   sql.NullFloat64
		commenceMS, observedMS                  int64
		commenceText, observedText, writtenText sql.NullString
		eventName, sportKey, bookmaker          sql.NullString
	)
	err := row.Scan(
		&rec.Key.EventID,
		&rec.Key.MarketKey,
		&rec.Key.Outcome,
		&rec.Key.Player,
		&point,
		&rec.Odds,
		&commenceMS,
		&commenceText,
		&observedMS,
		&observedText,
		&writtenText,
		&eventName,
		&sportKey,
		&bookmaker,
	)
	if err != nil {
		return baseline.Record{}, err
	}
	if point.Valid {
		p := point.Float64
		rec.Point = &p
	}
	rec.CommenceTime = fromMillis(commenceMS)
	rec.ObservedAt = fromMillis(observedMS)
	if writtenText.Valid && writtenText.String != "" {
		if ts, err := time.Parse(time.RFC3339Nano, writtenText.String); err == nil {
			rec.WrittenAt = ts
		}
	}
	rec.EventName = eventName.String
	rec.SportKey = sportKey.String
	rec.Bookmaker = bookmaker.String
	return rec, nil
}

// PurgeCommenced deletes baselines and history for events that started
// strictly before now. It reports how many live baselines were removed.
func (s *Store) PurgeCommenced(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	cutoff := now.UnixMilli()
	res, err := tx.ExecContext(ctx, `DELETE FROM baselines WHERE commence_ms < ?;`, cutoff)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("purge baselines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_history WHERE commence_ms < ?;`, cutoff); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("purge baseline history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LatestLines returns the most recently written observation per key for one
// bookmaker, optionally limited to marketKeys.
func (s *Store) LatestLines(ctx context.Context, bookmaker string, marketKeys []string) ([]baseline.Record, error) {
	where := []string{"bookmaker = ?"}
	args := []any{bookmaker}
	if len(marketKeys) > 0 {
		where = append(where, "market_key IN (?"+strings.Repeat(",?", len(marketKeys)-1)+")")
		for _, k := range marketKeys {
			args = append(args, k)
		}
	}

	query := `
SELECT ` + baselineColumns + `
FROM baseline_history
WHERE id IN (
	SELECT MAX(id) FROM baseline_history
	WHERE ` + strings.Join(where, " AND ") + `
	GROUP BY event_id, market_key, outcome, player
)
ORDER BY event_id, market_key, player, outcome;`

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// Begin takes the database write lock for one event scan. Every read and
// write in the returned Tx runs on a single connection under BEGIN IMMEDIATE,
// so concurrent scans against the same file are serialized.
func (s *Store) Begin(ctx context.Context, eventID string) (baseline.Tx, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sqlite conn: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("begin scan of %s: %w", eventID, err)
	}
	return &scanTx{conn: conn, strategy: s.strategy}, nil
}

type scanTx struct {
	conn     *sql.Conn
	strategy baseline.Strategy
	done     bool
}

func (t *scanTx) Earliest(ctx context.Context, key baseline.Key) (baseline.Record, error) {
	return earliest(ctx, t.conn, key)
}

func (t *scanTx) Upsert(ctx context.Context, obs baseline.Observation) error {
	return upsert(ctx, t.conn, t.strategy, obs)
}

func (t *scanTx) Commit() error {
	if t.done {
		return nil
	}
	if _, err := t.conn.ExecContext(context.Background(), "COMMIT;"); err != nil {
		t.finish("ROLLBACK;")
		return fmt.Errorf("commit scan: %w", err)
	}
	t.done = true
	return t.conn.Close()
}

func (t *scanTx) Rollback() error {
	return t.finish("ROLLBACK;")
}

func (t *scanTx) finish(stmt string) error {
	if t.done {
		return nil
	}
	t.done = true
	_, err := t.conn.ExecContext(context.Background(), stmt)
	if cerr := t.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
