package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hetulpatel/PropLines/internal/models"
)

const favorableInsertSQL = `
INSERT INTO favorable_lines (
	run_id, event_id, event_name, commence_time, bookmaker, player, outcome, market_key,
	point, odds, reference_line, prob_delta, point_delta, is_favorable, bucket,
	entry_json, recorded_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`

// InsertFavorableLines stores the classified entries of one event scan.
func (s *Store) InsertFavorableLines(ctx context.Context, runID string, entries []models.ResultEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, favorableInsertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	recordedAt := formatTime(time.Now())
	for _, e := range entries {
		entryJSON, err := json.Marshal(e)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal entry %s/%s: %w", e.EventID, e.Player, err)
		}
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			e.EventID,
			e.EventName,
			formatTime(e.CommenceTime),
			e.BookmakerKey,
			e.Player,
			string(e.Outcome),
			e.MarketKey,
			nullFloat(e.Point),
			e.Odds,
			e.ReferenceLine,
			e.ProbDelta,
			nullFloat(e.PointDelta),
			string(e.Favorable),
			string(e.Bucket),
			string(entryJSON),
			recordedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert favorable line: %w", err)
		}
	}
	return tx.Commit()
}

// FavorableLines returns the stored entries of one run in insertion order.
func (s *Store) FavorableLines(ctx context.Context, runID string) ([]models.ResultEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_json FROM favorable_lines WHERE run_id = ? ORDER BY id;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ResultEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e models.ResultEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode favorable line: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
