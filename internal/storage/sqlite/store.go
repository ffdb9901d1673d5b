package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hetulpatel/PropLines/internal/baseline"
)

const (
	defaultPath       = "data/props.db"
	busyTimeoutMillis = 10000
)

// Store wraps a SQLite DB connection holding prop baselines and published lines.
type Store struct {
	path     string
	db       *sql.DB
	strategy baseline.Strategy
}

var _ baseline.Store = (*Store)(nil)

// Open creates (if needed) and opens the SQLite database. An empty strategy
// means baseline.StrategyHistory.
func Open(path string, strategy baseline.Strategy) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if strategy == "" {
		strategy = baseline.StrategyHistory
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db, strategy: strategy}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Strategy() baseline.Strategy {
	return s.strategy
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateTables ensures the baseline, history and favorable line tables exist.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropTables removes every table the store owns.
func (s *Store) DropTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
DROP TABLE IF EXISTS baselines;
DROP TABLE IF EXISTS baseline_history;
DROP TABLE IF EXISTS favorable_lines;
`)
	return err
}

// ClearTables truncates every table the store owns.
func (s *Store) ClearTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM baselines;
DELETE FROM baseline_history;
DELETE FROM favorable_lines;
`)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS baselines (
	event_id TEXT NOT NULL,
	market_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	player TEXT NOT NULL,
	point REAL,
	odds INTEGER NOT NULL,
	commence_ms INTEGER NOT NULL,
	commence_time TEXT,
	observed_ms INTEGER NOT NULL,
	observed_at TEXT,
	written_at TEXT,
	event_name TEXT,
	sport_key TEXT,
	bookmaker TEXT,
	PRIMARY KEY (event_id, market_key, outcome, player)
);
CREATE INDEX IF NOT EXISTS baselines_commence_idx ON baselines(commence_ms);

CREATE TABLE IF NOT EXISTS baseline_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT NOT NULL,
	market_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	player TEXT NOT NULL,
	point REAL,
	odds INTEGER NOT NULL,
	commence_ms INTEGER NOT NULL,
	commence_time TEXT,
	observed_ms INTEGER NOT NULL,
	observed_at TEXT,
	written_at TEXT,
	event_name TEXT,
	sport_key TEXT,
	bookmaker TEXT
);
CREATE INDEX IF NOT EXISTS baseline_history_key_idx ON baseline_history(event_id, market_key, outcome, player, observed_ms);
CREATE INDEX IF NOT EXISTS baseline_history_commence_idx ON baseline_history(commence_ms);

CREATE TABLE IF NOT EXISTS favorable_lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT,
	event_id TEXT NOT NULL,
	event_name TEXT,
	commence_time TEXT,
	bookmaker TEXT,
	player TEXT,
	outcome TEXT,
	market_key TEXT,
	point REAL,
	odds INTEGER,
	reference_line TEXT,
	prob_delta REAL,
	point_delta REAL,
	is_favorable TEXT,
	bucket TEXT,
	entry_json TEXT,
	recorded_at TEXT
);
CREATE INDEX IF NOT EXISTS favorable_lines_run_idx ON favorable_lines(run_id);
`

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(baseline.Eastern).Format(time.RFC3339Nano)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(baseline.Eastern)
}
