package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/lines"
)

// clearEnv blanks every key applyEnv reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ODDS_API_KEY", "THE_ODDS_API_KEY", "ODDS_API_BASE_URL", "ODDS_SPORT", "ODDS_REGIONS",
		"ODDS_MARKETS", "ODDS_BOOKMAKERS", "ODDS_TODAY_ONLY", "ODDS_MAX_EVENTS",
		"REFERENCE_BOOK", "BINARY_MIN_PROB_DELTA", "BINARY_MAX_REFERENCE_ODDS",
		"BASELINE_STRATEGY", "BASELINE_DRIVER", "SQLITE_PATH", "POSTGRES_DSN",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LINE_CACHE_TTL",
		"KAFKA_BROKERS", "EVENTS_KAFKA_TOPIC", "LINES_KAFKA_TOPIC", "PROP_WORKER_GROUP", "PROP_WORKERS",
		"HTTP_ADDR", "CORS_ORIGINS", "POLL_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Strategy() != baseline.StrategyHistory {
		t.Errorf("strategy = %q", cfg.Strategy())
	}
	if cfg.LinesConfig() != (lines.Config{}).WithDefaults() {
		t.Errorf("lines config = %+v", cfg.LinesConfig())
	}
	if len(cfg.OddsAPI.Markets) != 11 {
		t.Errorf("markets = %d, want 11", len(cfg.OddsAPI.Markets))
	}
	if err := cfg.ValidateCollector(); err == nil {
		t.Error("collector config without an API key should fail")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "props.yaml")
	yml := `
odds_api:
  api_key: from-file
  today_only: true
lines:
  reference_book: circa
  binary_max_reference_odds: 250
baseline:
  strategy: read_before_write
service:
  poll_interval: 90s
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("THE_ODDS_API_KEY", "legacy")
	t.Setenv("REFERENCE_BOOK", "pinnacle")
	t.Setenv("ODDS_MARKETS", "player_receptions, ,player_rush_yds")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("LINE_CACHE_TTL", "600")
	t.Setenv("PROP_WORKERS", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OddsAPI.APIKey != "legacy" {
		t.Errorf("api key = %q, want legacy", cfg.OddsAPI.APIKey)
	}
	if !cfg.OddsAPI.TodayOnly || !cfg.FetchOptions().TodayOnly {
		t.Error("today_only from file lost")
	}
	if cfg.Lines.ReferenceBook != "pinnacle" || cfg.Lines.BinaryMaxReferenceOdds != 250 {
		t.Errorf("lines = %+v", cfg.Lines)
	}
	if cfg.Strategy() != baseline.StrategyReadBeforeWrite {
		t.Errorf("strategy = %q", cfg.Strategy())
	}
	if !reflect.DeepEqual(cfg.OddsAPI.Markets, []string{"player_receptions", "player_rush_yds"}) {
		t.Errorf("markets = %v", cfg.OddsAPI.Markets)
	}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, []string{"a:9092", "b:9092"}) {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.LineTTL != 10*time.Minute || cfg.Service.PollInterval != 90*time.Second {
		t.Errorf("durations = %v, %v", cfg.Redis.LineTTL, cfg.Service.PollInterval)
	}
	if cfg.Kafka.Workers != 4 {
		t.Errorf("workers = %d", cfg.Kafka.Workers)
	}
	if err := cfg.ValidateCollector(); err != nil {
		t.Errorf("ValidateCollector: %v", err)
	}
	if cfg.OddsClient().APIKey != "legacy" {
		t.Errorf("odds client key = %q", cfg.OddsClient().APIKey)
	}
}

func TestPrimaryKeyWinsOverLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("ODDS_API_KEY", "primary")
	t.Setenv("THE_ODDS_API_KEY", "legacy")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OddsAPI.APIKey != "primary" {
		t.Errorf("api key = %q", cfg.OddsAPI.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Baseline.Strategy = "latest" }},
		{"unknown driver", func(c *Config) { c.Baseline.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Baseline.Driver = DriverPostgres }},
		{"empty sqlite path", func(c *Config) { c.Baseline.SQLitePath = "" }},
		{"no reference book", func(c *Config) { c.Lines.ReferenceBook = "" }},
		{"negative delta", func(c *Config) { c.Lines.BinaryMinProbDelta = -0.1 }},
		{"zero delta", func(c *Config) { c.Lines.BinaryMinProbDelta = 0 }},
		{"zero max reference odds", func(c *Config) { c.Lines.BinaryMaxReferenceOdds = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestZeroDeltaFromEnvRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("BINARY_MIN_PROB_DELTA", "0")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lines.BinaryMinProbDelta != 0 {
		t.Fatalf("delta = %v, want 0 from env", cfg.Lines.BinaryMinProbDelta)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("zero delta should fail validation instead of falling back to the default")
	}
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("PROPLINES_TEST_INT", "abc")
	t.Setenv("PROPLINES_TEST_BOOL", "maybe")
	t.Setenv("PROPLINES_TEST_DUR", "soon")
	t.Setenv("PROPLINES_TEST_LIST", " , ")
	if envInt("PROPLINES_TEST_INT", 7) != 7 {
		t.Error("envInt")
	}
	if !envBool("PROPLINES_TEST_BOOL", true) {
		t.Error("envBool")
	}
	if envDuration("PROPLINES_TEST_DUR", time.Second) != time.Second {
		t.Error("envDuration")
	}
	if got := envList("PROPLINES_TEST_LIST", []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("envList = %v", got)
	}
}
