package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/kafka"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/oddsapi"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	OddsAPI  OddsAPIConfig  `yaml:"odds_api"`
	Lines    LinesConfig    `yaml:"lines"`
	Baseline BaselineConfig `yaml:"baseline"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Service  ServiceConfig  `yaml:"service"`
}

type OddsAPIConfig struct {
	APIKey     string   `yaml:"api_key"`
	BaseURL    string   `yaml:"base_url"`
	Sport      string   `yaml:"sport"`
	Regions    string   `yaml:"regions"`
	Markets    []string `yaml:"markets"`
	Bookmakers []string `yaml:"bookmakers"`
	TodayOnly  bool     `yaml:"today_only"`
	MaxEvents  int      `yaml:"max_events"`
}

type LinesConfig struct {
	ReferenceBook          string  `yaml:"reference_book"`
	BinaryMinProbDelta     float64 `yaml:"binary_min_prob_delta"`
	BinaryMaxReferenceOdds int     `yaml:"binary_max_reference_odds"`
}

type BaselineConfig struct {
	Strategy    string `yaml:"strategy"`
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LineTTL  time.Duration `yaml:"line_ttl"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"events_topic"`
	LinesTopic  string   `yaml:"lines_topic"`
	WorkerGroup string   `yaml:"worker_group"`
	Workers     int      `yaml:"workers"`
}

type ServiceConfig struct {
	HTTPAddr     string        `yaml:"http_addr"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default returns the settings used when neither a file nor the environment
// say otherwise.
func Default() Config {
	return Config{
		OddsAPI: OddsAPIConfig{
			Sport:      "americanfootball_nfl",
			Regions:    "us",
			Markets:    append([]string(nil), oddsapi.DefaultMarkets...),
			Bookmakers: append([]string(nil), oddsapi.DefaultBookmakers...),
		},
		Lines: LinesConfig{
			ReferenceBook:          lines.DefaultReferenceBook,
			BinaryMinProbDelta:     lines.DefaultBinaryMinProbDelta,
			BinaryMaxReferenceOdds: lines.DefaultBinaryMaxReferenceOdds,
		},
		Baseline: BaselineConfig{
			Strategy:   string(baseline.StrategyHistory),
			Driver:     DriverSQLite,
			SQLitePath: "data/props.db",
		},
		Redis: RedisConfig{
			LineTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:     []string{kafka.DefaultBroker},
			EventsTopic: kafka.DefaultEventsTopic,
			LinesTopic:  kafka.DefaultLinesTopic,
			WorkerGroup: kafka.DefaultWorkerGroup,
			Workers:     1,
		},
		Service: ServiceConfig{
			HTTPAddr:     ":8080",
			PollInterval: 5 * time.Minute,
		},
	}
}

// Load reads .env files, then the YAML file at path (if any), then applies
// environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv loads the file named by CONFIG_PATH.
func FromEnv() (Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func (c *Config) applyEnv() {
	c.OddsAPI.APIKey = envString("ODDS_API_KEY", envString("THE_ODDS_API_KEY", c.OddsAPI.APIKey))
	c.OddsAPI.BaseURL = envString("ODDS_API_BASE_URL", c.OddsAPI.BaseURL)
	c.OddsAPI.Sport = envString("ODDS_SPORT", c.OddsAPI.Sport)
	c.OddsAPI.Regions = envString("ODDS_REGIONS", c.OddsAPI.Regions)
	c.OddsAPI.Markets = envList("ODDS_MARKETS", c.OddsAPI.Markets)
	c.OddsAPI.Bookmakers = envList("ODDS_BOOKMAKERS", c.OddsAPI.Bookmakers)
	c.OddsAPI.TodayOnly = envBool("ODDS_TODAY_ONLY", c.OddsAPI.TodayOnly)
	c.OddsAPI.MaxEvents = envInt("ODDS_MAX_EVENTS", c.OddsAPI.MaxEvents)

	c.Lines.ReferenceBook = envString("REFERENCE_BOOK", c.Lines.ReferenceBook)
	c.Lines.BinaryMinProbDelta = envFloat("BINARY_MIN_PROB_DELTA", c.Lines.BinaryMinProbDelta)
	c.Lines.BinaryMaxReferenceOdds = envInt("BINARY_MAX_REFERENCE_ODDS", c.Lines.BinaryMaxReferenceOdds)

	c.Baseline.Strategy = envString("BASELINE_STRATEGY", c.Baseline.Strategy)
	c.Baseline.Driver = envString("BASELINE_DRIVER", c.Baseline.Driver)
	c.Baseline.SQLitePath = envString("SQLITE_PATH", c.Baseline.SQLitePath)
	c.Baseline.PostgresDSN = envString("POSTGRES_DSN", c.Baseline.PostgresDSN)

	c.Redis.Addr = envString("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envInt("REDIS_DB", c.Redis.DB)
	c.Redis.LineTTL = envDuration("LINE_CACHE_TTL", c.Redis.LineTTL)

	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		c.Kafka.Brokers = kafka.ParseBrokers(raw)
	}
	c.Kafka.EventsTopic = envString("EVENTS_KAFKA_TOPIC", c.Kafka.EventsTopic)
	c.Kafka.LinesTopic = envString("LINES_KAFKA_TOPIC", c.Kafka.LinesTopic)
	c.Kafka.WorkerGroup = envString("PROP_WORKER_GROUP", c.Kafka.WorkerGroup)
	c.Kafka.Workers = envInt("PROP_WORKERS", c.Kafka.Workers)

	c.Service.HTTPAddr = envString("HTTP_ADDR", c.Service.HTTPAddr)
	c.Service.CORSOrigins = envList("CORS_ORIGINS", c.Service.CORSOrigins)
	c.Service.PollInterval = envDuration("POLL_INTERVAL", c.Service.PollInterval)
}

// Validate checks settings every command depends on.
func (c Config) Validate() error {
	if _, err := baseline.ParseStrategy(c.Baseline.Strategy); err != nil {
		return err
	}
	switch c.Baseline.Driver {
	case DriverSQLite:
		if c.Baseline.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DriverPostgres:
		if c.Baseline.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown baseline driver %q", c.Baseline.Driver)
	}
	if c.Lines.ReferenceBook == "" {
		return fmt.Errorf("reference book is required")
	}
	// Zero would be replaced by the engine default, so it is rejected here.
	if c.Lines.BinaryMinProbDelta <= 0 {
		return fmt.Errorf("binary min prob delta must be positive")
	}
	if c.Lines.BinaryMaxReferenceOdds <= 0 {
		return fmt.Errorf("binary max reference odds must be positive")
	}
	if c.Kafka.Workers < 0 {
		return fmt.Errorf("PROP_WORKERS must not be negative")
	}
	return nil
}

// ValidateCollector additionally requires Odds API credentials.
func (c Config) ValidateCollector() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OddsAPI.APIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required")
	}
	if len(c.OddsAPI.Markets) == 0 {
		return fmt.Errorf("at least one market is required")
	}
	return nil
}

func (c Config) Strategy() baseline.Strategy {
	s, err := baseline.ParseStrategy(c.Baseline.Strategy)
	if err != nil {
		return baseline.StrategyHistory
	}
	return s
}

func (c Config) OddsClient() oddsapi.Config {
	return oddsapi.Config{
		APIKey:     c.OddsAPI.APIKey,
		BaseURL:    c.OddsAPI.BaseURL,
		Sport:      c.OddsAPI.Sport,
		Regions:    c.OddsAPI.Regions,
		Markets:    c.OddsAPI.Markets,
		Bookmakers: c.OddsAPI.Bookmakers,
	}
}

func (c Config) FetchOptions() collectors.FetchOptions {
	return collectors.FetchOptions{TodayOnly: c.OddsAPI.TodayOnly, MaxEvents: c.OddsAPI.MaxEvents}
}

func (c Config) LinesConfig() lines.Config {
	return lines.Config{
		ReferenceBook:          c.Lines.ReferenceBook,
		BinaryMinProbDelta:     c.Lines.BinaryMinProbDelta,
		BinaryMaxReferenceOdds: c.Lines.BinaryMaxReferenceOdds,
	}
}
