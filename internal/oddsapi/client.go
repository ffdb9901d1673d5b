package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/logging"
)

const (
	defaultBaseURL     = "https://api.the-odds-api.com/v4"
	defaultSport       = "americanfootball_nfl"
	defaultRegions     = "us"
	defaultMaxAttempts = 5
)

// DefaultBookmakers are the US books quoted alongside the reference book.
var DefaultBookmakers = []string{
	"fanduel", "draftkings", "espnbet", "williamhill_us", "betmgm", "betriver", "hardrockbet", "pinnacle",
}

// DefaultMarkets are the NFL player prop markets scanned.
var DefaultMarkets = []string{
	"player_anytime_td",
	"player_pass_tds",
	"player_pass_yds",
	"player_pass_completions",
	"player_pass_attempts",
	"player_pass_interceptions",
	"player_rush_yds",
	"player_rush_attempts",
	"player_receptions",
	"player_reception_yds",
	"player_kicking_points",
}

// Client talks to The Odds API v4.
type Client struct {
	apiKey      string
	baseURL     string
	sport       string
	regions     string
	markets     []string
	bookmakers  []string
	maxAttempts int
	httpClient  *http.Client
	now         func() time.Time
	sleep       func(ctx context.Context, attempt int)
}

// Config provides the API key and optional overrides.
type Config struct {
	APIKey      string
	BaseURL     string
	Sport       string
	Regions     string
	Markets     []string
	Bookmakers  []string
	Timeout     time.Duration
	MaxAttempts int
}

// NewClient builds a configured Odds API client.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	sport := cfg.Sport
	if sport == "" {
		sport = defaultSport
	}
	regions := cfg.Regions
	if regions == "" {
		regions = defaultRegions
	}
	markets := cfg.Markets
	if len(markets) == 0 {
		markets = DefaultMarkets
	}
	books := cfg.Bookmakers
	if len(books) == 0 {
		books = DefaultBookmakers
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(base, "/"),
		sport:       sport,
		regions:     regions,
		markets:     markets,
		bookmakers:  books,
		maxAttempts: attempts,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now:   baseline.Now,
		sleep: backoff,
	}
}

func (c *Client) Name() string {
	return "oddsapi"
}

// Fetch lists the sport's events, keeps the ones that have not started and
// pulls prop odds for each. Events whose odds request fails are skipped.
func (c *Client) Fetch(ctx context.Context, opts collectors.FetchOptions) ([]collectors.Event, collectors.Usage, error) {
	summaries, usage, err := c.ListEvents(ctx)
	if err != nil {
		return nil, usage, fmt.Errorf("list %s events: %w", c.sport, err)
	}

	upcoming := FilterUpcoming(summaries, c.now(), opts.TodayOnly)
	if opts.MaxEvents > 0 && len(upcoming) > opts.MaxEvents {
		upcoming = upcoming[:opts.MaxEvents]
	}
	logging.Infof("[oddsapi] %d of %d %s events upcoming", len(upcoming), len(summaries), c.sport)

	events := make([]collectors.Event, 0, len(upcoming))
	for _, s := range upcoming {
		select {
		case <-ctx.Done():
			return events, usage, ctx.Err()
		default:
		}

		ev, u, err := c.EventOdds(ctx, s.ID)
		usage.Add(u)
		if err != nil {
			logging.Errorf("[oddsapi] skip event %s (%s): %v", s.ID, s.Name(), err)
			continue
		}
		events = append(events, ev)
	}
	return events, usage, nil
}

// ListEvents returns the sport's scheduled events without odds.
func (c *Client) ListEvents(ctx context.Context) ([]EventSummary, collectors.Usage, error) {
	u, err := url.Parse(fmt.Sprintf("%s/sports/%s/events", c.baseURL, c.sport))
	if err != nil {
		return nil, collectors.Usage{}, err
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	var out []apiEvent
	usage, err := c.get(ctx, u.String(), &out)
	if err != nil {
		return nil, usage, err
	}
	summaries := make([]EventSummary, 0, len(out))
	for _, e := range out {
		summaries = append(summaries, e.summary())
	}
	return summaries, usage, nil
}

// EventOdds returns one event with every configured bookmaker's prop markets.
func (c *Client) EventOdds(ctx context.Context, eventID string) (collectors.Event, collectors.Usage, error) {
	u, err := url.Parse(fmt.Sprintf("%s/sports/%s/events/%s/odds", c.baseURL, c.sport, url.PathEscape(eventID)))
	if err != nil {
		return collectors.Event{}, collectors.Usage{}, err
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("regions", c.regions)
	q.Set("markets", strings.Join(c.markets, ","))
	q.Set("oddsFormat", "american")
	q.Set("bookmakers", strings.Join(c.bookmakers, ","))
	u.RawQuery = q.Encode()

	var out apiEvent
	usage, err := c.get(ctx, u.String(), &out)
	if err != nil {
		return collectors.Event{}, usage, err
	}
	return out.normalize(), usage, nil
}

func (c *Client) get(ctx context.Context, rawURL string, dst any) (collectors.Usage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return collectors.Usage{}, err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, dst)
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oddsapi API %s: %s", e.Status, e.Body)
}

func (c *Client) do(req *http.Request, dst any) (collectors.Usage, error) {
	var (
		usage   collectors.Usage
		attempt int
	)
	for {
		attempt++
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() == nil && c.shouldRetry(attempt, 0) {
				c.sleep(req.Context(), attempt)
				continue
			}
			return usage, err
		}
		usage.Add(usageFromHeaders(resp.Header))

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return usage, json.NewDecoder(resp.Body).Decode(dst)
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()

		if c.shouldRetry(attempt, resp.StatusCode) {
			c.sleep(req.Context(), attempt)
			continue
		}
		return usage, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
}

func (c *Client) shouldRetry(attempt int, status int) bool {
	if attempt >= c.maxAttempts {
		return false
	}
	if status == 0 {
		return true
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	return false
}

func backoff(ctx context.Context, attempt int) {
	d := time.Duration(1<<uint(attempt-1)) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// usageFromHeaders reads the quota headers of one response.
func usageFromHeaders(h http.Header) collectors.Usage {
	return collectors.Usage{
		Calls:     1,
		Cost:      headerInt(h, "x-requests-last"),
		Used:      headerInt(h, "x-requests-used"),
		Remaining: headerInt(h, "x-requests-remaining"),
	}
}

func headerInt(h http.Header, key string) int {
	raw := strings.TrimSpace(h.Get(key))
	if raw == "" {
		return 0
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(math.Round(f))
	}
	return 0
}
