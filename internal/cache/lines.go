package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hetulpatel/PropLines/internal/hashutil"
	"github.com/hetulpatel/PropLines/internal/models"
)

// LineRecord is the last published state of a favorable line.
type LineRecord struct {
	Point          *float64      `json:"point,omitempty"`
	Odds           int           `json:"odds"`
	ReferencePoint *float64      `json:"reference_point,omitempty"`
	ReferenceOdds  int           `json:"reference_odds"`
	Bucket         models.Bucket `json:"bucket"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// RecordFor captures the parts of an entry that make it worth republishing.
func RecordFor(e models.ResultEntry, now time.Time) LineRecord {
	return LineRecord{
		Point:          e.Point,
		Odds:           e.Odds,
		ReferencePoint: e.ReferencePoint,
		ReferenceOdds:  e.ReferenceOdds,
		Bucket:         e.Bucket,
		UpdatedAt:      now,
	}
}

// Same reports whether both records describe the same quotes.
func (r LineRecord) Same(other LineRecord) bool {
	return r.Odds == other.Odds &&
		r.ReferenceOdds == other.ReferenceOdds &&
		r.Bucket == other.Bucket &&
		hashutil.FormatPoint(r.Point) == hashutil.FormatPoint(other.Point) &&
		hashutil.FormatPoint(r.ReferencePoint) == hashutil.FormatPoint(other.ReferencePoint)
}

// LineKey identifies a bookmaker quote independent of its current price.
func LineKey(e models.ResultEntry) string {
	return hashutil.ShortHash(e.EventID, e.BookmakerKey, e.MarketKey, string(e.Outcome), e.Player)
}

// LineCache stores the last published state per line so unchanged lines are
// not republished on every pass.
type LineCache interface {
	Get(ctx context.Context, key string) (*LineRecord, bool, error)
	Set(ctx context.Context, key string, record LineRecord) error
	Close() error
}

type redisLineCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLineCache builds a cache keyed by LineKey.
func NewRedisLineCache(addr, password string, db int, ttl time.Duration, prefix string) (LineCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if prefix == "" {
		prefix = "prop_line"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLineCache{client: client, ttl: ttl, prefix: prefix}, nil
}

func (c *redisLineCache) key(lineKey string) string {
	return fmt.Sprintf("%s:%s", c.prefix, lineKey)
}

func (c *redisLineCache) Get(ctx context.Context, lineKey string) (*LineRecord, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, c.key(lineKey)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var record LineRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (c *redisLineCache) Set(ctx context.Context, lineKey string, record LineRecord) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(lineKey), payload, c.ttl).Err()
}

func (c *redisLineCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
