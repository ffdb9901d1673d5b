package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/PropLines/internal/cache"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/models"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type memoryCache struct {
	records map[string]cache.LineRecord
}

func (c *memoryCache) Get(ctx context.Context, key string) (*cache.LineRecord, bool, error) {
	r, ok := c.records[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, record cache.LineRecord) error {
	c.records[key] = record
	return nil
}

func (c *memoryCache) Close() error { return nil }

func ptr(v float64) *float64 { return &v }

func TestPublishEventsKeysByEvent(t *testing.T) {
	w := &recordingWriter{}
	captured := time.Date(2025, 10, 12, 15, 0, 0, 0, time.UTC)
	events := []collectors.Event{
		{EventID: "ev1", Bookmakers: []collectors.Bookmaker{{Key: "pinnacle"}}},
		{EventID: "empty"},
	}
	if err := PublishEvents(context.Background(), w, "run-1", events, captured); err != nil {
		t.Fatalf("PublishEvents: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "ev1" {
		t.Errorf("key = %q", w.msgs[0].Key)
	}
	var snap models.EventSnapshot
	if err := json.Unmarshal(w.msgs[0].Value, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.RunID != "run-1" || snap.Event.EventID != "ev1" || !snap.CapturedAt.Equal(captured) {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPublishEventsNilWriter(t *testing.T) {
	if err := PublishEvents(context.Background(), nil, "run", []collectors.Event{{EventID: "x"}}, time.Now()); err != nil {
		t.Fatalf("nil writer: %v", err)
	}
}

func TestLinePublisherSkipsUnchangedLines(t *testing.T) {
	w := &recordingWriter{}
	seen := &memoryCache{records: map[string]cache.LineRecord{}}
	p := NewLinePublisher(w, seen)
	ctx := context.Background()

	entry := models.ResultEntry{
		EventID:      "ev1",
		BookmakerKey: "fanduel",
		MarketKey:    "player_receptions",
		Outcome:      models.OutcomeOver,
		Player:       "Jaylen Waddle",
		Point:        ptr(4.5),
		Odds:         -110,
		Bucket:       models.BucketDifferentPoints,
	}

	n, err := p.Publish(ctx, "run-1", []models.ResultEntry{entry})
	if err != nil || n != 1 {
		t.Fatalf("first publish = %d, %v", n, err)
	}
	n, err = p.Publish(ctx, "run-2", []models.ResultEntry{entry})
	if err != nil || n != 0 {
		t.Fatalf("unchanged publish = %d, %v", n, err)
	}

	entry.Odds = -105
	n, err = p.Publish(ctx, "run-3", []models.ResultEntry{entry})
	if err != nil || n != 1 {
		t.Fatalf("moved publish = %d, %v", n, err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(w.msgs))
	}

	var msg LineMessage
	if err := json.Unmarshal(w.msgs[1].Value, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.RunID != "run-3" || msg.Entry.Odds != -105 {
		t.Errorf("message = %+v", msg)
	}
	if string(w.msgs[1].Key) != cache.LineKey(entry) {
		t.Errorf("key = %q", w.msgs[1].Key)
	}
}

func TestLinePublisherDoesNotCacheFailedWrites(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	seen := &memoryCache{records: map[string]cache.LineRecord{}}
	p := NewLinePublisher(w, seen)

	entry := models.ResultEntry{EventID: "ev1", BookmakerKey: "fanduel", Player: "A", Odds: 100}
	if _, err := p.Publish(context.Background(), "run", []models.ResultEntry{entry}); err == nil {
		t.Fatal("expected write error")
	}
	if len(seen.records) != 0 {
		t.Errorf("cache = %v, want empty", seen.records)
	}
}

func TestLinePublisherAcceptWithoutCache(t *testing.T) {
	w := &recordingWriter{}
	p := NewLinePublisher(w, nil)
	snap := &models.EventSnapshot{RunID: "run", Event: collectors.Event{EventID: "ev1"}}
	res := lines.Result{
		DifferentPoints: []models.ResultEntry{{EventID: "ev1", Player: "A"}},
		SamePoints:      []models.ResultEntry{{EventID: "ev1", Player: "B"}},
	}
	for i := 0; i < 2; i++ {
		if err := p.Accept(context.Background(), snap, res); err != nil {
			t.Fatalf("Accept: %v", err)
		}
	}
	if len(w.msgs) != 4 {
		t.Errorf("messages = %d, want 4", len(w.msgs))
	}
}
