package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/PropLines/internal/cache"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
)

// MessageWriter is the part of *kafka.Writer the publishers need.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// PublishEvents emits one snapshot per event, keyed by event id so every
// pass for an event lands on the same partition in order.
func PublishEvents(ctx context.Context, writer MessageWriter, runID string, events []collectors.Event, captured time.Time) error {
	if writer == nil || len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		if len(ev.Bookmakers) == 0 {
			continue
		}
		snapshot := models.NewSnapshot(runID, ev, captured)
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot %s: %w", ev.EventID, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(ev.EventID), Value: payload})
	}

	if len(msgs) == 0 {
		return nil
	}
	return writer.WriteMessages(ctx, msgs...)
}

// LineMessage is the payload placed on the lines topic.
type LineMessage struct {
	RunID       string             `json:"run_id"`
	PublishedAt time.Time          `json:"published_at"`
	Entry       models.ResultEntry `json:"entry"`
}

// LinePublisher emits ranked entries, skipping lines whose quotes have not
// changed since they were last published.
type LinePublisher struct {
	writer MessageWriter
	seen   cache.LineCache
	now    func() time.Time
}

// NewLinePublisher builds a publisher. seen may be nil to publish every entry.
func NewLinePublisher(writer MessageWriter, seen cache.LineCache) *LinePublisher {
	return &LinePublisher{writer: writer, seen: seen, now: time.Now}
}

// Publish writes the changed entries and returns how many were sent.
func (p *LinePublisher) Publish(ctx context.Context, runID string, entries []models.ResultEntry) (int, error) {
	if p == nil || p.writer == nil || len(entries) == 0 {
		return 0, nil
	}

	now := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(entries))
	pending := make(map[string]cache.LineRecord, len(entries))
	for _, e := range entries {
		key := cache.LineKey(e)
		record := cache.RecordFor(e, now)
		if p.seen != nil {
			prev, ok, err := p.seen.Get(ctx, key)
			if err != nil {
				logging.Warnf("[queue] line cache get %s: %v", key, err)
			} else if ok && prev.Same(record) {
				continue
			}
		}
		payload, err := json.Marshal(LineMessage{RunID: runID, PublishedAt: now, Entry: e})
		if err != nil {
			return 0, fmt.Errorf("marshal line %s: %w", key, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(key), Value: payload})
		pending[key] = record
	}

	if len(msgs) == 0 {
		return 0, nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, err
	}
	if p.seen != nil {
		for key, record := range pending {
			if err := p.seen.Set(ctx, key, record); err != nil {
				logging.Warnf("[queue] line cache set %s: %v", key, err)
			}
		}
	}
	return len(msgs), nil
}

// Accept publishes a scanned snapshot's ranked entries.
func (p *LinePublisher) Accept(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error {
	n, err := p.Publish(ctx, snap.RunID, res.Entries())
	if err != nil {
		return fmt.Errorf("publish lines for %s: %w", snap.Event.EventID, err)
	}
	if n > 0 {
		logging.Debugf("[queue] published %d lines for %s", n, snap.Event.EventID)
	}
	return nil
}
