package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/models"
)

type fakeScanner struct {
	purges  int
	scanned []string
	err     error
}

func (f *fakeScanner) Purge(ctx context.Context) (int64, error) {
	f.purges++
	return 0, nil
}

func (f *fakeScanner) Scan(ctx context.Context, ev collectors.Event) (lines.Result, error) {
	if f.err != nil {
		return lines.Result{}, f.err
	}
	f.scanned = append(f.scanned, ev.EventID)
	return lines.Result{EventID: ev.EventID, Compared: 1}, nil
}

type fakeSink struct {
	got []lines.Result
	err error
}

func (s *fakeSink) Accept(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error {
	s.got = append(s.got, res)
	return s.err
}

var testNow = time.Date(2025, 10, 12, 12, 0, 0, 0, time.UTC)

func snapshot(runID, eventID string, commence time.Time) *models.EventSnapshot {
	return &models.EventSnapshot{RunID: runID, Event: collectors.Event{EventID: eventID, CommenceTime: commence}}
}

func newTestProcessor(sc EventScanner, sinks ...Sink) *Processor {
	p := NewProcessor(sc, sinks...)
	p.now = func() time.Time { return testNow }
	return p
}

func TestProcessorPurgesOncePerRun(t *testing.T) {
	sc := &fakeScanner{}
	sink := &fakeSink{}
	p := newTestProcessor(sc, sink)
	ctx := context.Background()
	later := testNow.Add(time.Hour)

	for _, snap := range []*models.EventSnapshot{
		snapshot("run-1", "a", later),
		snapshot("run-1", "b", later),
		snapshot("run-2", "a", later),
	} {
		if err := p.Handle(ctx, snap); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if sc.purges != 2 {
		t.Errorf("purges = %d, want 2", sc.purges)
	}
	if len(sink.got) != 3 || sink.got[1].EventID != "b" {
		t.Errorf("sink got %+v", sink.got)
	}
}

func TestProcessorSkipsCommencedEvents(t *testing.T) {
	sc := &fakeScanner{}
	p := newTestProcessor(sc)
	if err := p.Handle(context.Background(), snapshot("run", "old", testNow)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sc.scanned) != 0 {
		t.Errorf("scanned %v, want none", sc.scanned)
	}
}

func TestProcessorReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	later := testNow.Add(time.Hour)

	p := newTestProcessor(&fakeScanner{err: boom})
	if err := p.Handle(context.Background(), snapshot("run", "a", later)); !errors.Is(err, boom) {
		t.Errorf("scan err = %v, want boom", err)
	}

	failing := &fakeSink{err: boom}
	ok := &fakeSink{}
	p = newTestProcessor(&fakeScanner{}, failing, ok)
	if err := p.Handle(context.Background(), snapshot("run", "a", later)); !errors.Is(err, boom) {
		t.Errorf("sink err = %v, want boom", err)
	}
	if len(ok.got) != 1 {
		t.Error("a failing sink should not starve the others")
	}
}

type scriptedReader struct {
	msgs   []kafkago.Message
	cancel context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func TestConsumeDecodesSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload, err := json.Marshal(snapshot("run", "ev1", testNow))
	if err != nil {
		t.Fatal(err)
	}
	reader := &scriptedReader{
		msgs:   []kafkago.Message{{Value: []byte("not json")}, {Value: []byte(`{"run_id":"run"}`)}, {Value: payload}},
		cancel: cancel,
	}

	var got []string
	consume(ctx, 0, reader, func(ctx context.Context, snap *models.EventSnapshot) error {
		got = append(got, snap.Event.EventID)
		return nil
	})
	if len(got) != 1 || got[0] != "ev1" {
		t.Errorf("handled %v, want [ev1]", got)
	}
}
