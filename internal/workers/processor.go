package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
)

// EventScanner is what the processor needs from *scanner.Scanner.
type EventScanner interface {
	Purge(ctx context.Context) (int64, error)
	Scan(ctx context.Context, ev collectors.Event) (lines.Result, error)
}

// Sink receives the ranked result of each scanned snapshot.
type Sink interface {
	Accept(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error
}

// Processor scans event snapshots and fans the results out to sinks. The
// first snapshot of every run purges commenced baselines.
type Processor struct {
	scanner EventScanner
	sinks   []Sink
	now     func() time.Time

	mu      sync.Mutex
	lastRun string
}

func NewProcessor(scanner EventScanner, sinks ...Sink) *Processor {
	return &Processor{scanner: scanner, sinks: sinks, now: baseline.Now}
}

func (p *Processor) Handle(ctx context.Context, snap *models.EventSnapshot) error {
	if snap == nil {
		return nil
	}
	if err := p.purgeOnNewRun(ctx, snap.RunID); err != nil {
		return err
	}

	ev := snap.Event
	if !ev.CommenceTime.IsZero() && !ev.CommenceTime.After(p.now()) {
		logging.Debugf("[processor] skip %s: commenced %s", ev.EventID, ev.CommenceTime.In(baseline.Eastern).Format(time.RFC3339))
		return nil
	}

	res, err := p.scanner.Scan(ctx, ev)
	if err != nil {
		return fmt.Errorf("scan %s: %w", ev.EventID, err)
	}

	var sinkErr error
	for _, s := range p.sinks {
		if err := s.Accept(ctx, snap, res); err != nil {
			logging.Errorf("[processor] sink for %s: %v", ev.EventID, err)
			if sinkErr == nil {
				sinkErr = err
			}
		}
	}
	return sinkErr
}

func (p *Processor) purgeOnNewRun(ctx context.Context, runID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if runID == "" || runID == p.lastRun {
		return nil
	}
	if _, err := p.scanner.Purge(ctx); err != nil {
		return err
	}
	p.lastRun = runID
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error

func (f SinkFunc) Accept(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error {
	return f(ctx, snap, res)
}
