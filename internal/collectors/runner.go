package collectors

import (
	"context"
	"time"

	"github.com/hetulpatel/PropLines/internal/logging"
)

// HandleFunc receives the events of one fetch and the quota that fetch spent.
type HandleFunc func(context.Context, []Event, Usage) error

// RunOnce performs a single fetch and hands the result to handleFn.
func RunOnce(ctx context.Context, collector Collector, opts FetchOptions, handleFn HandleFunc) (Usage, error) {
	events, usage, err := collector.Fetch(ctx, opts)
	if err != nil {
		return usage, err
	}
	if handleFn != nil {
		if err := handleFn(ctx, events, usage); err != nil {
			return usage, err
		}
	}
	return usage, nil
}

// RunLoop continuously fetches data from a collector and hands it to handleFn,
// pausing for interval between passes. Rate limiting/backoff is handled
// inside the collector's HTTP client. The accumulated usage is returned once
// ctx is cancelled.
func RunLoop(ctx context.Context, collector Collector, opts FetchOptions, interval time.Duration, handleFn HandleFunc) Usage {
	var total Usage
	for {
		select {
		case <-ctx.Done():
			return total
		default:
		}

		usage, err := RunOnce(ctx, collector, opts, handleFn)
		total.Add(usage)
		if err != nil {
			logging.Errorf("[%s] pass failed: %v", collector.Name(), err)
		}
		logging.Infof("[%s] quota used this pass=%d total=%d remaining=%d", collector.Name(), usage.Cost, total.Cost, total.Remaining)

		if interval <= 0 {
			continue
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return total
		case <-timer.C:
		}
	}
}
