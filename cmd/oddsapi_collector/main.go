package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/config"
	kafkautil "github.com/hetulpatel/PropLines/internal/kafka"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/oddsapi"
	"github.com/hetulpatel/PropLines/internal/queue"
	"github.com/hetulpatel/PropLines/internal/scanner"
)

// oddsapi_collector polls The Odds API and publishes one snapshot per event
// for prop_worker to scan.
func main() {
	logging.InitFromEnv()
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.Fatalf("[oddsapi] load config: %v", err)
	}
	if err := cfg.ValidateCollector(); err != nil {
		logging.Fatalf("[oddsapi] invalid config: %v", err)
	}

	writer := setupWriter(ctx, cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	if writer == nil {
		logging.Fatalf("[oddsapi] no kafka writer for %s", cfg.Kafka.EventsTopic)
	}
	defer writer.Close()

	client := oddsapi.NewClient(cfg.OddsClient())
	total := collectors.RunLoop(ctx, client, cfg.FetchOptions(), cfg.Service.PollInterval, func(ctx context.Context, events []collectors.Event, usage collectors.Usage) error {
		runID := scanner.NewRunID()
		logging.Infof("[oddsapi] run %s fetched %d events", runID, len(events))
		if err := queue.PublishEvents(ctx, writer, runID, events, baseline.Now()); err != nil {
			logging.Errorf("[oddsapi] publish error: %v", err)
		}
		return nil
	})
	logging.Infof("[oddsapi] stopping; quota used=%d remaining=%d", total.Cost, total.Remaining)
}

func setupWriter(ctx context.Context, brokers []string, topic string) *kafkago.Writer {
	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	if err := kafkautil.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Errorf("[oddsapi] kafka unavailable: %v", err)
		return nil
	}
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
	if err := kafkautil.EnsureTopic(ensureCtx, brokers, topic, 0); err != nil {
		logging.Warnf("[oddsapi] ensure topic warning: %v", err)
	}
	cancelEnsure()
	return kafkautil.NewWriter(brokers, topic)
}
