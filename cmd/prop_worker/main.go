package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hetulpatel/PropLines/internal/cache"
	"github.com/hetulpatel/PropLines/internal/config"
	"github.com/hetulpatel/PropLines/internal/httpapi"
	"github.com/hetulpatel/PropLines/internal/kafka"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/queue"
	"github.com/hetulpatel/PropLines/internal/scanner"
	"github.com/hetulpatel/PropLines/internal/storage"
	"github.com/hetulpatel/PropLines/internal/storage/sqlite"
	"github.com/hetulpatel/PropLines/internal/workers"
)

// prop_worker consumes event snapshots, scans them against the baseline
// store and publishes the changed favorable lines.
func main() {
	logging.InitFromEnv()
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.Fatalf("[prop-worker] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[prop-worker] invalid config: %v", err)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logging.Fatalf("[prop-worker] open baseline store: %v", err)
	}
	defer store.Close()

	brokers := cfg.Kafka.Brokers
	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Fatalf("[prop-worker] wait for broker: %v", err)
	}
	cancel()

	for _, topic := range []string{cfg.Kafka.EventsTopic, cfg.Kafka.LinesTopic} {
		ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
		if err := kafka.EnsureTopic(ensureCtx, brokers, topic, 0); err != nil {
			logging.Warnf("[prop-worker] ensure topic %s warning: %v", topic, err)
		}
		cancelEnsure()
	}

	var seen cache.LineCache
	if cfg.Redis.Addr != "" {
		seen, err = cache.NewRedisLineCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LineTTL, "")
		if err != nil {
			logging.Fatalf("[prop-worker] redis line cache: %v", err)
		}
		defer seen.Close()
	} else {
		logging.Warnf("[prop-worker] REDIS_ADDR not set; every line is republished each pass")
	}

	linesWriter := kafka.NewWriter(brokers, cfg.Kafka.LinesTopic)
	defer linesWriter.Close()

	board := httpapi.NewBoard()
	sinks := []workers.Sink{board, queue.NewLinePublisher(linesWriter, seen)}
	if db, ok := store.(*sqlite.Store); ok {
		sinks = append(sinks, workers.SinkFunc(func(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error {
			return db.InsertFavorableLines(ctx, snap.RunID, res.Entries())
		}))
	}
	proc := workers.NewProcessor(scanner.New(store, cfg.LinesConfig()), sinks...)

	srv := &http.Server{
		Addr:         cfg.Service.HTTPAddr,
		Handler:      httpapi.NewRouter(board, cfg.Service.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logging.Infof("[prop-worker] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("[prop-worker] http server: %v", err)
		}
	}()

	logging.Infof("[prop-worker] consuming %s with group %s (%d workers)", cfg.Kafka.EventsTopic, cfg.Kafka.WorkerGroup, cfg.Kafka.Workers)
	workers.Run(ctx, brokers, cfg.Kafka.EventsTopic, cfg.Kafka.WorkerGroup, cfg.Kafka.Workers, proc.Handle)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("[prop-worker] shutdown: %v", err)
	}
}
