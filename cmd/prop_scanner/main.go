package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/collectors"
	"github.com/hetulpatel/PropLines/internal/config"
	"github.com/hetulpatel/PropLines/internal/httpapi"
	"github.com/hetulpatel/PropLines/internal/lines"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
	"github.com/hetulpatel/PropLines/internal/oddsapi"
	"github.com/hetulpatel/PropLines/internal/scanner"
	"github.com/hetulpatel/PropLines/internal/storage"
	"github.com/hetulpatel/PropLines/internal/storage/sqlite"
	"github.com/hetulpatel/PropLines/internal/workers"
)

// prop_scanner fetches odds, updates baselines and classifies lines in one
// process. With -once it prints the ranked slate as JSON and exits; otherwise
// it polls and serves the board over HTTP.
func main() {
	once := flag.Bool("once", false, "run a single pass, print the slate and exit")
	flag.Parse()

	logging.InitFromEnv()
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.Fatalf("[prop-scanner] load config: %v", err)
	}
	if err := cfg.ValidateCollector(); err != nil {
		logging.Fatalf("[prop-scanner] invalid config: %v", err)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logging.Fatalf("[prop-scanner] open baseline store: %v", err)
	}
	defer store.Close()

	board := httpapi.NewBoard()
	sinks := []workers.Sink{board}
	if db, ok := store.(*sqlite.Store); ok {
		sinks = append(sinks, workers.SinkFunc(func(ctx context.Context, snap *models.EventSnapshot, res lines.Result) error {
			return db.InsertFavorableLines(ctx, snap.RunID, res.Entries())
		}))
	}
	proc := workers.NewProcessor(scanner.New(store, cfg.LinesConfig()), sinks...)

	client := oddsapi.NewClient(cfg.OddsClient())
	handle := func(ctx context.Context, events []collectors.Event, usage collectors.Usage) error {
		runID := scanner.NewRunID()
		captured := baseline.Now()
		board.RecordUsage(usage)
		for _, ev := range events {
			snap := models.NewSnapshot(runID, ev, captured)
			if err := proc.Handle(ctx, &snap); err != nil {
				logging.Errorf("[prop-scanner] %s: %v", ev.EventID, err)
			}
		}
		if pruned := board.Prune(); pruned > 0 {
			logging.Infof("[prop-scanner] pruned %d commenced events from the board", pruned)
		}
		slate := board.Slate()
		logging.Infof("[prop-scanner] run %s: %d events, %d different-points, %d same-points", runID, len(events), len(slate.DifferentPoints), len(slate.SamePoints))
		return nil
	}

	if *once {
		if _, err := collectors.RunOnce(ctx, client, cfg.FetchOptions(), handle); err != nil {
			logging.Fatalf("[prop-scanner] pass failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(board.Slate()); err != nil {
			logging.Fatalf("[prop-scanner] encode slate: %v", err)
		}
		return
	}

	srv := &http.Server{
		Addr:         cfg.Service.HTTPAddr,
		Handler:      httpapi.NewRouter(board, cfg.Service.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logging.Infof("[prop-scanner] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("[prop-scanner] http server: %v", err)
			stop()
		}
	}()

	total := collectors.RunLoop(ctx, client, cfg.FetchOptions(), cfg.Service.PollInterval, handle)
	logging.Infof("[prop-scanner] stopping; quota used=%d remaining=%d", total.Cost, total.Remaining)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("[prop-scanner] shutdown: %v", err)
	}
}
