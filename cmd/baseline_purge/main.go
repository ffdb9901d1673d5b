package main

import (
	"context"

	"github.com/hetulpatel/PropLines/internal/config"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/scanner"
	"github.com/hetulpatel/PropLines/internal/storage"
)

// baseline_purge removes baselines and history for events that have started.
func main() {
	logging.InitFromEnv()
	defer logging.Close()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logging.Fatalf("open baseline store: %v", err)
	}
	defer store.Close()

	removed, err := scanner.New(store, cfg.LinesConfig()).Purge(ctx)
	if err != nil {
		logging.Fatalf("purge: %v", err)
	}
	logging.Infof("removed %d baselines (%s driver)", removed, cfg.Baseline.Driver)
}
