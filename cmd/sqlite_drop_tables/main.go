package main

import (
	"context"

	"github.com/hetulpatel/PropLines/internal/config"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/storage/sqlite"
)

// sqlite_drop_tables drops every table the scanner owns.
func main() {
	logging.InitFromEnv()
	defer logging.Close()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.Fatalf("load config: %v", err)
	}
	path := cfg.Baseline.SQLitePath
	store, err := sqlite.Open(path, cfg.Strategy())
	if err != nil {
		logging.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	if err := store.DropTables(context.Background()); err != nil {
		logging.Fatalf("drop tables: %v", err)
	}
	logging.Infof("SQLite tables dropped at %s", path)
}
