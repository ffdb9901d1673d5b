// Package storage opens the configured baseline store backend.
package storage

import (
	"context"
	"fmt"

	"github.com/hetulpatel/PropLines/internal/baseline"
	"github.com/hetulpatel/PropLines/internal/config"
	"github.com/hetulpatel/PropLines/internal/storage/postgres"
	"github.com/hetulpatel/PropLines/internal/storage/sqlite"
)

// Open returns a ready store for cfg.Baseline. SQLite tables are created if
// missing; the Postgres backend initialises its own schema.
func Open(ctx context.Context, cfg config.Config) (baseline.Store, error) {
	switch cfg.Baseline.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Baseline.PostgresDSN, cfg.Strategy())
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(cfg.Baseline.SQLitePath, cfg.Strategy())
		if err != nil {
			return nil, err
		}
		if err := store.CreateTables(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("create sqlite tables: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown baseline driver %q", cfg.Baseline.Driver)
}
