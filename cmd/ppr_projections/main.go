package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/hetulpatel/PropLines/internal/config"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/oddsapi"
	"github.com/hetulpatel/PropLines/internal/projections"
	"github.com/hetulpatel/PropLines/internal/storage"
)

// ppr_projections prints PPR fantasy projections built from the reference
// book's most recent lines. With -teams it fetches the reference book's team
// totals live and prints projected team points instead.
func main() {
	top := flag.Int("top", 0, "only print the top N players")
	teams := flag.Bool("teams", false, "project team points from live team totals")
	flag.Parse()

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
	if *teams {
		printTeams(ctx, cfg, *top)
		return
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logging.Fatalf("open baseline store: %v", err)
	}
	defer store.Close()

	records, err := store.LatestLines(ctx, cfg.Lines.ReferenceBook, projections.PPR.Markets())
	if err != nil {
		logging.Fatalf("latest lines: %v", err)
	}
	players := projections.Project(records, projections.PPR)
	logging.Infof("projected %d players from %d %s lines", len(players), len(records), cfg.Lines.ReferenceBook)
	if *top > 0 && len(players) > *top {
		players = players[:*top]
	}

	encode(players)
}

func printTeams(ctx context.Context, cfg config.Config, top int) {
	if err := cfg.ValidateCollector(); err != nil {
		logging.Fatalf("invalid config: %v", err)
	}
	oc := cfg.OddsClient()
	oc.Markets = []string{projections.TeamTotalsMarket}
	oc.Bookmakers = []string{cfg.Lines.ReferenceBook}
	client := oddsapi.NewClient(oc)

	events, usage, err := client.Fetch(ctx, cfg.FetchOptions())
	if err != nil {
		logging.Fatalf("fetch team totals: %v", err)
	}
	out := projections.TeamTotals(events, cfg.Lines.ReferenceBook)
	logging.Infof("projected %d teams from %d events (%d calls, %d remaining)", len(out), len(events), usage.Calls, usage.Remaining)
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	encode(out)
}

func encode(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Fatalf("encode projections: %v", err)
	}
}
