package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/game"
)

func main() {
	if err := run(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config run.seed)")
	steps := flag.Int("steps", 0, "Steps to simulate (0 = config run.steps)")
	long := flag.Bool("long", false, "Run the long simulation (config run.long_steps)")
	logStats := flag.Bool("log-stats", false, "Output window stats and bookmarks via slog")
	logEvery := flag.Int("log-every", -1, "Steps between status lines (-1 = config telemetry.log_every, 0 = off)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	compress := flag.Bool("compress", false, "zstd-compress CSV output")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	every := cfg.Telemetry.LogEvery
	if *logEvery >= 0 {
		every = *logEvery
	}
	var views []game.View
	if every > 0 {
		views = append(views, game.NewLogView(every))
	}

	g, err := game.NewGameWithOptions(cfg, game.Options{
		Seed:      *seed,
		Views:     views,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Compress:  *compress,
	})
	if err != nil {
		return err
	}

	n := *steps
	if n <= 0 {
		n = cfg.Run.Steps
	}

	slog.Info("starting simulation",
		"seed", g.Seed(),
		"depth", cfg.Field.Depth,
		"width", cfg.Field.Width,
		"species", len(cfg.Species),
		"long", *long,
	)

	var ran int
	if *long {
		ran = g.RunLongSimulation()
	} else {
		ran = g.Simulate(n)
	}

	slog.Info("simulation finished",
		"steps", ran,
		"state", g.State().String(),
		"viable", g.IsViable(),
	)
	g.Perf().Stats().LogStats()

	return g.Unload()
}
