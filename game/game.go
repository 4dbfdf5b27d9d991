// Package game drives the simulation: it owns the actor list, steps every
// organism once per step, and reports to views.
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/environment"
	"github.com/pthm-cable/savanna/grid"
	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// State is the stepper's run state.
type State uint8

const (
	Idle       State = iota // ready to step
	Stepping                // inside SimulateOneStep
	Terminated              // Simulate stopped on a non-viable field
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Viability decides whether a run should continue.
type Viability interface {
	IsViable(w *systems.World) bool
}

// Options configures a Game. Zero values select the defaults.
type Options struct {
	Seed      int64     // 0 = cfg.Run.Seed
	Populator Populator // nil = RandomPopulator
	Viability Viability // nil = telemetry.FieldStats
	Views     []View

	// Telemetry
	LogStats      bool   // log window stats and bookmarks
	OutputDir     string // CSV output directory (empty = disabled)
	Compress      bool   // zstd-compress CSV output
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	field *grid.Field
	world *systems.World
	env   *environment.Modulator

	// Live actors in step order. Dead handles stay until the commit phase.
	actors   []ecs.Entity
	newborns []ecs.Entity

	populator Populator
	viability Viability
	views     []View

	telemetry     *telemetryView
	outputManager *telemetry.OutputManager
	perfCollector *telemetry.PerfCollector

	step      int
	state     State
	startedAt time.Time
}

// NewGame creates a game with default options.
func NewGame(cfg *config.Config) *Game {
	g, err := NewGameWithOptions(cfg, Options{})
	if err != nil {
		// Only output setup can fail and it is disabled by default.
		panic(err)
	}
	return g
}

// NewGameWithOptions creates a game and populates the field.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	field := grid.NewField(cfg.Field.Depth, cfg.Field.Width, rng)
	g := &Game{
		cfg:           cfg,
		seed:          seed,
		rng:           rng,
		field:         field,
		world:         systems.NewWorld(field, systems.NewSpeciesTable(cfg), rng),
		env:           environment.New(cfg.Environment, rng),
		populator:     opts.Populator,
		viability:     opts.Viability,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.Window),
		startedAt:     time.Now(),
	}
	if g.populator == nil {
		g.populator = NewRandomPopulator(cfg.Population)
	}
	if g.viability == nil {
		g.viability = telemetry.NewFieldStats()
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir, opts.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, fmt.Errorf("writing config: %w", err)
		}
	}
	g.outputManager = om

	g.telemetry = newTelemetryView(cfg.Telemetry, len(cfg.Species), om, g.perfCollector)
	g.telemetry.logStats = opts.LogStats
	g.telemetry.statsCallback = opts.StatsCallback
	g.world.SetRecorder(g.telemetry.collector)

	g.views = append([]View{g.telemetry}, opts.Views...)

	g.Reset()
	return g, nil
}

// Reset empties the field, repopulates it and notifies views with step 0.
func (g *Game) Reset() {
	g.world.Clear()
	g.env.Reset()
	g.step = 0
	g.state = Idle
	g.newborns = g.newborns[:0]
	g.perfCollector.Reset()

	g.actors = g.populator.Populate(g.world)
	g.showStatus()
}

// IsViable reports whether the run should continue.
func (g *Game) IsViable() bool {
	return g.viability.IsViable(g.world)
}

// Step returns the number of steps run since the last reset.
func (g *Game) Step() int { return g.step }

// State returns the run state.
func (g *Game) State() State { return g.state }

// World returns the simulation world.
func (g *Game) World() *systems.World { return g.world }

// Actors returns the actor list. It may contain dead handles during a step.
func (g *Game) Actors() []ecs.Entity { return g.actors }

// Environment returns the environment modulator.
func (g *Game) Environment() *environment.Modulator { return g.env }

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// Seed returns the seed of the shared random stream.
func (g *Game) Seed() int64 { return g.seed }

// Perf returns the step timing collector.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perfCollector }

// Unload writes the run summary and closes output files.
func (g *Game) Unload() error {
	if g.outputManager == nil {
		return nil
	}

	names := make([]string, len(g.cfg.Species))
	for i, sc := range g.cfg.Species {
		names[i] = sc.Name
	}
	stats := telemetry.NewFieldStats()
	info := telemetry.RunInfo{
		Seed:       g.seed,
		Depth:      g.field.Depth(),
		Width:      g.field.Width(),
		Species:    names,
		StartedAt:  g.startedAt,
		FinishedAt: time.Now(),
		Steps:      g.step,
		Viable:     stats.IsViable(g.world),
		Digest:     telemetry.DigestString(g.world),
		Population: stats.PopulationDetails(g.world),
	}
	err := g.outputManager.WriteRunInfo(info)
	if cerr := g.outputManager.Close(); err == nil {
		err = cerr
	}
	g.outputManager = nil
	return err
}
