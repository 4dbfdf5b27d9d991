package game

import (
	"fmt"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/grid"
	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// Species indices in testYAML.
const (
	fox    uint8 = 0
	rabbit uint8 = 1
	grass  uint8 = 2
)

// testYAML: always day, clear weather, no spontaneous disease.
const testYAML = `
environment:
  cycle_length: 1
  day_length: 1
  weather_period: 0
disease:
  spontaneous_probability: 0
  spread_probability: 1
  worsen_threshold: 5
  death_probability: 0
  cure_probability: 1
  ingest_probability: 0
telemetry:
  window: 10
species:
  - name: fox
    breeding_age: 50
    max_age: 500
    breeding_probability: 0.3
    max_litter_size: 2
    max_food: 7
    initial_food: 7
    diet: [{species: rabbit, food_value: 9}]
    creation_probability: 0.03
  - name: rabbit
    traits: [susceptible]
    breeding_age: 3
    max_age: 60
    breeding_probability: 0.3
    max_litter_size: 4
    max_food: 20
    initial_food: 20
    diet: [{species: grass, food_value: 6}]
    creation_probability: 0.1
  - name: grass
    kind: plant
    traits: [asexual]
    breeding_age: 1
    max_age: 500
    breeding_probability: 1
    max_litter_size: 8
    creation_probability: 0.2
`

func testConfig(t *testing.T, depth, width int, overlay ...string) *config.Config {
	t.Helper()
	data := fmt.Sprintf("field: {depth: %d, width: %d}\n", depth, width) + testYAML
	for _, o := range overlay {
		data += o
	}
	cfg, err := config.Parse([]byte(data))
	require.NoError(t, err)
	return cfg
}

// placement is one organism for fixedPopulator.
type placement struct {
	species uint8
	loc     grid.Location
	age     int
	gender  components.Gender
	state   components.InfectionState
}

// fixedPopulator spawns a fixed list of organisms in order.
type fixedPopulator []placement

func (p fixedPopulator) Populate(w *systems.World) []ecs.Entity {
	actors := make([]ecs.Entity, 0, len(p))
	for _, pl := range p {
		e := w.Spawn(pl.species, pl.loc, pl.age)
		w.Organism(e).Gender = pl.gender
		w.Infection(e).State = pl.state
		actors = append(actors, e)
	}
	return actors
}

// countView records per-species counts and the field digest after every step.
type countView struct {
	stats   *telemetry.FieldStats
	counts  [][]int
	digests []uint64
}

func newCountView() *countView { return &countView{stats: telemetry.NewFieldStats()} }

func (v *countView) ShowStatus(step int, w *systems.World) {
	v.stats.Count(w)
	v.counts = append(v.counts, append([]int(nil), v.stats.Counts()...))
	v.digests = append(v.digests, telemetry.Digest(w))
}

// deathRecorder keeps death causes in the order they happen.
type deathRecorder struct {
	systems.NopRecorder
	causes []components.DeathCause
}

func (r *deathRecorder) RecordDeath(_ uint8, cause components.DeathCause) {
	r.causes = append(r.causes, cause)
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	g, err := NewGameWithOptions(cfg, opts)
	require.NoError(t, err)
	return g
}

// assertOccupancy checks the actor list, the field and positions agree.
func assertOccupancy(t *testing.T, g *Game) {
	t.Helper()
	w := g.World()
	seen := make(map[grid.Location]ecs.Entity)
	for _, e := range g.Actors() {
		require.True(t, w.IsAlive(e), "dead actor left in list")
		pos := w.Position(e)
		require.True(t, pos.Placed)
		occ, ok := w.Field().Get(pos.Loc)
		require.True(t, ok, "cell %v empty", pos.Loc)
		require.Equal(t, e, occ, "cell %v holds another organism", pos.Loc)
		_, dup := seen[pos.Loc]
		require.False(t, dup, "two actors at %v", pos.Loc)
		seen[pos.Loc] = e
	}
	assert.Equal(t, len(g.Actors()), w.Field().Occupied())
	assert.Equal(t, len(g.Actors()), w.Count(), "dead organisms left in the store")
}

func TestNewGamePopulates(t *testing.T) {
	g := newTestGame(t, testConfig(t, 20, 20), Options{})

	assert.Equal(t, 0, g.Step())
	assert.Equal(t, Idle, g.State())
	assert.NotEmpty(t, g.Actors())
	assertOccupancy(t, g)
}

func TestOccupancyInvariantHoldsEveryStep(t *testing.T) {
	g := newTestGame(t, testConfig(t, 15, 15), Options{Seed: 3})

	for i := 0; i < 150; i++ {
		g.SimulateOneStep()
		assertOccupancy(t, g)
	}
	assert.Equal(t, 150, g.Step())
}

func TestReproducibleRuns(t *testing.T) {
	cfg := testConfig(t, 25, 25)

	run := func() *countView {
		v := newCountView()
		g := newTestGame(t, cfg, Options{Seed: 11, Views: []View{v}})
		g.Simulate(120)
		return v
	}

	a, b := run(), run()
	require.Equal(t, len(a.counts), len(b.counts))
	assert.Equal(t, a.counts, b.counts)
	assert.Equal(t, a.digests, b.digests)
}

func TestDifferentSeedsDiverge(t *testing.T) {
	cfg := testConfig(t, 25, 25)
	va, vb := newCountView(), newCountView()
	newTestGame(t, cfg, Options{Seed: 1, Views: []View{va}})
	newTestGame(t, cfg, Options{Seed: 2, Views: []View{vb}})

	assert.NotEqual(t, va.digests[0], vb.digests[0])
}

func TestSingleCellField(t *testing.T) {
	cfg := testConfig(t, 1, 1)
	g := newTestGame(t, cfg, Options{
		Populator: fixedPopulator{{species: rabbit, loc: grid.At(0, 0)}},
	})
	require.Len(t, g.Actors(), 1)
	e := g.Actors()[0]

	rec := &deathRecorder{}
	g.World().SetRecorder(rec)

	g.SimulateOneStep()

	assert.False(t, g.World().IsAlive(e))
	assert.Equal(t, []components.DeathCause{components.CauseOvercrowding}, rec.causes)
	assert.Empty(t, g.Actors())
	assert.Zero(t, g.World().Count(), "dead organism not removed from the store")
	assert.Zero(t, g.World().Field().Occupied())
}

func TestNewbornEatenInSameStepIsRemoved(t *testing.T) {
	// One row: the grass breeds into (0,1), the only cell the rabbit can reach.
	g := newTestGame(t, testConfig(t, 1, 3), Options{
		Populator: fixedPopulator{
			{species: grass, loc: grid.At(0, 0), age: 5},
			{species: rabbit, loc: grid.At(0, 2), age: 5},
		},
	})
	parent, r := g.Actors()[0], g.Actors()[1]
	rec := &deathRecorder{}
	g.World().SetRecorder(rec)

	g.SimulateOneStep()

	assert.Equal(t, []components.DeathCause{components.CauseEaten}, rec.causes)
	assert.Equal(t, []ecs.Entity{parent, r}, g.Actors())
	assert.Equal(t, 2, g.World().Count())
	assert.Equal(t, grid.At(0, 1), g.World().Position(r).Loc)
	assertOccupancy(t, g)
}

func TestPredatorEatsAdjacentPrey(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			g := newTestGame(t, testConfig(t, 10, 10), Options{
				Seed: seed,
				Populator: fixedPopulator{
					{species: fox, loc: grid.At(5, 5)},
					{species: rabbit, loc: grid.At(5, 6)},
				},
			})
			w := g.World()
			predator, prey := g.Actors()[0], g.Actors()[1]
			rec := &deathRecorder{}
			w.SetRecorder(rec)

			g.SimulateOneStep()

			require.True(t, w.IsAlive(predator))
			assert.False(t, w.IsAlive(prey))
			assert.Equal(t, []components.DeathCause{components.CauseEaten}, rec.causes)
			assert.Equal(t, 7, w.Organism(predator).Food, "food capped at max_food")
			assert.Equal(t, grid.At(5, 6), w.Position(predator).Loc)
			assert.Equal(t, []ecs.Entity{predator}, g.Actors())
		})
	}
}

func TestNewbornsJoinAfterSweep(t *testing.T) {
	g := newTestGame(t, testConfig(t, 5, 5), Options{
		Populator: fixedPopulator{{species: grass, loc: grid.At(2, 2), age: 5}},
	})
	parent := g.Actors()[0]

	g.SimulateOneStep()

	require.Greater(t, len(g.Actors()), 1)
	assert.Equal(t, parent, g.Actors()[0], "existing actors keep their order")
	for _, e := range g.Actors()[1:] {
		assert.Zero(t, g.World().Organism(e).Age, "newborn acted in its birth step")
	}
	assert.LessOrEqual(t, len(g.Actors())-1, 8)
	assertOccupancy(t, g)
}

func TestEatenActorIsSkippedNotDoubleProcessed(t *testing.T) {
	// The rabbit sits after the fox in the list and is eaten before its turn.
	g := newTestGame(t, testConfig(t, 6, 6), Options{
		Populator: fixedPopulator{
			{species: fox, loc: grid.At(0, 0)},
			{species: rabbit, loc: grid.At(0, 1), age: 4},
			{species: rabbit, loc: grid.At(5, 5), age: 4},
		},
	})
	w := g.World()
	predator, eaten, other := g.Actors()[0], g.Actors()[1], g.Actors()[2]
	rec := &deathRecorder{}
	w.SetRecorder(rec)

	g.SimulateOneStep()

	assert.False(t, w.IsAlive(eaten))
	assert.Equal(t, []components.DeathCause{components.CauseEaten}, rec.causes, "eaten rabbit dies once")
	require.True(t, w.IsAlive(other))
	assert.Equal(t, 5, w.Organism(other).Age, "live rabbit acts exactly once")
	assert.Equal(t, []ecs.Entity{predator, other}, g.Actors())
	assertOccupancy(t, g)
}

func TestSimulateStopsWhenNotViable(t *testing.T) {
	g := newTestGame(t, testConfig(t, 5, 5), Options{
		Populator: fixedPopulator{{species: grass, loc: grid.At(0, 0)}},
	})

	assert.False(t, g.IsViable())
	assert.Zero(t, g.Simulate(10))
	assert.Equal(t, Terminated, g.State())
	assert.Zero(t, g.Step())

	g.Reset()
	assert.Equal(t, Idle, g.State())
}

func TestSimulateRunsRequestedSteps(t *testing.T) {
	g := newTestGame(t, testConfig(t, 4, 4), Options{
		Populator: fixedPopulator{
			{species: fox, loc: grid.At(0, 0)},
			{species: rabbit, loc: grid.At(3, 3)},
		},
		Viability: alwaysViable{},
	})

	assert.Equal(t, 25, g.Simulate(25))
	assert.Equal(t, 25, g.Step())
	assert.Equal(t, Idle, g.State())
}

type alwaysViable struct{}

func (alwaysViable) IsViable(*systems.World) bool { return true }

func TestRunLongSimulation(t *testing.T) {
	cfg := testConfig(t, 20, 20, "run: {long_steps: 300}\n")
	g := newTestGame(t, cfg, Options{Seed: 5})

	n := g.RunLongSimulation()

	assert.LessOrEqual(t, n, 300)
	assert.Equal(t, n, g.Step())
	if n < 300 {
		assert.Equal(t, Terminated, g.State())
		assert.False(t, g.IsViable())
	}
	assertOccupancy(t, g)
}

func TestResetRepopulates(t *testing.T) {
	g := newTestGame(t, testConfig(t, 12, 12), Options{Seed: 9})
	g.Simulate(20)

	g.Reset()

	assert.Zero(t, g.Step())
	assert.Zero(t, g.Environment().Step())
	assert.Equal(t, len(g.Actors()), g.World().Count(), "ECS store holds only the new population")
	assertOccupancy(t, g)
}

func TestCertainSpreadInfectsNeighbourWithinOneStep(t *testing.T) {
	cfg := testConfig(t, 8, 8, `
  - name: vole
    traits: [susceptible]
    breeding_age: 5000
    max_age: 5000
    max_food: 5000
    initial_food: 5000
`)
	const vole uint8 = 3
	g := newTestGame(t, cfg, Options{
		Populator: fixedPopulator{
			{species: vole, loc: grid.At(4, 4), state: components.Incubating},
			{species: vole, loc: grid.At(4, 5)},
		},
		Viability: alwaysViable{},
	})
	w := g.World()
	healthy := g.Actors()[1]

	g.SimulateOneStep()
	require.Equal(t, components.Incubating, w.Infection(healthy).State)

	prev := components.Incubating
	for i := 1; i < 1000 && w.IsAlive(healthy); i++ {
		g.SimulateOneStep()
		state := w.Infection(healthy).State
		assert.NotEqual(t, components.Healthy, state, "step %d", g.Step())
		if prev == components.Immune {
			assert.Equal(t, components.Immune, state, "immune is absorbing")
		}
		prev = state
	}
	assert.Equal(t, components.Immune, prev, "cure_probability 1 cures after worsen_threshold")
}
