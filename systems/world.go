// Package systems implements the per-organism simulation rules on top of the ECS world.
package systems

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/grid"
)

// Recorder receives lifecycle events as they happen during a sweep.
type Recorder interface {
	RecordBirth(species uint8)
	RecordDeath(species uint8, cause components.DeathCause)
	RecordKill(predator, prey uint8)
	RecordInfection(species uint8)
	RecordCure(species uint8)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) RecordBirth(uint8)                        {}
func (NopRecorder) RecordDeath(uint8, components.DeathCause) {}
func (NopRecorder) RecordKill(uint8, uint8)                  {}
func (NopRecorder) RecordInfection(uint8)                    {}
func (NopRecorder) RecordCure(uint8)                         {}

// World owns the ECS store, the field and the random stream shared by all rules.
type World struct {
	world   *ecs.World
	spawner *ecs.Map3[components.Organism, components.Position, components.Infection]
	orgMap  *ecs.Map[components.Organism]
	posMap  *ecs.Map[components.Position]
	infMap  *ecs.Map[components.Infection]
	all     *ecs.Filter1[components.Organism]

	field    *grid.Field
	rng      *rand.Rand
	species  []Species
	recorder Recorder
	nextID   uint32
}

// NewWorld creates an empty world. The field and rng are shared with the caller;
// every stochastic decision draws from rng.
func NewWorld(field *grid.Field, species []Species, rng *rand.Rand) *World {
	w := ecs.NewWorld()
	return &World{
		world:    w,
		spawner:  ecs.NewMap3[components.Organism, components.Position, components.Infection](w),
		orgMap:   ecs.NewMap[components.Organism](w),
		posMap:   ecs.NewMap[components.Position](w),
		infMap:   ecs.NewMap[components.Infection](w),
		all:      ecs.NewFilter1[components.Organism](w),
		field:    field,
		rng:      rng,
		species:  species,
		recorder: NopRecorder{},
		nextID:   1,
	}
}

// SetRecorder installs the event sink. nil restores the no-op recorder.
func (w *World) SetRecorder(r Recorder) {
	if r == nil {
		r = NopRecorder{}
	}
	w.recorder = r
}

// Field returns the grid.
func (w *World) Field() *grid.Field { return w.field }

// Rand returns the shared random stream.
func (w *World) Rand() *rand.Rand { return w.rng }

// Species returns the species table.
func (w *World) Species() []Species { return w.species }

// SpeciesOf returns the parameter set for e's species.
func (w *World) SpeciesOf(e ecs.Entity) *Species {
	return &w.species[w.orgMap.Get(e).Species]
}

// Organism returns e's organism component.
func (w *World) Organism(e ecs.Entity) *components.Organism { return w.orgMap.Get(e) }

// Position returns e's position component.
func (w *World) Position(e ecs.Entity) *components.Position { return w.posMap.Get(e) }

// Infection returns e's infection component.
func (w *World) Infection(e ecs.Entity) *components.Infection { return w.infMap.Get(e) }

// Spawn creates a live organism of the given species at loc. loc must be free.
// Gender is drawn from the shared stream.
func (w *World) Spawn(species uint8, loc grid.Location, age int) ecs.Entity {
	sp := &w.species[species]

	gender := components.Male
	if w.rng.Intn(2) == 1 {
		gender = components.Female
	}

	org := components.Organism{
		ID:      w.nextID,
		Species: species,
		Gender:  gender,
		Age:     age,
		Food:    sp.InitialFood,
		Alive:   true,
	}
	w.nextID++
	pos := components.Position{Loc: loc, Placed: true}
	inf := components.Infection{}

	e := w.spawner.NewEntity(&org, &pos, &inf)
	w.field.Place(e, loc)
	return e
}

// IsAlive reports whether e exists and has not died.
func (w *World) IsAlive(e ecs.Entity) bool {
	return w.world.Alive(e) && w.orgMap.Get(e).Alive
}

// SetDead marks e dead and clears its cell. Calling it on a dead organism is a no-op.
func (w *World) SetDead(e ecs.Entity, cause components.DeathCause) {
	if !w.IsAlive(e) {
		return
	}
	org := w.orgMap.Get(e)
	org.Alive = false
	org.Cause = cause

	pos := w.posMap.Get(e)
	if pos.Placed {
		if occ, ok := w.field.Get(pos.Loc); ok && occ == e {
			w.field.Clear(pos.Loc)
		}
		pos.Placed = false
	}
	w.recorder.RecordDeath(org.Species, cause)
}

// SetLocation moves e to loc, clearing its previous cell.
func (w *World) SetLocation(e ecs.Entity, loc grid.Location) {
	w.field.Place(e, loc)
	pos := w.posMap.Get(e)
	pos.Loc = loc
	pos.Placed = true
}

// Remove deletes e from the ECS store. e must already be dead.
func (w *World) Remove(e ecs.Entity) {
	if grid.DebugChecks && w.IsAlive(e) {
		panic(fmt.Sprintf("systems: removing live organism %d", w.orgMap.Get(e).ID))
	}
	w.world.RemoveEntity(e)
}

// Clear removes every organism and empties the field.
func (w *World) Clear() {
	// First pass: collect (queries must finish before the world is modified)
	var toRemove []ecs.Entity
	query := w.all.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	// Second pass: remove
	for _, e := range toRemove {
		w.world.RemoveEntity(e)
	}
	w.field.ClearAll()
	w.nextID = 1
}

// Count returns the number of organisms in the ECS store, dead or alive.
func (w *World) Count() int {
	n := 0
	query := w.all.Query()
	for query.Next() {
		n++
	}
	return n
}

// chance runs one Bernoulli trial against the shared stream.
func (w *World) chance(p float64) bool {
	return w.rng.Float64() < p
}
