package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/grid"
)

// feed eats the first edible neighbour found in a shuffled adjacency scan.
// It returns the cell the prey occupied.
func (w *World) feed(e ecs.Entity, org *components.Organism, sp *Species) (grid.Location, bool) {
	if len(sp.Diet) == 0 {
		return grid.Location{}, false
	}
	pos := w.posMap.Get(e)
	for _, loc := range w.field.AdjacentLocations(pos.Loc) {
		prey, ok := w.field.Get(loc)
		if !ok || !w.IsAlive(prey) {
			continue
		}
		preyOrg := w.orgMap.Get(prey)
		value, edible := sp.Diet[preyOrg.Species]
		if !edible {
			continue
		}

		w.ingest(e, sp, prey)
		w.SetDead(prey, components.CauseEaten)
		w.recorder.RecordKill(org.Species, preyOrg.Species)

		org.Food = value
		if sp.MaxFood > 0 {
			org.Food = min(value, sp.MaxFood)
		}
		return loc, true
	}
	return grid.Location{}, false
}

// ingest may pass an incubating prey's infection to the eater.
func (w *World) ingest(e ecs.Entity, sp *Species, prey ecs.Entity) {
	if !sp.Susceptible() {
		return
	}
	if w.infMap.Get(prey).State != components.Incubating {
		return
	}
	inf := w.infMap.Get(e)
	if inf.State != components.Healthy {
		return
	}
	if w.chance(sp.Disease.IngestProbability) {
		inf.Infect()
		w.recorder.RecordInfection(sp.Index)
	}
}
