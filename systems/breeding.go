package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/environment"
	"github.com/pthm-cable/savanna/grid"
	"github.com/pthm-cable/savanna/traits"
)

// canBreed checks age, food and, for sexual species, that e is a female with an
// eligible male of the same species in reach.
func (w *World) canBreed(e ecs.Entity, org *components.Organism, sp *Species) bool {
	if org.Age < sp.BreedingAge {
		return false
	}
	if sp.BreedingFoodThreshold > 0 && org.Food <= sp.BreedingFoodThreshold {
		return false
	}
	if sp.Traits.Has(traits.Asexual) {
		return true
	}
	// Only the female triggers a birth so a pair is not counted twice per sweep.
	if org.Gender != components.Female {
		return false
	}
	_, ok := w.findMate(e, org, sp)
	return ok
}

// findMate returns a live, opposite-gender, breeding-age organism of e's species
// within the species' mate radius.
func (w *World) findMate(e ecs.Entity, org *components.Organism, sp *Species) (ecs.Entity, bool) {
	pos := w.posMap.Get(e)
	var candidates []grid.Location
	if sp.MateRadius > 1 {
		candidates = w.field.RadiusLocations(pos.Loc, sp.MateRadius)
	} else {
		candidates = w.field.AdjacentLocations(pos.Loc)
	}
	for _, loc := range candidates {
		other, ok := w.field.Get(loc)
		if !ok || other == e || !w.IsAlive(other) {
			continue
		}
		mate := w.orgMap.Get(other)
		if mate.Species != org.Species || mate.Gender != org.Gender.Opposite() {
			continue
		}
		if mate.Age >= sp.BreedingAge {
			return other, true
		}
	}
	return ecs.Entity{}, false
}

// litterSize rolls the breeding probability and, on success, a uniform litter
// size in [1, MaxLitterSize]. Zero means no births.
func (w *World) litterSize(sp *Species, multiplier float64) int {
	if sp.MaxLitterSize <= 0 {
		return 0
	}
	p := min(1, sp.BreedingProbability*multiplier)
	if !w.chance(p) {
		return 0
	}
	return w.rng.Intn(sp.MaxLitterSize) + 1
}

// breed places newborns one per free neighbour of e's current cell. The litter is
// truncated when free cells run out. Returns the number of births.
// Component pointers fetched before the call are stale afterwards.
func (w *World) breed(e ecs.Entity, sp *Species, fx environment.Effects, newborns *[]ecs.Entity) int {
	if !w.canBreed(e, w.orgMap.Get(e), sp) {
		return 0
	}
	n := w.litterSize(sp, fx.BreedingMultiplier(sp.Kind, sp.Traits))
	if n == 0 {
		return 0
	}

	free := w.field.FreeAdjacentLocations(w.posMap.Get(e).Loc)
	births := 0
	for _, loc := range free {
		if births == n {
			break
		}
		child := w.Spawn(sp.Index, loc, 0)
		*newborns = append(*newborns, child)
		w.recorder.RecordBirth(sp.Index)
		births++
	}
	return births
}
