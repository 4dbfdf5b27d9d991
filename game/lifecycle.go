package game

import (
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/grid"
	"github.com/pthm-cable/savanna/systems"
)

// Populator fills an empty field and returns the created actors in step order.
type Populator interface {
	Populate(w *systems.World) []ecs.Entity
}

// RandomPopulator scans the field row by row. Each cell tries the species in
// configured order and spawns the first one whose creation roll succeeds.
// Organisms start at a random age.
//
// Plant creation probability is scaled by a simplex noise fertility map, so
// plants start out in patches rather than uniformly.
type RandomPopulator struct {
	FertilityScale    float64 // noise frequency per cell
	FertilityStrength float64 // 0 disables the map
}

// NewRandomPopulator creates a populator from the population config.
func NewRandomPopulator(cfg config.PopulationConfig) *RandomPopulator {
	return &RandomPopulator{
		FertilityScale:    cfg.FertilityScale,
		FertilityStrength: cfg.FertilityStrength,
	}
}

// Populate implements Populator.
func (p *RandomPopulator) Populate(w *systems.World) []ecs.Entity {
	rng := w.Rand()
	species := w.Species()
	field := w.Field()

	var fertility opensimplex.Noise
	if p.FertilityStrength > 0 {
		fertility = opensimplex.NewNormalized(rng.Int63())
	}

	var actors []ecs.Entity
	for row := 0; row < field.Depth(); row++ {
		for col := 0; col < field.Width(); col++ {
			scale := 1.0
			if fertility != nil {
				n := fertility.Eval2(float64(col)*p.FertilityScale, float64(row)*p.FertilityScale)
				scale = max(0, 1+p.FertilityStrength*(2*n-1))
			}

			for i := range species {
				sp := &species[i]
				prob := sp.CreationProbability
				if sp.IsPlant() {
					prob *= scale
				}
				if rng.Float64() >= prob {
					continue
				}
				actors = append(actors, w.Spawn(sp.Index, grid.At(row, col), randomAge(w, sp)))
				break
			}
		}
	}
	return actors
}

func randomAge(w *systems.World, sp *systems.Species) int {
	if sp.MaxAge <= 0 {
		return 0
	}
	return w.Rand().Intn(sp.MaxAge)
}
