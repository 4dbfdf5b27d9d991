package systems

import (
	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/traits"
)

// Species is the read-only parameter set shared by every organism of a species.
type Species struct {
	Name   string
	Index  uint8
	Kind   traits.Kind
	Traits traits.Trait

	BreedingAge           int
	MaxAge                int
	BreedingProbability   float64
	MaxLitterSize         int
	MaxFood               int // 0 = uncapped
	InitialFood           int
	BreedingFoodThreshold int // 0 = no threshold
	MateRadius            int
	Diet                  map[uint8]int // prey species -> food value
	CreationProbability   float64

	Disease config.DiseaseConfig
}

// NewSpeciesTable builds the species table from a finalized config.
func NewSpeciesTable(cfg *config.Config) []Species {
	table := make([]Species, len(cfg.Species))
	for i, sc := range cfg.Species {
		table[i] = Species{
			Name:                  sc.Name,
			Index:                 uint8(i),
			Kind:                  cfg.Derived.Kinds[i],
			Traits:                cfg.Derived.Traits[i],
			BreedingAge:           sc.BreedingAge,
			MaxAge:                sc.MaxAge,
			BreedingProbability:   sc.BreedingProbability,
			MaxLitterSize:         sc.MaxLitterSize,
			MaxFood:               sc.MaxFood,
			InitialFood:           sc.InitialFood,
			BreedingFoodThreshold: sc.BreedingFoodThreshold,
			MateRadius:            sc.MateRadius,
			Diet:                  cfg.Derived.Diets[i],
			CreationProbability:   sc.CreationProbability,
			Disease:               cfg.Derived.Diseases[i],
		}
	}
	return table
}

// Eats reports whether this species feeds on prey.
func (s *Species) Eats(prey uint8) bool {
	_, ok := s.Diet[prey]
	return ok
}

// IsPlant reports whether the species is a plant.
func (s *Species) IsPlant() bool { return s.Kind == traits.KindPlant }

// Susceptible reports whether the species can catch disease.
func (s *Species) Susceptible() bool { return s.Traits.Has(traits.Susceptible) }
