package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/savanna/traits"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Field.Depth)
	assert.Equal(t, 120, cfg.Field.Width)
	assert.Equal(t, 4000, cfg.Run.LongSteps)
	require.Len(t, cfg.Species, 3)

	fox := cfg.Derived.SpeciesIndex["fox"]
	rabbit := cfg.Derived.SpeciesIndex["rabbit"]
	grass := cfg.Derived.SpeciesIndex["grass"]

	assert.Equal(t, traits.KindPlant, cfg.Derived.Kinds[grass])
	assert.True(t, cfg.Derived.Traits[fox].Has(traits.Hunter))
	assert.False(t, cfg.Derived.Traits[rabbit].Has(traits.Hunter), "grass is not an animal")
	assert.Equal(t, 9, cfg.Derived.Diets[fox][rabbit])
	assert.Equal(t, cfg.Disease, cfg.Derived.Diseases[rabbit])
}

func TestInvalidDimensionsFallBack(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero depth", "field: {depth: 0, width: 50}"},
		{"negative width", "field: {depth: 50, width: -2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, DefaultDepth, cfg.Field.Depth)
			assert.Equal(t, DefaultWidth, cfg.Field.Width)
		})
	}
}

func TestProbabilitiesClamped(t *testing.T) {
	cfg, err := Parse([]byte(`
disease:
  spread_probability: 3.5
  death_probability: -1
species:
  - name: moss
    kind: plant
    breeding_probability: 1.7
    creation_probability: -0.2
    max_litter_size: 2
    max_age: 10
`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Disease.SpreadProbability)
	assert.Equal(t, 0.0, cfg.Disease.DeathProbability)
	assert.Equal(t, 1.0, cfg.Species[0].BreedingProbability)
	assert.Equal(t, 0.0, cfg.Species[0].CreationProbability)
}

func TestUnknownDietSpecies(t *testing.T) {
	_, err := Parse([]byte(`
species:
  - name: wolf
    diet:
      - species: unicorn
        food_value: 3
`))
	require.Error(t, err)
	var unknown *UnknownSpeciesError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "unicorn", unknown.Name)
}

func TestSpeciesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate", "species: [{name: a}, {name: A}]"},
		{"missing name", "species: [{kind: plant}]"},
		{"bad kind", "species: [{name: a, kind: fungus}]"},
		{"bad trait", "species: [{name: a, traits: [wings]}]"},
		{"plant with diet", "species: [{name: a}, {name: b, kind: plant, diet: [{species: a}]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSpeciesDiseaseOverride(t *testing.T) {
	cfg, err := Parse([]byte(`
species:
  - name: bat
    traits: [susceptible]
    max_age: 10
    disease:
      spread_probability: 1
      worsen_threshold: 3
`))
	require.NoError(t, err)
	d := cfg.Derived.Diseases[0]
	assert.Equal(t, 1.0, d.SpreadProbability)
	assert.Equal(t, 3, d.WorsenThreshold)
	assert.Zero(t, d.SpontaneousProbability, "override replaces the global block")
}

func TestLoadOverlayAndWriteYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: {seed: 7}\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Run.Seed)
	assert.Equal(t, 500, cfg.Run.Steps, "unset keys keep their defaults")

	out := filepath.Join(dir, "written.yaml")
	require.NoError(t, cfg.WriteYAML(out))
	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Run, again.Run)
	assert.Equal(t, cfg.Derived.SpeciesIndex, again.Derived.SpeciesIndex)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWeatherTableOrder(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	all := cfg.Environment.Weather.All()
	require.Len(t, all, 5)
	assert.False(t, all[4].Breeding, "heat suppresses breeding")
	assert.True(t, all[2].Blinding, "fog blinds")
}

func TestCloneIsDeep(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	clone, err := cfg.Clone()
	require.NoError(t, err)
	assert.Equal(t, cfg.Species, clone.Species)
	assert.Equal(t, cfg.Derived, clone.Derived)

	clone.Species[0].BreedingProbability = 0.99
	clone.Species[1].Diet[0].FoodValue = 1
	assert.NotEqual(t, 0.99, cfg.Species[0].BreedingProbability)
	assert.NotEqual(t, 1, cfg.Species[1].Diet[0].FoodValue)
}
