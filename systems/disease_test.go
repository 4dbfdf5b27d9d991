package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/grid"
)

func TestCertainSpreadInfectsOnFirstContact(t *testing.T) {
	f := newFixture(t, 10, 10, 1)
	carrier := f.spawn(rabbit, grid.At(5, 5), 0, components.Male)
	healthy := f.spawn(rabbit, grid.At(5, 6), 0, components.Male)
	require.True(t, f.w.Infect(carrier))

	var newborns []ecs.Entity
	f.w.Act(carrier, f.env, &newborns)

	assert.Equal(t, components.Incubating, f.w.Infection(healthy).State)
	assert.Equal(t, 1, f.w.Infection(carrier).Duration)
	assert.Equal(t, 2, f.rec.infections)
}

func TestSpreadSkipsResistantSpecies(t *testing.T) {
	f := newFixture(t, 5, 5, 1)
	carrier := f.spawn(rabbit, grid.At(2, 2), 0, components.Male)
	plant := f.spawn(grass, grid.At(2, 3), 0, components.Male)
	require.True(t, f.w.Infect(carrier))
	assert.False(t, f.w.Infect(plant), "grass is not susceptible")

	f.w.progressDisease(carrier, f.w.SpeciesOf(carrier), f.env.Effects())
	assert.Equal(t, components.Healthy, f.w.Infection(plant).State)
}

func TestImmuneNeverReinfected(t *testing.T) {
	f := newFixture(t, 5, 5, 1)
	carrier := f.spawn(rabbit, grid.At(2, 2), 0, components.Male)
	immune := f.spawn(rabbit, grid.At(2, 3), 0, components.Male)
	require.True(t, f.w.Infect(carrier))
	f.w.Infection(immune).State = components.Immune

	for i := 0; i < 100; i++ {
		f.w.progressDisease(carrier, f.w.SpeciesOf(carrier), f.env.Effects())
	}
	assert.Equal(t, components.Immune, f.w.Infection(immune).State)
	assert.False(t, f.w.Infect(immune))
}

func TestWorsenThenDieOrCure(t *testing.T) {
	tests := []struct {
		name      string
		overlay   string
		wantAlive bool
		wantState components.InfectionState
	}{
		{
			name: "certain death",
			overlay: `
  - name: vole
    traits: [susceptible]
    max_age: 1000
    max_food: 1000
    initial_food: 1000
    disease: {worsen_threshold: 3, death_probability: 1, cure_probability: 1}
`,
			wantAlive: false,
			wantState: components.Incubating,
		},
		{
			name: "certain cure",
			overlay: `
  - name: vole
    traits: [susceptible]
    max_age: 1000
    max_food: 1000
    initial_food: 1000
    disease: {worsen_threshold: 3, death_probability: 0, cure_probability: 1}
`,
			wantAlive: true,
			wantState: components.Immune,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 5, 5, 1, tt.overlay)
			vole := f.spawn(3, grid.At(2, 2), 0, components.Male)
			require.True(t, f.w.Infect(vole))
			sp := f.w.SpeciesOf(vole)

			// Below the threshold nothing is rolled.
			f.w.progressDisease(vole, sp, f.env.Effects())
			f.w.progressDisease(vole, sp, f.env.Effects())
			require.True(t, f.w.IsAlive(vole))
			require.Equal(t, components.Incubating, f.w.Infection(vole).State)

			f.w.progressDisease(vole, sp, f.env.Effects())
			assert.Equal(t, tt.wantAlive, f.w.IsAlive(vole))
			assert.Equal(t, tt.wantState, f.w.Infection(vole).State)
			if !tt.wantAlive {
				assert.Equal(t, components.CauseDisease, f.w.Organism(vole).Cause)
			}
		})
	}
}

func TestDiseaseChainIsMonotonic(t *testing.T) {
	f := newFixture(t, 6, 6, 11, `
  - name: fern
    kind: plant
    traits: [susceptible]
    max_age: 10000
    disease:
      spontaneous_probability: 0.2
      spread_probability: 0.3
      worsen_threshold: 2
      death_probability: 0.2
      cure_probability: 0.4
`)
	fern := uint8(3)
	var all []ecs.Entity
	for row := 0; row < 6; row++ {
		for col := 0; col < 6; col++ {
			all = append(all, f.spawn(fern, grid.At(row, col), 0, components.Male))
		}
	}

	last := make(map[ecs.Entity]components.InfectionState)
	var newborns []ecs.Entity
	for step := 0; step < 200; step++ {
		for _, e := range all {
			f.w.Act(e, f.env, &newborns)
		}
		for _, e := range all {
			state := f.w.Infection(e).State
			require.GreaterOrEqual(t, state, last[e], "state went backwards")
			last[e] = state
			if !f.w.IsAlive(e) && f.w.Organism(e).Cause == components.CauseDisease {
				assert.Equal(t, components.Incubating, state)
			}
		}
		assertOccupancy(t, f.w, all)
	}
	assert.Empty(t, newborns, "max litter size is zero")
	assert.Positive(t, f.rec.cures)
}

func TestIngestInfectsEater(t *testing.T) {
	f := newFixture(t, 5, 5, 1)
	pred := f.spawn(fox, grid.At(2, 2), 0, components.Female)
	prey := f.spawn(rabbit, grid.At(2, 3), 0, components.Male)
	require.True(t, f.w.Infect(prey))

	var newborns []ecs.Entity
	f.w.Act(pred, f.env, &newborns)

	require.False(t, f.w.IsAlive(prey))
	assert.Equal(t, components.Incubating, f.w.Infection(pred).State)
}
