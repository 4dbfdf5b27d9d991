// Package environment tracks the day/night phase and the weather.
package environment

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/traits"
)

// Phase is the time of day.
type Phase uint8

const (
	Day Phase = iota
	Night
)

func (p Phase) String() string {
	if p == Night {
		return "night"
	}
	return "day"
}

// Weather is one of a closed set of weather kinds.
type Weather uint8

const (
	Clear Weather = iota
	Rain
	Fog
	Storm
	Heat
	NumWeather
)

var weatherNames = [NumWeather]string{"clear", "rain", "fog", "storm", "heat"}

func (w Weather) String() string {
	if w < NumWeather {
		return weatherNames[w]
	}
	return fmt.Sprintf("weather(%d)", uint8(w))
}

// Effects are the gates and multipliers the current weather applies.
type Effects struct {
	Blinding       bool    // fog_blind species cannot feed
	Breeding       bool    // false suppresses all breeding
	PlantBreeding  float64 // plants and rain_fed species
	AnimalBreeding float64
	DiseaseSpread  float64
}

// Hunting reports whether a species with the given traits may feed.
func (e Effects) Hunting(t traits.Trait) bool {
	return !(e.Blinding && t.Has(traits.FogBlind))
}

// BreedingMultiplier returns the factor applied to a species' breeding probability.
func (e Effects) BreedingMultiplier(k traits.Kind, t traits.Trait) float64 {
	if !e.Breeding {
		return 0
	}
	if k == traits.KindPlant || t.Has(traits.RainFed) {
		return e.PlantBreeding
	}
	return e.AnimalBreeding
}

// Modulator holds the per-simulation environment state. It knows nothing about
// individual organisms.
type Modulator struct {
	cycleLength   int
	dayLength     int
	weatherPeriod int
	weights       [NumWeather]float64
	effects       [NumWeather]Effects
	rng           *rand.Rand

	step    int
	weather Weather
}

// New creates a modulator at step 0 with clear weather.
func New(cfg config.EnvironmentConfig, rng *rand.Rand) *Modulator {
	m := &Modulator{
		cycleLength:   max(1, cfg.CycleLength),
		dayLength:     cfg.DayLength,
		weatherPeriod: cfg.WeatherPeriod,
		rng:           rng,
	}
	for i, w := range cfg.Weather.All() {
		m.weights[i] = w.Weight
		m.effects[i] = Effects{
			Blinding:       w.Blinding,
			Breeding:       w.Breeding,
			PlantBreeding:  w.PlantBreeding,
			AnimalBreeding: w.AnimalBreeding,
			DiseaseSpread:  w.DiseaseSpread,
		}
	}
	return m
}

// Reset returns to step 0 with clear weather.
func (m *Modulator) Reset() {
	m.step = 0
	m.weather = Clear
}

// Advance moves to the given step, redrawing the weather on period boundaries.
func (m *Modulator) Advance(step int) {
	m.step = step
	if m.weatherPeriod > 0 && step > 0 && step%m.weatherPeriod == 0 {
		m.weather = m.drawWeather()
	}
}

func (m *Modulator) drawWeather() Weather {
	var total float64
	for _, w := range m.weights {
		total += w
	}
	if total <= 0 {
		return Clear
	}
	r := m.rng.Float64() * total
	for i, w := range m.weights {
		if r < w {
			return Weather(i)
		}
		r -= w
	}
	// Float rounding can leave r just above the last bucket.
	for i := NumWeather - 1; i > 0; i-- {
		if m.weights[i] > 0 {
			return i
		}
	}
	return Clear
}

// Step returns the current step.
func (m *Modulator) Step() int { return m.step }

// Phase is a pure function of the step counter.
func (m *Modulator) Phase() Phase {
	if m.step%m.cycleLength < m.dayLength {
		return Day
	}
	return Night
}

// Weather returns the current weather.
func (m *Modulator) Weather() Weather { return m.weather }

// SetWeather forces the current weather until the next draw.
func (m *Modulator) SetWeather(w Weather) {
	if w < NumWeather {
		m.weather = w
	}
}

// Effects returns the effects of the current weather.
func (m *Modulator) Effects() Effects {
	return m.effects[m.weather]
}

// Active reports whether a species with the given traits acts in the current phase.
func (m *Modulator) Active(t traits.Trait) bool {
	if m.Phase() == Day {
		return traits.ActiveByDay(t)
	}
	return traits.ActiveAtNight(t)
}
