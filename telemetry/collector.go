package telemetry

import (
	"github.com/pthm-cable/savanna/components"
)

// Collector accumulates lifecycle events within step windows and produces
// WindowStats. It implements systems.Recorder.
type Collector struct {
	windowSteps int
	numSpecies  int

	// Current window tracking
	windowStart int

	// Per-species event counters for the current window
	births     []int
	deaths     [][components.NumCauses]int
	infections []int
	cures      []int
}

// NewCollector creates a collector for numSpecies species flushing every
// windowSteps steps.
func NewCollector(windowSteps, numSpecies int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: windowSteps,
		numSpecies:  numSpecies,
		births:      make([]int, numSpecies),
		deaths:      make([][components.NumCauses]int, numSpecies),
		infections:  make([]int, numSpecies),
		cures:       make([]int, numSpecies),
	}
}

// RecordBirth records a birth.
func (c *Collector) RecordBirth(species uint8) {
	c.births[species]++
}

// RecordDeath records a death and its cause.
func (c *Collector) RecordDeath(species uint8, cause components.DeathCause) {
	c.deaths[species][cause]++
}

// RecordKill is counted through the prey's CauseEaten death.
func (c *Collector) RecordKill(predator, prey uint8) {}

// RecordInfection records a new infection.
func (c *Collector) RecordInfection(species uint8) {
	c.infections[species]++
}

// RecordCure records a recovery.
func (c *Collector) RecordCure(species uint8) {
	c.cures[species]++
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.windowSteps
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}

// Restart drops the current window's counters and starts a new window at step.
func (c *Collector) Restart(step int) {
	c.windowStart = step
	c.reset()
}

// Flush produces a WindowStats from the event counters and the population
// rows sampled at the window end, then resets the counters.
func (c *Collector) Flush(step int, records []PopulationRecord) WindowStats {
	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   step,
		Species:     records,
	}

	for i := range records {
		r := &records[i]
		if i < c.numSpecies {
			r.Births = c.births[i]
			for cause, n := range c.deaths[i] {
				r.Deaths += n
				switch components.DeathCause(cause) {
				case components.CauseOldAge:
					stats.DeathsOldAge += n
				case components.CauseStarvation:
					stats.DeathsStarvation += n
				case components.CauseOvercrowding:
					stats.DeathsOvercrowding += n
				case components.CauseDisease:
					stats.DeathsDisease += n
				case components.CauseEaten:
					stats.DeathsEaten += n
					r.Eaten += n
				}
			}
			stats.Births += c.births[i]
			stats.Infections += c.infections[i]
			stats.Cures += c.cures[i]
		}

		stats.Population += r.Count
		stats.Infected += r.Infected
		stats.Immune += r.Immune
		if r.Count > 0 {
			stats.SpeciesAlive++
		}
	}

	c.windowStart = step
	c.reset()
	return stats
}

func (c *Collector) reset() {
	clear(c.births)
	clear(c.deaths)
	clear(c.infections)
	clear(c.cures)
}
