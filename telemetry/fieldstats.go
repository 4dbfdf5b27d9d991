package telemetry

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/systems"
)

// FieldStats counts the occupants of a field per species. It doubles as the
// default viability check.
type FieldStats struct {
	counts   []int
	infected []int
	immune   []int
	ages     [][]float64
	foods    [][]float64
}

// NewFieldStats creates an empty counter.
func NewFieldStats() *FieldStats {
	return &FieldStats{}
}

// Count scans the field row by row and tallies every live occupant.
func (fs *FieldStats) Count(w *systems.World) {
	n := len(w.Species())
	fs.counts = resizeInts(fs.counts, n)
	fs.infected = resizeInts(fs.infected, n)
	fs.immune = resizeInts(fs.immune, n)
	if len(fs.ages) != n {
		fs.ages = make([][]float64, n)
		fs.foods = make([][]float64, n)
	}
	for i := range fs.ages {
		fs.ages[i] = fs.ages[i][:0]
		fs.foods[i] = fs.foods[i][:0]
	}

	field := w.Field()
	for row := 0; row < field.Depth(); row++ {
		for col := 0; col < field.Width(); col++ {
			e, ok := field.GetAt(row, col)
			if !ok || !w.IsAlive(e) {
				continue
			}
			org := w.Organism(e)
			s := org.Species
			fs.counts[s]++
			switch w.Infection(e).State {
			case components.Incubating:
				fs.infected[s]++
			case components.Immune:
				fs.immune[s]++
			}
			fs.ages[s] = append(fs.ages[s], float64(org.Age))
			fs.foods[s] = append(fs.foods[s], float64(org.Food))
		}
	}
}

func resizeInts(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	s = s[:n]
	clear(s)
	return s
}

// Counts returns the per-species population from the last Count.
func (fs *FieldStats) Counts() []int { return fs.counts }

// Total returns the total population from the last Count.
func (fs *FieldStats) Total() int {
	total := 0
	for _, c := range fs.counts {
		total += c
	}
	return total
}

// Alive returns how many species have at least one live member.
func (fs *FieldStats) Alive() int {
	alive := 0
	for _, c := range fs.counts {
		if c > 0 {
			alive++
		}
	}
	return alive
}

// IsViable recounts the field and reports whether the run should continue:
// at least two species are alive and at least one of them eats another.
func (fs *FieldStats) IsViable(w *systems.World) bool {
	fs.Count(w)
	if fs.Alive() < 2 {
		return false
	}
	species := w.Species()
	for i := range species {
		if fs.counts[i] == 0 {
			continue
		}
		for prey := range species[i].Diet {
			if int(prey) != i && fs.counts[prey] > 0 {
				return true
			}
		}
	}
	return false
}

// PopulationDetails recounts and returns a one-line summary such as "fox: 3 rabbit: 41".
func (fs *FieldStats) PopulationDetails(w *systems.World) string {
	fs.Count(w)
	var b strings.Builder
	for i, sp := range w.Species() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s: %d", sp.Name, fs.counts[i])
	}
	return b.String()
}

// Records converts the last Count into per-species population rows.
func (fs *FieldStats) Records(step int, w *systems.World) []PopulationRecord {
	species := w.Species()
	records := make([]PopulationRecord, len(species))
	for i, sp := range species {
		ageMean, ageStd, _, _, _ := ComputeStats(fs.ages[i])
		foodMean, _, p10, p50, p90 := ComputeStats(fs.foods[i])
		records[i] = PopulationRecord{
			Step:     step,
			Species:  sp.Name,
			Count:    fs.counts[i],
			Infected: fs.infected[i],
			Immune:   fs.immune[i],
			AgeMean:  ageMean,
			AgeStd:   ageStd,
			FoodMean: foodMean,
			FoodP10:  p10,
			FoodP50:  p50,
			FoodP90:  p90,
		}
	}
	return records
}
