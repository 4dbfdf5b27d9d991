package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of steps.
type WindowStats struct {
	RunID       string `csv:"run_id"`
	WindowStart int    `csv:"-"`
	WindowEnd   int    `csv:"window_end"`

	// Population at window end
	Population   int  `csv:"population"`
	SpeciesAlive int  `csv:"species_alive"`
	Infected     int  `csv:"infected"`
	Immune       int  `csv:"immune"`
	Viable       bool `csv:"viable"`

	// Events during window
	Births             int `csv:"births"`
	DeathsOldAge       int `csv:"deaths_old_age"`
	DeathsStarvation   int `csv:"deaths_starvation"`
	DeathsOvercrowding int `csv:"deaths_overcrowding"`
	DeathsDisease      int `csv:"deaths_disease"`
	DeathsEaten        int `csv:"deaths_eaten"`
	Infections         int `csv:"infections"`
	Cures              int `csv:"cures"`

	// Field fingerprint at window end (hex xxhash)
	Digest string `csv:"digest"`

	// Per-species breakdown, written to population.csv
	Species []PopulationRecord `csv:"-"`
}

// PopulationRecord is one species' row for a window.
type PopulationRecord struct {
	RunID    string  `csv:"run_id"`
	Step     int     `csv:"step"`
	Species  string  `csv:"species"`
	Count    int     `csv:"count"`
	Births   int     `csv:"births"`
	Deaths   int     `csv:"deaths"`
	Eaten    int     `csv:"eaten"`
	Infected int     `csv:"infected"`
	Immune   int     `csv:"immune"`
	AgeMean  float64 `csv:"age_mean"`
	AgeStd   float64 `csv:"age_std"`
	FoodMean float64 `csv:"food_mean"`
	FoodP10  float64 `csv:"food_p10"`
	FoodP50  float64 `csv:"food_p50"`
	FoodP90  float64 `csv:"food_p90"`
}

// Deaths returns the total deaths in the window.
func (s WindowStats) Deaths() int {
	return s.DeathsOldAge + s.DeathsStarvation + s.DeathsOvercrowding + s.DeathsDisease + s.DeathsEaten
}

// Count returns the population of the named species, or 0.
func (s WindowStats) Count(species string) int {
	for _, r := range s.Species {
		if r.Species == species {
			return r.Count
		}
	}
	return 0
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean, population std-dev and percentiles.
func ComputeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("population", s.Population),
		slog.Int("species_alive", s.SpeciesAlive),
		slog.Int("infected", s.Infected),
		slog.Int("immune", s.Immune),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths()),
		slog.Int("infections", s.Infections),
		slog.Int("cures", s.Cures),
		slog.Bool("viable", s.Viable),
	}
	for _, r := range s.Species {
		attrs = append(attrs, slog.Int(r.Species, r.Count))
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
