package main

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/game"
	"github.com/pthm-cable/savanna/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxSteps   int
	seeds      []int64
	baseConfig *config.Config

	mu           sync.Mutex
	lastQuality  float64 // quality from most recent Evaluate call
	lastSurvival float64 // mean survival steps from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxSteps int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxSteps:   maxSteps,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastSurvival returns the mean survival steps from the most recent evaluation.
func (fe *FitnessEvaluator) LastSurvival() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSurvival
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalSteps int                     // steps before the field stopped being viable
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness  float64
	quality  float64
	survival int
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel on independent games. A configuration that cannot
// be built scores 0, the worst possible value.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := fe.buildConfig(x)
	if err != nil {
		slog.Warn("invalid_parameters", "error", err)
		return 0
	}

	results := make([]seedResult, len(fe.seeds))
	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			result, err := fe.runSimulation(cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			quality := computeQuality(result.windowStats)
			results[i] = seedResult{
				fitness:  computeFitness(result.survivalSteps, quality),
				quality:  quality,
				survival: result.survivalSteps,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Warn("evaluation_failed", "error", err)
		return 0
	}

	var totalFitness, totalQuality, totalSurvival float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalSurvival += float64(r.survival)
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastSurvival = totalSurvival / n
	fe.mu.Unlock()

	return totalFitness / n
}

// buildConfig copies the base config and applies x.
func (fe *FitnessEvaluator) buildConfig(x []float64) (*config.Config, error) {
	cfg, err := fe.baseConfig.Clone()
	if err != nil {
		return nil, err
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSimulation executes a single headless run until the field is no longer
// viable or maxSteps is reached. cfg is shared read-only between seeds.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (*runResult, error) {
	result := &runResult{}

	g, err := game.NewGameWithOptions(cfg, game.Options{
		Seed: seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}

	result.survivalSteps = g.Simulate(fe.maxSteps)
	return result, g.Unload()
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalSteps × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func computeFitness(survivalSteps int, quality float64) float64 {
	return -(float64(survivalSteps) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightCoexistence = 0.40
	qualityWeightStability   = 0.40
	qualityWeightHealth      = 0.20

	qualityWarmupWindows = 3 // skip first N windows (warmup)
)

// computeQuality computes ecosystem quality ∈ [0, 1] from window stats:
// how many species coexist, how steady their counts are, and how little of
// the population is infected.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]
	numSpecies := len(valid[0].Species)
	if numSpecies == 0 {
		return 0
	}

	// 1. Coexistence: share of species alive, averaged per window
	var coexist, health float64
	var healthCount int
	for _, w := range valid {
		coexist += float64(w.SpeciesAlive) / float64(numSpecies)
		if w.Population > 0 {
			health += 1 - float64(w.Infected)/float64(w.Population)
			healthCount++
		}
	}
	coexistScore := coexist / float64(len(valid))

	// 2. Stability: CV of each species' count across windows
	stabilityScore := 0.0
	if len(valid) >= 2 {
		var cvSum float64
		counts := make([]float64, len(valid))
		for s := 0; s < numSpecies; s++ {
			for i, w := range valid {
				counts[i] = float64(w.Species[s].Count)
			}
			c := cv(counts)
			cvSum += c * c
		}
		stabilityScore = math.Exp(-cvSum / float64(numSpecies))
	}

	// 3. Health: share of the population not infected
	healthScore := 0.0
	if healthCount > 0 {
		healthScore = health / float64(healthCount)
	}

	quality := qualityWeightCoexistence*coexistScore +
		qualityWeightStability*stabilityScore +
		qualityWeightHealth*healthScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Max(0, math.Min(x, 1))
}
