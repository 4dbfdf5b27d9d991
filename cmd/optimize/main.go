// Package main searches species parameters with CMA-ES for settings that keep
// a savanna ecosystem viable for as long as possible.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/savanna/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxSteps := flag.Int("max-steps", 4000, "Step cap per simulation")
	seeds := flag.Int("seeds", 3, "Seeds per evaluation")
	baseSeed := flag.Int64("base-seed", 42, "First evaluation seed; the rest are spaced 1000 apart")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = 4 + 1.5×dim)")
	stepSize := flag.Float64("step-size", 0.3, "Initial CMA-ES step size in normalized space")
	outputDir := flag.String("output", "", "Output directory for optimize_log.csv and best_config.yaml")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		return errors.New("-output is required")
	}
	if *seeds < 1 {
		return fmt.Errorf("-seeds must be positive, got %d", *seeds)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(*configPath); err != nil {
		return err
	}
	base := config.Cfg()

	params := NewParamVector(base)
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = *baseSeed + int64(i)*1000
	}
	evaluator := NewFitnessEvaluator(params, *maxSteps, evalSeeds, base)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating optimize log: %w", err)
	}
	defer logFile.Close()
	evals, err := newEvalLog(logFile, params)
	if err != nil {
		return err
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	start := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			survival, quality := evaluator.LastSurvival(), evaluator.LastQuality()
			if err := evals.record(fitness, survival, quality, params.Clamp(raw)); err != nil {
				slog.Warn("log_write_failed", "error", err)
			}

			_, best := evals.best()
			elapsed := time.Since(start)
			eta := time.Duration(*maxEvals-evals.count) * (elapsed / time.Duration(evals.count))
			slog.Info("evaluation",
				"eval", evals.count,
				"max_evals", *maxEvals,
				"survival", survival,
				"quality", quality,
				"best", best,
				"elapsed", elapsed.Round(time.Second).String(),
				"eta", eta.Round(time.Second).String(),
			)
			return fitness
		},
	}

	slog.Info("optimization_started",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", *maxEvals,
		"seeds", evalSeeds,
		"max_steps", *maxSteps,
	)

	// Seeds already run in parallel inside Evaluate, so evaluations stay sequential.
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: *stepSize, Population: popSize}
	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		slog.Info("optimization_stopped", "reason", err)
	}

	bestParams, bestFitness := evals.best()
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	slog.Info("optimization_complete",
		"evals", evals.count,
		"duration", time.Since(start).Round(time.Second).String(),
		"best_fitness", bestFitness,
	)
	if bestParams == nil {
		return nil
	}

	return writeBestConfig(base, params, bestParams, filepath.Join(*outputDir, "best_config.yaml"))
}

// writeBestConfig applies best to a copy of base and saves it as YAML.
func writeBestConfig(base *config.Config, params *ParamVector, best []float64, path string) error {
	cfg, err := base.Clone()
	if err != nil {
		return fmt.Errorf("copying config: %w", err)
	}
	if err := params.ApplyToConfig(cfg, best); err != nil {
		return fmt.Errorf("applying best parameters: %w", err)
	}
	for i, spec := range params.Specs {
		slog.Info("best_parameter", "path", spec.Path, "value", best[i])
	}
	if err := cfg.WriteYAML(path); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best_config_saved", "path", path)
	return nil
}
