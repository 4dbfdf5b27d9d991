package main

import (
	"fmt"
	"math"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/traits"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Value in the base config
	Integer bool    // Rounded before it is applied

	get func(cfg *config.Config) float64
	set func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector builds the parameter set from the species in the base config.
// Every species gets its breeding and creation knobs; animals also get their
// food capacity and diet values.
func NewParamVector(base *config.Config) *ParamVector {
	pv := &ParamVector{}
	for i := range base.Species {
		sp := &base.Species[i]
		name := sp.Name

		pv.add(ParamSpec{
			Name: name + "_breeding_probability", Path: fmt.Sprintf("species.%s.breeding_probability", name),
			Min: 0.01, Max: 0.5,
			get: func(c *config.Config) float64 { return c.Species[i].BreedingProbability },
			set: func(c *config.Config, v float64) { c.Species[i].BreedingProbability = v },
		}, base)
		pv.add(ParamSpec{
			Name: name + "_max_litter_size", Path: fmt.Sprintf("species.%s.max_litter_size", name),
			Min: 1, Max: 8, Integer: true,
			get: func(c *config.Config) float64 { return float64(c.Species[i].MaxLitterSize) },
			set: func(c *config.Config, v float64) { c.Species[i].MaxLitterSize = int(v) },
		}, base)
		pv.add(ParamSpec{
			Name: name + "_creation_probability", Path: fmt.Sprintf("species.%s.creation_probability", name),
			Min: 0.005, Max: 0.3,
			get: func(c *config.Config) float64 { return c.Species[i].CreationProbability },
			set: func(c *config.Config, v float64) { c.Species[i].CreationProbability = v },
		}, base)

		if base.Derived.Kinds[i] == traits.KindPlant {
			continue
		}

		pv.add(ParamSpec{
			Name: name + "_max_food", Path: fmt.Sprintf("species.%s.max_food", name),
			Min: 4, Max: 40, Integer: true,
			get: func(c *config.Config) float64 { return float64(c.Species[i].MaxFood) },
			set: func(c *config.Config, v float64) { c.Species[i].MaxFood = int(v) },
		}, base)
		for j := range sp.Diet {
			prey := sp.Diet[j].Species
			pv.add(ParamSpec{
				Name: fmt.Sprintf("%s_food_value_%s", name, prey), Path: fmt.Sprintf("species.%s.diet.%s", name, prey),
				Min: 1, Max: 30, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Species[i].Diet[j].FoodValue) },
				set: func(c *config.Config, v float64) { c.Species[i].Diet[j].FoodValue = int(v) },
			}, base)
		}
	}
	return pv
}

// add appends spec with its default read from base, widening the bounds when
// the base value lies outside them.
func (pv *ParamVector) add(spec ParamSpec, base *config.Config) {
	spec.Default = spec.get(base)
	spec.Min = math.Min(spec.Min, spec.Default)
	spec.Max = math.Max(spec.Max, spec.Default)
	pv.Specs = append(pv.Specs, spec)
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if spec.Max == spec.Min {
			continue
		}
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds. Integer parameters are rounded.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(v[i], spec.Max))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config and re-derives it.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	return cfg.Finalize()
}

// ExtractFromConfig extracts current parameter values from a Config.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
