// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/savanna/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Fallback field dimensions used when the configured ones are not positive.
const (
	DefaultDepth = 80
	DefaultWidth = 120
)

// Config holds all simulation configuration parameters.
type Config struct {
	Field       FieldConfig       `yaml:"field"`
	Run         RunConfig         `yaml:"run"`
	Environment EnvironmentConfig `yaml:"environment"`
	Disease     DiseaseConfig     `yaml:"disease"`
	Population  PopulationConfig  `yaml:"population"`
	Species     []SpeciesConfig   `yaml:"species"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FieldConfig holds grid dimensions.
type FieldConfig struct {
	Depth int `yaml:"depth"` // rows
	Width int `yaml:"width"` // columns
}

// RunConfig holds run control parameters.
type RunConfig struct {
	Seed      int64 `yaml:"seed"`
	Steps     int   `yaml:"steps"`      // default step count for the CLI
	LongSteps int   `yaml:"long_steps"` // steps run by RunLongSimulation
}

// EnvironmentConfig holds day/night and weather parameters.
type EnvironmentConfig struct {
	CycleLength   int                `yaml:"cycle_length"`
	DayLength     int                `yaml:"day_length"`
	WeatherPeriod int                `yaml:"weather_period"`
	Weather       WeatherTableConfig `yaml:"weather"`
}

// WeatherTableConfig holds one entry per weather kind, in draw order.
type WeatherTableConfig struct {
	Clear WeatherConfig `yaml:"clear"`
	Rain  WeatherConfig `yaml:"rain"`
	Fog   WeatherConfig `yaml:"fog"`
	Storm WeatherConfig `yaml:"storm"`
	Heat  WeatherConfig `yaml:"heat"`
}

// All returns the entries in draw order: clear, rain, fog, storm, heat.
func (t WeatherTableConfig) All() []WeatherConfig {
	return []WeatherConfig{t.Clear, t.Rain, t.Fog, t.Storm, t.Heat}
}

// WeatherConfig holds the draw weight and the effects of one weather kind.
type WeatherConfig struct {
	Weight         float64 `yaml:"weight"`          // relative draw weight
	Blinding       bool    `yaml:"blinding"`        // fog_blind species cannot feed
	Breeding       bool    `yaml:"breeding"`        // false suppresses all breeding
	PlantBreeding  float64 `yaml:"plant_breeding"`  // multiplier for plants and rain_fed species
	AnimalBreeding float64 `yaml:"animal_breeding"` // multiplier for other animals
	DiseaseSpread  float64 `yaml:"disease_spread"`  // multiplier on spread probability
}

// DiseaseConfig holds infection parameters.
type DiseaseConfig struct {
	SpontaneousProbability float64 `yaml:"spontaneous_probability"` // per step, healthy -> incubating
	SpreadProbability      float64 `yaml:"spread_probability"`      // per neighbour per step
	WorsenThreshold        int     `yaml:"worsen_threshold"`        // incubation steps before death/cure rolls
	DeathProbability       float64 `yaml:"death_probability"`
	CureProbability        float64 `yaml:"cure_probability"`
	IngestProbability      float64 `yaml:"ingest_probability"` // eating infected prey
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	FertilityScale    float64 `yaml:"fertility_scale"`    // noise frequency per cell
	FertilityStrength float64 `yaml:"fertility_strength"` // 0 disables the fertility map
}

// SpeciesConfig defines one species. A disease block, when present, replaces the
// global disease parameters for this species as a whole.
type SpeciesConfig struct {
	Name                  string         `yaml:"name"`
	Kind                  string         `yaml:"kind"` // plant | animal
	Traits                []string       `yaml:"traits,omitempty"`
	BreedingAge           int            `yaml:"breeding_age"`
	MaxAge                int            `yaml:"max_age"`
	BreedingProbability   float64        `yaml:"breeding_probability"`
	MaxLitterSize         int            `yaml:"max_litter_size"`
	MaxFood               int            `yaml:"max_food"`
	InitialFood           int            `yaml:"initial_food"`
	BreedingFoodThreshold int            `yaml:"breeding_food_threshold"` // 0 = no threshold
	MateRadius            int            `yaml:"mate_radius"`             // <=1 = adjacent only
	Diet                  []DietEntry    `yaml:"diet,omitempty"`
	CreationProbability   float64        `yaml:"creation_probability"`
	Disease               *DiseaseConfig `yaml:"disease,omitempty"`
}

// DietEntry maps a prey species to the food level it gives.
type DietEntry struct {
	Species   string `yaml:"species"`
	FoodValue int    `yaml:"food_value"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	Window   int `yaml:"window"`    // steps per aggregated stats window
	LogEvery int `yaml:"log_every"` // steps between status log lines (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]uint8 // name -> index into Species
	Kinds        []traits.Kind
	Traits       []traits.Trait
	Diets        []map[uint8]int // per species: prey index -> food value
	Diseases     []DiseaseConfig // per species, resolved
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a config from YAML bytes overlaid on the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize re-validates a config after programmatic edits.
func (c *Config) Finalize() error {
	return c.computeDerived()
}

// computeDerived applies fallbacks and resolves species references.
func (c *Config) computeDerived() error {
	if c.Field.Depth <= 0 || c.Field.Width <= 0 {
		slog.Warn("invalid_field_dimensions",
			"depth", c.Field.Depth, "width", c.Field.Width,
			"fallback_depth", DefaultDepth, "fallback_width", DefaultWidth)
		c.Field.Depth = DefaultDepth
		c.Field.Width = DefaultWidth
	}
	if c.Run.Steps < 0 {
		c.Run.Steps = 0
	}
	if c.Run.LongSteps <= 0 {
		c.Run.LongSteps = 4000
	}

	env := &c.Environment
	if env.CycleLength <= 0 {
		env.CycleLength = 1
	}
	env.DayLength = max(0, min(env.DayLength, env.CycleLength))
	if env.WeatherPeriod < 0 {
		env.WeatherPeriod = 0
	}
	for _, w := range []*WeatherConfig{&env.Weather.Clear, &env.Weather.Rain, &env.Weather.Fog, &env.Weather.Storm, &env.Weather.Heat} {
		w.Weight = max(0, w.Weight)
		w.PlantBreeding = max(0, w.PlantBreeding)
		w.AnimalBreeding = max(0, w.AnimalBreeding)
		w.DiseaseSpread = max(0, w.DiseaseSpread)
	}

	c.Disease.clamp()
	if c.Telemetry.Window <= 0 {
		c.Telemetry.Window = 1
	}

	if len(c.Species) > 255 {
		return fmt.Errorf("too many species: %d", len(c.Species))
	}

	n := len(c.Species)
	c.Derived.SpeciesIndex = make(map[string]uint8, n)
	c.Derived.Kinds = make([]traits.Kind, n)
	c.Derived.Traits = make([]traits.Trait, n)
	c.Derived.Diets = make([]map[uint8]int, n)
	c.Derived.Diseases = make([]DiseaseConfig, n)

	for i := range c.Species {
		sp := &c.Species[i]
		sp.Name = strings.ToLower(strings.TrimSpace(sp.Name))
		if sp.Name == "" {
			return fmt.Errorf("species %d: missing name", i)
		}
		if _, dup := c.Derived.SpeciesIndex[sp.Name]; dup {
			return fmt.Errorf("species %q: duplicate name", sp.Name)
		}
		c.Derived.SpeciesIndex[sp.Name] = uint8(i)
	}

	for i := range c.Species {
		sp := &c.Species[i]

		kind, err := traits.ParseKind(sp.Kind)
		if err != nil {
			return fmt.Errorf("species %q: %w", sp.Name, err)
		}
		set, err := traits.Parse(sp.Traits)
		if err != nil {
			return fmt.Errorf("species %q: %w", sp.Name, err)
		}

		sp.BreedingProbability = clamp01(sp.BreedingProbability)
		sp.CreationProbability = clamp01(sp.CreationProbability)
		sp.MaxLitterSize = max(0, sp.MaxLitterSize)
		sp.BreedingAge = max(0, sp.BreedingAge)
		if sp.MaxAge <= 0 {
			sp.MaxAge = 1
		}
		sp.MaxFood = max(0, sp.MaxFood)
		if sp.MaxFood > 0 {
			sp.InitialFood = min(sp.InitialFood, sp.MaxFood)
		}
		sp.InitialFood = max(0, sp.InitialFood)
		sp.MateRadius = max(1, sp.MateRadius)

		diet := make(map[uint8]int, len(sp.Diet))
		for _, d := range sp.Diet {
			prey, ok := c.Derived.SpeciesIndex[strings.ToLower(strings.TrimSpace(d.Species))]
			if !ok {
				return fmt.Errorf("species %q: diet: %w", sp.Name, &UnknownSpeciesError{Name: d.Species})
			}
			diet[prey] = max(0, d.FoodValue)
			if preyKind, _ := traits.ParseKind(c.Species[prey].Kind); preyKind == traits.KindAnimal {
				set = set.Add(traits.Hunter)
			}
		}
		if kind == traits.KindPlant && len(diet) > 0 {
			return fmt.Errorf("species %q: plants cannot have a diet", sp.Name)
		}

		dis := c.Disease
		if sp.Disease != nil {
			dis = *sp.Disease
			dis.clamp()
		}

		c.Derived.Kinds[i] = kind
		c.Derived.Traits[i] = set
		c.Derived.Diets[i] = diet
		c.Derived.Diseases[i] = dis
	}
	return nil
}

// UnknownSpeciesError is returned when a diet names a species that is not configured.
type UnknownSpeciesError struct {
	Name string
}

func (e *UnknownSpeciesError) Error() string {
	return fmt.Sprintf("unknown species %q", e.Name)
}

func (d *DiseaseConfig) clamp() {
	d.SpontaneousProbability = clamp01(d.SpontaneousProbability)
	d.SpreadProbability = clamp01(d.SpreadProbability)
	d.DeathProbability = clamp01(d.DeathProbability)
	d.CureProbability = clamp01(d.CureProbability)
	d.IngestProbability = clamp01(d.IngestProbability)
	d.WorsenThreshold = max(0, d.WorsenThreshold)
}

func clamp01(p float64) float64 {
	return max(0, min(p, 1))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy with derived values recomputed.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return Parse(data)
}
