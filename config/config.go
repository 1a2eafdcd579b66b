// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/genome"
	"github.com/pthm-cable/dots/scene"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Scheduling modes.
const (
	ModeSelf     = "self"
	ModeExternal = "external"
)

// Brains a living dot can decide with.
const (
	BrainRandom   = "random"
	BrainForaging = "foraging"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Genome    GenomeConfig    `yaml:"genome"`
	Vitality  VitalityConfig  `yaml:"vitality"`
	Actions   ActionsConfig   `yaml:"actions"`
	Seeding   SeedingConfig   `yaml:"seeding"`
	Fertility FertilityConfig `yaml:"fertility"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window parameters. The window size follows the grid.
type ScreenConfig struct {
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
}

// GridConfig holds grid dimensions.
type GridConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"` // Screen pixels per cell
}

// ScheduleConfig selects how dots are driven.
type ScheduleConfig struct {
	Mode             string        `yaml:"mode"`
	DormantInterval  time.Duration `yaml:"dormant_interval"`
	UpdatesPerSecond int           `yaml:"updates_per_second"` // Broadcast ticks per second in external mode
}

// GenomeConfig scales the timing genes.
type GenomeConfig struct {
	ReactionBase time.Duration `yaml:"reaction_base"`
	ReactionStep time.Duration `yaml:"reaction_step"`
}

// VitalityConfig holds the vitality lifecycle rates.
type VitalityConfig struct {
	Initial      float64 `yaml:"initial"` // Vitality of pre-populated dormant cells
	AgeIncrement float64 `yaml:"age_increment"`
	AgeDecay     float64 `yaml:"age_decay"`
	RegrowthRate float64 `yaml:"regrowth_rate"`
	SeedVitality float64 `yaml:"seed_vitality"`
	KeepRemains  bool    `yaml:"keep_remains"` // Dead genomes stay behind for the next seed to recombine with
}

// ActionsConfig holds parameters of the digest and seed actions.
type ActionsConfig struct {
	DigestMax      float64       `yaml:"digest_max"`
	SeedCost       float64       `yaml:"seed_cost"`
	ReactionJitter time.Duration `yaml:"reaction_jitter"`
	Compass8       bool          `yaml:"compass8"`
	Brain          string        `yaml:"brain"` // random or foraging
}

// SeedingConfig controls the initial population.
type SeedingConfig struct {
	Seed               int64 `yaml:"seed"`
	Spacing            int   `yaml:"spacing"`
	Offset             int   `yaml:"offset"`
	PerCell            int   `yaml:"per_cell"`
	Prepopulate        bool  `yaml:"prepopulate"`
	ReseedOnExtinction bool  `yaml:"reseed_on_extinction"`
	ReseedCount        int   `yaml:"reseed_count"`
}

// FertilityConfig shapes the regrowth ceiling field.
type FertilityConfig struct {
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Scale      float64 `yaml:"scale"`
	Octaves    int     `yaml:"octaves"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
	Contrast   float64 `yaml:"contrast"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         time.Duration `yaml:"stats_window"`
	BookmarkHistorySize int           `yaml:"bookmark_history_size"`
	PerfCollectorWindow int           `yaml:"perf_collector_window"`
	HallOfFameSize      int           `yaml:"hall_of_fame_size"`
	HallOfFameMinAge    float64       `yaml:"hall_of_fame_min_age"`
}

// MetricsConfig holds the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // Empty disables /metrics
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW, ScreenH int32         // Window size in pixels
	Scale32          float32       // Grid.Scale as float32
	ExternalTicks    bool          // Schedule.Mode == external
	UpdateInterval   time.Duration // Period of broadcast ticks
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
		// Only keys present in the file overwrite the defaults
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("config: grid must be at least 1x1, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.Scale <= 0 {
		return fmt.Errorf("config: grid.scale must be positive, got %v", c.Grid.Scale)
	}
	switch c.Schedule.Mode {
	case ModeSelf, ModeExternal:
	default:
		return fmt.Errorf("config: schedule.mode must be %q or %q, got %q", ModeSelf, ModeExternal, c.Schedule.Mode)
	}
	switch c.Actions.Brain {
	case BrainRandom, BrainForaging:
	default:
		return fmt.Errorf("config: actions.brain must be %q or %q, got %q", BrainRandom, BrainForaging, c.Actions.Brain)
	}
	if c.Genome.ReactionBase < 0 || c.Genome.ReactionStep < 0 {
		return fmt.Errorf("config: genome reaction times must not be negative")
	}
	if c.Seeding.Spacing <= 0 {
		return fmt.Errorf("config: seeding.spacing must be positive, got %d", c.Seeding.Spacing)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Scale32 = float32(c.Grid.Scale)
	c.Derived.ScreenW = int32(float64(c.Grid.Width) * c.Grid.Scale)
	c.Derived.ScreenH = int32(float64(c.Grid.Height) * c.Grid.Scale)
	c.Derived.ExternalTicks = c.Schedule.Mode == ModeExternal

	ups := c.Schedule.UpdatesPerSecond
	if ups <= 0 {
		ups = 12
	}
	c.Derived.UpdateInterval = time.Second / time.Duration(ups)
}

// DotParams converts the lifecycle sections into dots.Params.
func (c *Config) DotParams() dots.Params {
	return dots.Params{
		Genome: genome.Params{
			ReactionBase: c.Genome.ReactionBase,
			ReactionStep: c.Genome.ReactionStep,
		},
		DormantInterval: c.Schedule.DormantInterval,
		ReactionJitter:  c.Actions.ReactionJitter,
		AgeIncrement:    float32(c.Vitality.AgeIncrement),
		AgeDecay:        float32(c.Vitality.AgeDecay),
		RegrowthRate:    float32(c.Vitality.RegrowthRate),
		SeedVitality:    float32(c.Vitality.SeedVitality),
		SeedCost:        float32(c.Actions.SeedCost),
		DigestMax:       float32(c.Actions.DigestMax),
		KeepRemains:     c.Vitality.KeepRemains,
		Compass8:        c.Actions.Compass8,
	}
}

// Brain returns the decision strategy named by actions.brain.
func (c *Config) Brain() dots.Brain {
	if c.Actions.Brain == BrainForaging {
		return dots.ForagingBrain{Compass8: c.Actions.Compass8}
	}
	return dots.RandomBrain{Compass8: c.Actions.Compass8}
}

// FertilityParams converts the fertility section. seed picks the noise field.
func (c *Config) FertilityParams(seed int64) scene.FertilityParams {
	return scene.FertilityParams{
		Min:        float32(c.Fertility.Min),
		Max:        float32(c.Fertility.Max),
		Scale:      float32(c.Fertility.Scale),
		Octaves:    c.Fertility.Octaves,
		Lacunarity: float32(c.Fertility.Lacunarity),
		Gain:       float32(c.Fertility.Gain),
		Contrast:   float32(c.Fertility.Contrast),
		Seed:       seed,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
