// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Infection InfectionConfig `yaml:"infection"`
	Run       RunConfig       `yaml:"run"`
	Seeds     []SeedConfig    `yaml:"seeds"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Window    WindowConfig    `yaml:"window"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the simulation grid dimensions.
type GridConfig struct {
	Size int `yaml:"size"` // Grid is Size x Size cells
}

// InfectionConfig holds the infection parameters. They are fixed for the
// duration of a run.
type InfectionConfig struct {
	InfectionProbability int `yaml:"infection_probability"` // 0-100, per exposure
	DeathProbability     int `yaml:"death_probability"`     // 0-100, per infectious day
	DaysMin              int `yaml:"days_min"`
	DaysMax              int `yaml:"days_max"` // exclusive
}

// RunConfig holds run-loop and pacing parameters.
type RunConfig struct {
	RandomSeed  uint32 `yaml:"random_seed"` // 0 = time-based
	Interactive bool   `yaml:"interactive"`
	Quiet       bool   `yaml:"quiet"`
	DelayUS     int    `yaml:"delay_us"`
}

// SeedConfig is one initially infected cell.
type SeedConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	LogStats  bool   `yaml:"log_stats"`
	OutputDir string `yaml:"output_dir"`
	Curve     bool   `yaml:"curve"`      // write curve.png to OutputDir
	Video     bool   `yaml:"video"`      // write grid.avi to OutputDir
	VideoFPS  int    `yaml:"video_fps"`  // frames (days) per second of video
	VideoCell int    `yaml:"video_cell"` // pixels per cell in video frames
}

// WindowConfig holds settings for the graphical renderer.
type WindowConfig struct {
	CellSize      int     `yaml:"cell_size"`
	TargetFPS     int     `yaml:"target_fps"`
	DaysPerSecond float64 `yaml:"days_per_second"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Cells    int // Grid.Size squared
	CureSpan int // DaysMax - DaysMin
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
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

// Defaults returns a fresh copy of the embedded default configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
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

	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Call again after overriding fields (e.g. from CLI flags).
func (c *Config) ComputeDerived() {
	c.Derived.Cells = c.Grid.Size * c.Grid.Size
	c.Derived.CureSpan = c.Infection.DaysMax - c.Infection.DaysMin
}

// Validate checks parameter ranges. The first problem found is returned as
// a *ConfigError.
func (c *Config) Validate() error {
	inf := c.Infection
	switch {
	case c.Grid.Size <= 0:
		return &ConfigError{Field: "grid.size", Reason: fmt.Sprintf("must be positive, got %d", c.Grid.Size)}
	case inf.InfectionProbability < 0 || inf.InfectionProbability > 100:
		return &ConfigError{Field: "infection.infection_probability", Reason: fmt.Sprintf("must be in [0,100], got %d", inf.InfectionProbability)}
	case inf.DeathProbability < 0 || inf.DeathProbability > 100:
		return &ConfigError{Field: "infection.death_probability", Reason: fmt.Sprintf("must be in [0,100], got %d", inf.DeathProbability)}
	case inf.DaysMin < 0:
		return &ConfigError{Field: "infection.days_min", Reason: fmt.Sprintf("must not be negative, got %d", inf.DaysMin)}
	case inf.DaysMax <= inf.DaysMin:
		return &ConfigError{Field: "infection.days_max", Reason: fmt.Sprintf("must be greater than days_min (%d), got %d", inf.DaysMin, inf.DaysMax)}
	case c.Run.DelayUS < 0:
		return &ConfigError{Field: "run.delay_us", Reason: fmt.Sprintf("must not be negative, got %d", c.Run.DelayUS)}
	case c.Telemetry.Video && c.Telemetry.VideoFPS <= 0:
		return &ConfigError{Field: "telemetry.video_fps", Reason: fmt.Sprintf("must be positive, got %d", c.Telemetry.VideoFPS)}
	case c.Telemetry.Video && c.Telemetry.VideoCell <= 0:
		return &ConfigError{Field: "telemetry.video_cell", Reason: fmt.Sprintf("must be positive, got %d", c.Telemetry.VideoCell)}
	}
	return nil
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
