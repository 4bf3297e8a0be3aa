package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Grid.Size != 10 {
		t.Errorf("grid.size = %d, want 10", cfg.Grid.Size)
	}
	if cfg.Infection.InfectionProbability != 10 || cfg.Infection.DeathProbability != 3 {
		t.Errorf("probabilities = %d/%d, want 10/3",
			cfg.Infection.InfectionProbability, cfg.Infection.DeathProbability)
	}
	if cfg.Infection.DaysMin != 2 || cfg.Infection.DaysMax != 4 {
		t.Errorf("days = [%d,%d), want [2,4)", cfg.Infection.DaysMin, cfg.Infection.DaysMax)
	}
	if cfg.Derived.Cells != 100 {
		t.Errorf("derived cells = %d, want 100", cfg.Derived.Cells)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("grid:\n  size: 25\nseeds:\n  - {x: 3, y: 4}\n  - {x: 5, y: 6}\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Grid.Size != 25 {
		t.Errorf("grid.size = %d, want 25", cfg.Grid.Size)
	}
	// Fields absent from the file keep their defaults
	if cfg.Infection.DaysMax != 4 {
		t.Errorf("days_max = %d, want default 4", cfg.Infection.DaysMax)
	}
	if len(cfg.Seeds) != 2 || cfg.Seeds[1] != (SeedConfig{X: 5, Y: 6}) {
		t.Errorf("seeds = %+v", cfg.Seeds)
	}
	if cfg.Derived.Cells != 625 {
		t.Errorf("derived cells = %d, want 625", cfg.Derived.Cells)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero size", func(c *Config) { c.Grid.Size = 0 }, "grid.size"},
		{"infection over 100", func(c *Config) { c.Infection.InfectionProbability = 101 }, "infection.infection_probability"},
		{"negative death", func(c *Config) { c.Infection.DeathProbability = -1 }, "infection.death_probability"},
		{"negative days_min", func(c *Config) { c.Infection.DaysMin = -2 }, "infection.days_min"},
		{"max equals min", func(c *Config) { c.Infection.DaysMin, c.Infection.DaysMax = 3, 3 }, "infection.days_max"},
		{"max below min", func(c *Config) { c.Infection.DaysMin, c.Infection.DaysMax = 5, 2 }, "infection.days_max"},
		{"negative delay", func(c *Config) { c.Run.DelayUS = -1 }, "run.delay_us"},
		{"video without fps", func(c *Config) { c.Telemetry.Video, c.Telemetry.VideoFPS = true, 0 }, "telemetry.video_fps"},
		{"video without cell size", func(c *Config) { c.Telemetry.Video, c.Telemetry.VideoCell = true, 0 }, "telemetry.video_cell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Grid.Size = 7
	cfg.Seeds = []SeedConfig{{X: 1, Y: 2}}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Grid.Size != 7 || len(loaded.Seeds) != 1 {
		t.Errorf("round trip lost values: size=%d seeds=%v", loaded.Grid.Size, loaded.Seeds)
	}
}
