package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/series"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OutputDir != "figures" {
		t.Errorf("expected output dir figures, got %s", cfg.OutputDir)
	}
	if cfg.Hovmoller.Clip != 0.8 {
		t.Errorf("expected clip 0.8, got %f", cfg.Hovmoller.Clip)
	}
	if len(cfg.LPS.Adjusts) != 2 {
		t.Errorf("expected two adjusts, got %v", cfg.LPS.Adjusts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("northern")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Segment.Hemisphere != "north" {
		t.Errorf("expected hemisphere north, got %s", cfg.Segment.Hemisphere)
	}

	cfg.LPS.Adjusts[0] = 9
	if Presets["northern"].LPS.Adjusts[0] == 9 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
	for _, name := range presets {
		if err := Presets[name].Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"path in name", func(c *Config) { c.Name = "a/b" }},
		{"partial windows", func(c *Config) { c.Segment.Windows = filter.Windows{Filter: 10} }},
		{"negative incipient", func(c *Config) { c.Segment.MinIncipientLength = -1 }},
		{"hemisphere", func(c *Config) { c.Segment.Hemisphere = "east" }},
		{"degenerate", func(c *Config) { c.Segment.Degenerate = "ignore" }},
		{"flat fraction", func(c *Config) { c.Segment.FlatFraction = 1.5 }},
		{"no adjusts", func(c *Config) { c.LPS.Adjusts = nil }},
		{"zero adjust", func(c *Config) { c.LPS.Adjusts = []float64{0} }},
		{"clip", func(c *Config) { c.Hovmoller.Clip = 0 }},
		{"levels", func(c *Config) { c.Hovmoller.Levels = 1 }},
		{"hour", func(c *Config) { c.Diurnal.Hours = []int{24} }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestParams(t *testing.T) {
	cfg := DefaultConfig()
	p, err := cfg.Params(200)
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Windows != (filter.Windows{Filter: 50, Smoothing: 41, Smoothing2: 41}) {
		t.Errorf("expected derived windows, got %+v", p.Windows)
	}

	cfg.Segment.Windows = filter.Windows{Filter: 8, Smoothing: 7, Smoothing2: 5}
	cfg.Segment.MinIncipientLength = 6
	p, err = cfg.Params(200)
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Filter != 8 || p.Smoothing2 != 5 || p.MinIncipientLength != 6 {
		t.Errorf("expected configured windows, got %+v", p)
	}

	if _, err := DefaultConfig().Params(3); !errors.Is(err, series.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestOptions_Hemisphere(t *testing.T) {
	tests := []struct {
		configured string
		inferred   phase.Hemisphere
		want       phase.Hemisphere
	}{
		{"south", phase.North, phase.South},
		{"north", "", phase.North},
		{"auto", phase.North, phase.North},
		{"auto", "", phase.South},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Segment.Hemisphere = tt.configured
		if got := cfg.Options(tt.inferred).Hemisphere; got != tt.want {
			t.Errorf("Options(%q) with %q: got %s, want %s", tt.inferred, tt.configured, got, tt.want)
		}
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyclophase.yaml")
	cfg := DefaultConfig()
	cfg.Name = "yaku"
	cfg.Segment.MinIncipientLength = 4
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "yaku" || got.Segment.MinIncipientLength != 4 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "name: akara\nsegmentation:\n  windows:\n    filter: 12\n    smoothing: 9\n    smoothing_twice: 9\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Segment.Windows.Filter != 12 || cfg.Hovmoller.Clip != 0.8 || cfg.OutputDir != "figures" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("hovmoller:\n  clip: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadOver_KeepsPresetValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.yaml")
	if err := os.WriteFile(path, []byte("name: mycase\n"), 0644); err != nil {
		t.Fatal(err)
	}
	base := GetPreset("yaku")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatalf("LoadOver: %v", err)
	}
	if cfg.Name != "mycase" {
		t.Errorf("Name = %q, want mycase", cfg.Name)
	}
	if cfg.Inputs.Track != base.Inputs.Track || cfg.Inputs.Energetics != base.Inputs.Energetics {
		t.Errorf("preset inputs lost: %+v", cfg.Inputs)
	}
	if base.Name != "yaku" {
		t.Errorf("base modified: Name = %q", base.Name)
	}
}
