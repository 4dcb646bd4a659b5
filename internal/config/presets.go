package config

import (
	"sort"

	"github.com/san-kum/cyclophase/internal/phase"
)

// Presets are named configurations selectable with --preset.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"short-track": func() *Config {
		c := DefaultConfig()
		c.Segment.FlatFraction = 0.2
		c.Segment.MinRunLength = 2
		c.LPS.Adjusts = []float64{0.05}
		return c
	}(),
	"northern": func() *Config {
		c := DefaultConfig()
		c.Segment.Hemisphere = string(phase.North)
		return c
	}(),
	"auto-hemisphere": func() *Config {
		c := DefaultConfig()
		c.Segment.Hemisphere = HemisphereAuto
		return c
	}(),
	"yaku": func() *Config {
		c := DefaultConfig()
		c.Name = "yaku"
		c.Inputs.Track = "LEC_yaku-resampled_ERA5_track/yaku-resampled_ERA5_track_trackfile"
		c.Inputs.Energetics = "LEC_yaku_ERA5_choose/yaku_ERA5_choose_results.csv"
		c.Inputs.Levels = "LEC_yaku-resampled_ERA5_track/Ge_level.csv"
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
