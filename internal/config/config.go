package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/hovmoller"
	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/track"
)

const (
	DefaultName      = "cyclone"
	DefaultOutputDir = "figures"
	DefaultVariable  = "Ge"
	DefaultLevel     = "3000.0"

	// HemisphereAuto infers the hemisphere from the track latitude.
	HemisphereAuto = "auto"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name      string          `yaml:"name"`
	OutputDir string          `yaml:"output_dir"`
	Inputs    InputConfig     `yaml:"inputs"`
	Segment   SegmentConfig   `yaml:"segmentation"`
	LPS       LPSConfig       `yaml:"lps"`
	Hovmoller HovmollerConfig `yaml:"hovmoller"`
	Diurnal   DiurnalConfig   `yaml:"diurnal"`
	Debug     bool            `yaml:"debug"`
}

type InputConfig struct {
	Track           string `yaml:"track"`
	VorticityColumn string `yaml:"vorticity_column"`
	LatitudeColumn  string `yaml:"latitude_column"`
	Energetics      string `yaml:"energetics"`
	Levels          string `yaml:"levels"`
}

// SegmentConfig tunes phase detection. Zero windows are derived from the
// track length.
type SegmentConfig struct {
	Windows            filter.Windows `yaml:"windows"`
	MinIncipientLength int            `yaml:"threshold_incipient_length"`
	Hemisphere         string         `yaml:"hemisphere"`
	Degenerate         string         `yaml:"degenerate"`
	FlatFraction       float64        `yaml:"flat_fraction"`
	MatureFraction     float64        `yaml:"mature_fraction"`
	IncipientFraction  float64        `yaml:"incipient_fraction"`
	MinRunLength       int            `yaml:"min_run_length"`
	Steps              bool           `yaml:"steps"`
}

type LPSConfig struct {
	Adjusts []float64 `yaml:"adjusts"`
	X       string    `yaml:"x"`
	Y       string    `yaml:"y"`
	Color   string    `yaml:"color"`
	Size    string    `yaml:"size"`
}

type HovmollerConfig struct {
	Variable string  `yaml:"variable"`
	Clip     float64 `yaml:"clip"`
	Levels   int     `yaml:"levels"`
}

type DiurnalConfig struct {
	Level string `yaml:"level"`
	Hours []int  `yaml:"hours"`
}

func DefaultConfig() *Config {
	d := phase.DefaultOptions()
	return &Config{
		Name:      DefaultName,
		OutputDir: DefaultOutputDir,
		Inputs: InputConfig{
			VorticityColumn: track.DefaultVorticityColumn,
			LatitudeColumn:  track.DefaultLatitudeColumn,
		},
		Segment: SegmentConfig{
			Hemisphere:        string(phase.South),
			Degenerate:        string(phase.DegenerateFail),
			FlatFraction:      d.FlatFraction,
			MatureFraction:    d.MatureFraction,
			IncipientFraction: d.IncipientFraction,
			Steps:             true,
		},
		LPS: LPSConfig{
			Adjusts: []float64{0.05, 0.5},
			X:       "Ck",
			Y:       "Ca",
			Color:   "Ge",
			Size:    "Ke",
		},
		Hovmoller: HovmollerConfig{
			Variable: DefaultVariable,
			Clip:     hovmoller.DefaultClip,
			Levels:   hovmoller.DefaultLevels,
		},
		Diurnal: DiurnalConfig{
			Level: DefaultLevel,
			Hours: []int{0, 3, 6, 9, 12, 15, 18, 21},
		},
	}
}

// Load reads a yaml file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a yaml file over a copy of base, so keys absent from the
// file keep the values of base, and validates the result.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.LPS.Adjusts = append([]float64(nil), c.LPS.Adjusts...)
	cp.Diurnal.Hours = append([]int(nil), c.Diurnal.Hours...)
	return &cp
}

func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Name == "" || strings.ContainsAny(c.Name, `/\`) {
		bad("name %q must be a non-empty file name", c.Name)
	}
	if c.OutputDir == "" {
		bad("output_dir is empty")
	}

	s := c.Segment
	if s.Windows != (filter.Windows{}) {
		if err := s.Windows.Validate(); err != nil {
			bad("windows: %v", err)
		}
	}
	if s.MinIncipientLength < 0 {
		bad("threshold_incipient_length %d is negative", s.MinIncipientLength)
	}
	switch s.Hemisphere {
	case string(phase.South), string(phase.North), HemisphereAuto:
	default:
		bad("hemisphere %q, want south, north or auto", s.Hemisphere)
	}
	switch phase.DegeneratePolicy(s.Degenerate) {
	case phase.DegenerateFail, phase.DegenerateResidual:
	default:
		bad("degenerate %q, want fail or residual", s.Degenerate)
	}
	for name, f := range map[string]float64{
		"flat_fraction":      s.FlatFraction,
		"mature_fraction":    s.MatureFraction,
		"incipient_fraction": s.IncipientFraction,
	} {
		if f < 0 || f >= 1 {
			bad("%s %g outside [0, 1)", name, f)
		}
	}
	if s.MinRunLength < 0 {
		bad("min_run_length %d is negative", s.MinRunLength)
	}

	if len(c.LPS.Adjusts) == 0 {
		bad("lps.adjusts is empty")
	}
	for _, a := range c.LPS.Adjusts {
		if a <= 0 {
			bad("lps adjust %g must be positive", a)
		}
	}
	if c.LPS.X == "" || c.LPS.Y == "" || c.LPS.Color == "" || c.LPS.Size == "" {
		bad("lps channels must all be named")
	}

	if c.Hovmoller.Clip <= 0 || c.Hovmoller.Clip > 1 {
		bad("hovmoller.clip %g outside (0, 1]", c.Hovmoller.Clip)
	}
	if c.Hovmoller.Levels < 2 {
		bad("hovmoller.levels %d, want at least 2", c.Hovmoller.Levels)
	}
	for _, h := range c.Diurnal.Hours {
		if h < 0 || h > 23 {
			bad("diurnal hour %d outside 0..23", h)
		}
	}
	return errors.Join(errs...)
}

// Params resolves the segmentation parameters for a track of n samples.
func (c *Config) Params(n int) (phase.Params, error) {
	w := c.Segment.Windows
	if w == (filter.Windows{}) {
		var err error
		if w, err = filter.DeriveWindows(n); err != nil {
			return phase.Params{}, err
		}
	}
	return phase.Params{Windows: w, MinIncipientLength: c.Segment.MinIncipientLength}, nil
}

// Options returns the segmenter options. h overrides the configured
// hemisphere when the configuration asks for inference.
func (c *Config) Options(h phase.Hemisphere) phase.Options {
	opts := phase.DefaultOptions()
	if c.Segment.Hemisphere != HemisphereAuto {
		h = phase.Hemisphere(c.Segment.Hemisphere)
	}
	if h != "" {
		opts.Hemisphere = h
	}
	opts.Degenerate = phase.DegeneratePolicy(c.Segment.Degenerate)
	if c.Segment.FlatFraction > 0 {
		opts.FlatFraction = c.Segment.FlatFraction
	}
	if c.Segment.MatureFraction > 0 {
		opts.MatureFraction = c.Segment.MatureFraction
	}
	if c.Segment.IncipientFraction > 0 {
		opts.IncipientFraction = c.Segment.IncipientFraction
	}
	opts.MinRunLength = c.Segment.MinRunLength
	return opts
}

// TrackOptions returns the column selection for the track loader.
func (c *Config) TrackOptions() track.Options {
	return track.Options{
		VorticityColumn: c.Inputs.VorticityColumn,
		LatitudeColumn:  c.Inputs.LatitudeColumn,
	}
}
