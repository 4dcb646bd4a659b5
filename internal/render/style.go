package render

import (
	"fmt"
	"image/color"

	"github.com/san-kum/cyclophase/internal/phase"
)

var phaseHex = map[phase.Kind]string{
	phase.Incipient:       "#65a1e6",
	phase.Intensification: "#f7b538",
	phase.Mature:          "#d62828",
	phase.Decay:           "#9aa981",
	phase.Residual:        "#808080",
}

// PhaseHex returns the hex color for kind. Unknown kinds render gray.
func PhaseHex(k phase.Kind) string {
	if h, ok := phaseHex[k]; ok {
		return h
	}
	return phaseHex[phase.Residual]
}

// PhaseColor returns the fill color used for every phase of kind k,
// whatever its instance number.
func PhaseColor(k phase.Kind) color.RGBA {
	c, err := parseHex(PhaseHex(k))
	if err != nil {
		return color.RGBA{A: 255}
	}
	return c
}

var kindMarks = map[phase.Kind]rune{
	phase.Incipient:       'i',
	phase.Intensification: 'I',
	phase.Mature:          'M',
	phase.Decay:           'D',
	phase.Residual:        'r',
}

// KindMark is the single-character symbol of k in text previews.
func KindMark(k phase.Kind) rune {
	if m, ok := kindMarks[k]; ok {
		return m
	}
	return '?'
}

// shade is PhaseColor with the transparency used for background bands.
func shade(k phase.Kind) color.NRGBA {
	c := PhaseColor(k)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 102}
}

// LegendEntry is one row of a phase legend.
type LegendEntry struct {
	Kind  phase.Kind
	Label string
	Color color.RGBA
}

// LegendEntries returns one entry per base name present in s, in order of
// first occurrence. "decay" and "decay 2" share one entry.
func LegendEntries(s *phase.Set) []LegendEntry {
	if s == nil {
		return nil
	}
	kinds := s.Kinds()
	out := make([]LegendEntry, len(kinds))
	for i, k := range kinds {
		out[i] = LegendEntry{Kind: k, Label: k.String(), Color: PhaseColor(k)}
	}
	return out
}

func parseHex(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
