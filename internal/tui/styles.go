package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/render"
	"github.com/san-kum/cyclophase/internal/series"
)

var (
	title    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subtle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	dimmer   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	cursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)

	header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#444466"))
)

func phaseStyle(k phase.Kind) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(render.PhaseHex(k))).Bold(true)
}

func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]))
		b.WriteString(subtle.Render(" " + pairs[i+1] + "  "))
	}
	return b.String()
}

// durationBar draws d as a share of total in width cells.
func durationBar(d, total time.Duration, width int, k phase.Kind) string {
	filled := 0
	if total > 0 {
		filled = int(float64(d) / float64(total) * float64(width))
	}
	filled = min(max(filled, 0), width)
	return phaseStyle(k).Render(strings.Repeat("█", filled)) + dimmer.Render(strings.Repeat("░", width-filled))
}

// PhaseTable renders set as a colored table with one row per phase.
func PhaseTable(set *phase.Set) string {
	if set == nil || set.Len() == 0 {
		return subtle.Render("no phases")
	}
	phases := set.Phases()
	total := phases[len(phases)-1].End.Sub(phases[0].Start)

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("%-20s %-19s  %-19s  %8s", "phase", "start", "end", "hours")))
	b.WriteString("\n")
	for _, p := range phases {
		b.WriteString(phaseStyle(p.Kind).Render(fmt.Sprintf("%-20s", p.Name())))
		b.WriteString(fmt.Sprintf(" %-19s  %-19s  %8.1f  ",
			p.Start.Format(series.ExportLayout), p.End.Format(series.ExportLayout), p.Duration().Hours()))
		b.WriteString(durationBar(p.Duration(), total, 20, p.Kind))
		b.WriteString("\n")
	}
	return b.String()
}

// Legend renders one colored swatch per base name in set.
func Legend(set *phase.Set) string {
	var parts []string
	for _, e := range render.LegendEntries(set) {
		parts = append(parts, phaseStyle(e.Kind).Render(string(render.KindMark(e.Kind))+" "+e.Label))
	}
	return strings.Join(parts, subtle.Render("  ·  "))
}
