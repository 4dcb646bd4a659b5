package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/storage"
)

type view int

const (
	viewRuns view = iota
	viewPhases
)

// Browser lists recorded runs and shows the phases of the selected one.
type Browser struct {
	runs          []storage.RunMetadata
	cursor        int
	view          view
	set           *phase.Set
	err           error
	width, height int
}

func NewBrowser(runs []storage.RunMetadata) Browser {
	return Browser{runs: runs, width: 80, height: 24}
}

func (m Browser) Init() tea.Cmd { return nil }

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.view == viewPhases {
			return m.phasesKey(msg)
		}
		return m.runsKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Browser) runsKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.runs)-1 {
			m.cursor++
		}
	case "enter", " ", "l":
		if len(m.runs) == 0 {
			return m, nil
		}
		m.set, m.err = m.runs[m.cursor].PhaseSet()
		m.view = viewPhases
	}
	return m, nil
}

func (m Browser) phasesKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "h", "backspace":
		m.view, m.set, m.err = viewRuns, nil, nil
	}
	return m, nil
}

func (m Browser) View() string {
	if m.view == viewPhases {
		return m.viewPhases()
	}
	return m.viewRuns()
}

func (m Browser) viewRuns() string {
	var b strings.Builder
	b.WriteString("\n\n    " + title.Render("CYCLOPHASE") + "\n    " + subtle.Render("recorded runs") + "\n    " + subtle.Render("─────────────────────────") + "\n\n")
	if len(m.runs) == 0 {
		b.WriteString("    " + subtle.Render("no runs yet; run `cyclophase periods` first") + "\n")
	}
	for i, r := range m.runs {
		desc := fmt.Sprintf("%d phases  %s", len(r.Phases), r.Timestamp.Format(time.DateTime))
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursor.Render("▸"), selected.Render(fmt.Sprintf("%-16s", r.ID)), subtle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", dimmer.Render(fmt.Sprintf("%-16s", r.ID)), dimmer.Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "open", "q", "quit") + "\n")
	return b.String()
}

func (m Browser) viewPhases() string {
	r := m.runs[m.cursor]
	var b strings.Builder
	b.WriteString("\n\n    " + title.Render(strings.ToUpper(r.ID)) + "\n")
	b.WriteString("    " + subtle.Render(fmt.Sprintf("%s · %d samples every %s · %s hemisphere", r.Track, r.Samples,
		time.Duration(r.StepSeconds*float64(time.Second)), r.Hemisphere)) + "\n")
	b.WriteString("    " + subtle.Render(fmt.Sprintf("windows %d/%d/%d · incipient threshold %d",
		r.Windows.Filter, r.Windows.Smoothing, r.Windows.Smoothing2, r.MinIncipientLength)) + "\n\n")

	if m.err != nil {
		b.WriteString("    " + warn.Render(m.err.Error()) + "\n")
	} else {
		for _, line := range strings.Split(strings.TrimRight(PhaseTable(m.set), "\n"), "\n") {
			b.WriteString("    " + line + "\n")
		}
		b.WriteString("\n    " + Legend(m.set) + "\n")
	}
	for _, name := range r.Missing {
		b.WriteString("    " + warn.Render("no energetics within "+name) + "\n")
	}
	if len(r.Artifacts) > 0 {
		b.WriteString("\n    " + subtle.Render("artifacts") + "\n")
		for _, a := range r.Artifacts {
			b.WriteString("      " + dimmer.Render(a) + "\n")
		}
	}
	b.WriteString("\n    " + keyHints("esc", "back", "q", "quit") + "\n")
	return b.String()
}

// RunBrowser blocks until the user quits.
func RunBrowser(runs []storage.RunMetadata) error {
	_, err := tea.NewProgram(NewBrowser(runs), tea.WithAltScreen()).Run()
	return err
}
