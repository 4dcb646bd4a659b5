package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/storage"
)

var t0 = time.Date(2023, 3, 7, 0, 0, 0, 0, time.UTC)

func runs() []storage.RunMetadata {
	at := func(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }
	return []storage.RunMetadata{
		{
			ID: "yaku", Track: "yaku_track", Samples: 48, StepSeconds: 3600, Hemisphere: "south",
			Phases: []storage.PhaseRecord{
				{Name: "incipient", Start: at(0), End: at(10)},
				{Name: "intensification", Start: at(11), End: at(30)},
				{Name: "decay", Start: at(31), End: at(47)},
			},
			Missing: []string{"decay"},
		},
		{
			ID: "broken",
			Phases: []storage.PhaseRecord{
				{Name: "hurricane", Start: at(0), End: at(1)},
			},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func TestBrowser_ListsRuns(t *testing.T) {
	out := NewBrowser(runs()).View()
	for _, want := range []string{"yaku", "broken", "3 phases"} {
		if !strings.Contains(out, want) {
			t.Errorf("run list missing %q", want)
		}
	}
}

func TestBrowser_OpensPhases(t *testing.T) {
	m := press(NewBrowser(runs()), "enter")
	out := m.View()
	for _, want := range []string{"YAKU", "intensification", "no energetics within decay", "1h0m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("phase view missing %q:\n%s", want, out)
		}
	}

	out = press(m, "esc").View()
	if !strings.Contains(out, "recorded runs") {
		t.Errorf("esc should return to the run list")
	}
}

func TestBrowser_InvalidRunShowsError(t *testing.T) {
	out := press(NewBrowser(runs()), "j", "enter").View()
	if !strings.Contains(out, "hurricane") {
		t.Errorf("expected parse error for unknown phase name:\n%s", out)
	}
}

func TestBrowser_CursorBounds(t *testing.T) {
	m := press(NewBrowser(runs()), "k", "j", "j", "j").(Browser)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m = press(NewBrowser(nil), "enter").(Browser)
	if m.view != viewRuns {
		t.Errorf("enter on empty list should stay on the run list")
	}
}

func TestBrowser_Quit(t *testing.T) {
	_, cmd := NewBrowser(runs()).Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg")
	}
}

func TestPhaseTable(t *testing.T) {
	set, err := phase.NewSet([]phase.Phase{
		{Kind: phase.Incipient, Instance: 1, Start: t0, End: t0.Add(6 * time.Hour)},
		{Kind: phase.Mature, Instance: 1, Start: t0.Add(7 * time.Hour), End: t0.Add(12 * time.Hour)},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	out := PhaseTable(set)
	for _, want := range []string{"incipient", "mature", "2023-03-07 06:00:00", "6.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(PhaseTable(nil), "no phases") {
		t.Errorf("nil set should render placeholder")
	}
	if l := Legend(set); !strings.Contains(l, "incipient") || !strings.Contains(l, "mature") {
		t.Errorf("legend = %q", l)
	}
}
