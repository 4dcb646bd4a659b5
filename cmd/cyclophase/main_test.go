package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/cyclophase/internal/config"
)

func withGlobals(t *testing.T, presetName, file string) {
	t.Helper()
	oldPreset, oldFile := preset, configFile
	preset, configFile = presetName, file
	t.Cleanup(func() { preset, configFile = oldPreset, oldFile })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_FileOverPreset(t *testing.T) {
	withGlobals(t, "yaku", writeConfig(t, "name: mycase\n"))

	cfg, err := loadConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := config.GetPreset("yaku")
	if cfg.Name != "mycase" {
		t.Errorf("Name = %q, want mycase", cfg.Name)
	}
	if cfg.Inputs.Track != want.Inputs.Track || cfg.Inputs.Levels != want.Inputs.Levels {
		t.Errorf("preset inputs dropped: %+v", cfg.Inputs)
	}
}

func TestLoadConfig_FlagsOverFile(t *testing.T) {
	withGlobals(t, "yaku", writeConfig(t, "name: mycase\noutput_dir: out\n"))
	oldName := name
	t.Cleanup(func() { name = oldName })

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&name, "name", config.DefaultName, "")
	if err := cmd.Flags().Set("name", "flagcase"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Name != "flagcase" || cfg.OutputDir != "out" {
		t.Errorf("got name=%q output=%q, want flagcase, out", cfg.Name, cfg.OutputDir)
	}
	if cfg.Inputs.Track != config.GetPreset("yaku").Inputs.Track {
		t.Errorf("preset track dropped: %q", cfg.Inputs.Track)
	}
}

func TestLoadConfig_UnknownPreset(t *testing.T) {
	withGlobals(t, "hurricane", "")
	if _, err := loadConfig(&cobra.Command{}); err == nil {
		t.Error("expected error for unknown preset")
	}
}
