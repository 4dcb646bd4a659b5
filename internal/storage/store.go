package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/phase"
)

const runsDir = "runs"

// Store owns the output directory. Every file is written to a temporary
// name first and renamed into place, so readers never see partial output.
type Store struct {
	fs      afero.Fs
	baseDir string
}

func New(baseDir string) *Store {
	return NewWithFs(afero.NewOsFs(), baseDir)
}

func NewWithFs(fs afero.Fs, baseDir string) *Store {
	return &Store{fs: fs, baseDir: baseDir}
}

func (s *Store) Init() error {
	return s.fs.MkdirAll(s.baseDir, 0755)
}

// Path returns the location of rel inside the output directory.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.baseDir, rel)
}

// Write stores the output of wt at rel and returns the full path.
func (s *Store) Write(rel string, wt io.WriterTo) (string, error) {
	path := s.Path(rel)
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	cleanup := func() { _ = s.fs.Remove(tmp.Name()) }

	if _, err := wt.WriteTo(tmp); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := s.fs.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return "", err
	}
	return path, nil
}

// Open opens rel for reading.
func (s *Store) Open(rel string) (afero.File, error) {
	return s.fs.Open(s.Path(rel))
}

// WriterFunc adapts a function to io.WriterTo.
type WriterFunc func(w io.Writer) error

func (f WriterFunc) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := f(cw)
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// PhasesFile is the export name of a phase set.
func PhasesFile(name string) string { return fmt.Sprintf("periods_%s.csv", name) }

// SavePhases exports set as periods_<name>.csv.
func (s *Store) SavePhases(name string, set *phase.Set) (string, error) {
	return s.Write(PhasesFile(name), WriterFunc(func(w io.Writer) error {
		return phase.WriteCSV(w, set)
	}))
}

// LoadPhases reads periods_<name>.csv back with the given shading tolerance.
func (s *Store) LoadPhases(name string, tolerance time.Duration) (*phase.Set, error) {
	f, err := s.Open(PhasesFile(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return phase.ReadCSV(f, tolerance)
}

type PhaseRecord struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type RunMetadata struct {
	ID                 string         `json:"id"`
	Timestamp          time.Time      `json:"timestamp"`
	Track              string         `json:"track"`
	Energetics         string         `json:"energetics,omitempty"`
	Samples            int            `json:"samples"`
	StepSeconds        float64        `json:"step_seconds"`
	Hemisphere         string         `json:"hemisphere"`
	Windows            filter.Windows `json:"windows"`
	MinIncipientLength int            `json:"threshold_incipient_length"`
	ToleranceSeconds   float64        `json:"tolerance_seconds"`
	Phases             []PhaseRecord  `json:"phases"`
	Missing            []string       `json:"missing,omitempty"`
	Artifacts          []string       `json:"artifacts"`
}

// Records flattens set for metadata.
func Records(set *phase.Set) []PhaseRecord {
	out := make([]PhaseRecord, 0, set.Len())
	for _, p := range set.Phases() {
		out = append(out, PhaseRecord{Name: p.Name(), Start: p.Start, End: p.End})
	}
	return out
}

// PhaseSet rebuilds the phase set recorded in the metadata.
func (m *RunMetadata) PhaseSet() (*phase.Set, error) {
	phases := make([]phase.Phase, 0, len(m.Phases))
	for _, r := range m.Phases {
		k, n, err := phase.ParseName(r.Name)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", m.ID, err)
		}
		phases = append(phases, phase.Phase{Kind: k, Instance: n, Start: r.Start, End: r.End})
	}
	return phase.NewSet(phases, time.Duration(m.ToleranceSeconds*float64(time.Second)))
}

func metadataPath(id string) string {
	return filepath.Join(runsDir, id, "metadata.json")
}

// Save records a run under runs/<id>/metadata.json, replacing any earlier
// run with the same id.
func (s *Store) Save(meta RunMetadata) (string, error) {
	if meta.ID == "" {
		return "", fmt.Errorf("run metadata without id")
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return s.Write(metadataPath(meta.ID), &buf)
}

// List returns every recorded run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := afero.ReadDir(s.fs, s.Path(runsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(id string) (*RunMetadata, error) {
	data, err := afero.ReadFile(s.fs, s.Path(metadataPath(id)))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &meta, nil
}
