// Package experiment runs the analyses of one cyclone case: phase
// segmentation, energetics aggregation, the Lorenz phase space and the
// Hovmöller field. Every input is read and validated before the first
// artifact is written.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/san-kum/cyclophase/internal/aggregate"
	"github.com/san-kum/cyclophase/internal/config"
	"github.com/san-kum/cyclophase/internal/hovmoller"
	"github.com/san-kum/cyclophase/internal/log"
	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/render"
	"github.com/san-kum/cyclophase/internal/series"
	"github.com/san-kum/cyclophase/internal/storage"
	"github.com/san-kum/cyclophase/internal/track"
)

type Experiment struct {
	cfg   *config.Config
	store *storage.Store
	now   func() time.Time
}

func New(cfg *config.Config, store *storage.Store) *Experiment {
	return &Experiment{cfg: cfg, store: store, now: time.Now}
}

// Analysis is a segmented track.
type Analysis struct {
	Track      track.Track
	Hemisphere phase.Hemisphere
	Params     phase.Params
	Result     *phase.Result
}

// Set returns the detected phases.
func (a *Analysis) Set() *phase.Set { return a.Result.Set }

// Analyze loads the track and segments it. Nothing is written.
func (e *Experiment) Analyze(ctx context.Context) (*Analysis, error) {
	if e.cfg.Inputs.Track == "" {
		return nil, fmt.Errorf("no track file configured: %w", config.ErrInvalid)
	}
	tr, err := track.LoadTrack(e.cfg.Inputs.Track, e.cfg.TrackOptions())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, ok := tr.Hemisphere()
	if e.cfg.Segment.Hemisphere == config.HemisphereAuto && !ok {
		log.Warnw("cannot infer hemisphere, assuming south", "track", e.cfg.Inputs.Track)
		h = phase.South
	}
	params, err := e.cfg.Params(tr.Vorticity.Len())
	if err != nil {
		return nil, err
	}
	opts := e.cfg.Options(h)
	res, err := phase.NewSegmenter(opts).Segment(tr.Vorticity, params)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", e.cfg.Inputs.Track, err)
	}

	log.Infow("segmented track",
		"track", e.cfg.Inputs.Track,
		"samples", tr.Vorticity.Len(),
		"hemisphere", opts.Hemisphere,
		"windows", params.Windows,
		"phases", res.Set.Len())
	return &Analysis{Track: tr, Hemisphere: opts.Hemisphere, Params: params, Result: res}, nil
}

// PeriodsResult lists what a periods run produced.
type PeriodsResult struct {
	Analysis  *Analysis
	Rows      []aggregate.Row
	Missing   []string
	Artifacts []string
}

// Periods segments the track and writes the periods figure, the optional
// tendency figure, the phase CSV, the summary workbook and the run metadata.
func (e *Experiment) Periods(ctx context.Context) (*PeriodsResult, error) {
	a, err := e.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	name := e.cfg.Name
	times := a.Track.Vorticity.Times
	res := a.Result

	figs := []named{}
	fig, err := render.Periods(times, res.Processed, res.Set, name)
	if err != nil {
		return nil, err
	}
	figs = append(figs, named{fmt.Sprintf("periods_%s.png", name), fig})
	if e.cfg.Segment.Steps {
		fig, err := render.Steps(times, res.Tendency, res.Set, name+" tendency")
		if err != nil {
			return nil, err
		}
		figs = append(figs, named{fmt.Sprintf("periods_%s_steps.png", name), fig})
	}

	out := &PeriodsResult{Analysis: a}
	sum := storage.Summary{Name: name, Phases: res.Set}
	if e.cfg.Inputs.Energetics != "" {
		tbl, err := track.LoadEnergetics(e.cfg.Inputs.Energetics)
		if err != nil {
			return nil, err
		}
		out.Rows, out.Missing = e.aggregate(tbl, res.Set)
		sum.Rows = out.Rows
	}
	if e.cfg.Inputs.Levels != "" {
		if _, _, hm, err := e.diurnal(); err != nil {
			log.Warnw("summary without diurnal sheet", "levels", e.cfg.Inputs.Levels, "error", err)
		} else {
			sum.Diurnal = hm
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.store.Init(); err != nil {
		return nil, err
	}
	// The phase export goes first: LPS reads it back.
	path, err := e.store.SavePhases(name, res.Set)
	if err != nil {
		return nil, err
	}
	out.Artifacts = append(out.Artifacts, path)
	paths, err := e.writeFigures(ctx, figs)
	if err != nil {
		return nil, err
	}
	out.Artifacts = append(out.Artifacts, paths...)
	if path, err = e.store.WriteSummary(sum); err != nil {
		return nil, err
	}
	out.Artifacts = append(out.Artifacts, path)

	meta := storage.RunMetadata{
		ID:                 name,
		Timestamp:          e.now(),
		Track:              e.cfg.Inputs.Track,
		Energetics:         e.cfg.Inputs.Energetics,
		Samples:            a.Track.Vorticity.Len(),
		StepSeconds:        a.Track.Vorticity.Step().Seconds(),
		Hemisphere:         string(a.Hemisphere),
		Windows:            a.Params.Windows,
		MinIncipientLength: a.Params.MinIncipientLength,
		ToleranceSeconds:   res.Set.Tolerance().Seconds(),
		Phases:             storage.Records(res.Set),
		Missing:            out.Missing,
		Artifacts:          out.Artifacts,
	}
	if path, err = e.store.Save(meta); err != nil {
		return nil, err
	}
	out.Artifacts = append(out.Artifacts, path)

	log.Infow("periods written", "name", name, "artifacts", len(out.Artifacts))
	return out, nil
}

// Phases returns the phases of the case: the exported CSV when one exists,
// otherwise a fresh segmentation of the track.
func (e *Experiment) Phases(ctx context.Context) (*phase.Set, error) {
	name := e.cfg.Name
	if f, err := e.store.Open(storage.PhasesFile(name)); err == nil {
		f.Close()
		set, err := e.store.LoadPhases(name, 0)
		if err != nil {
			return nil, err
		}
		log.Debugw("loaded phases", "file", e.store.Path(storage.PhasesFile(name)), "phases", set.Len())
		return set, nil
	}
	a, err := e.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return a.Set(), nil
}

// LPSResult lists what an LPS run produced.
type LPSResult struct {
	Rows      []aggregate.Row
	Missing   []string
	Artifacts []string
}

// LPS draws the Lorenz phase space of the per-phase means and of the whole
// energetics table, once per configured axis adjustment.
func (e *Experiment) LPS(ctx context.Context) (*LPSResult, error) {
	if e.cfg.Inputs.Energetics == "" {
		return nil, fmt.Errorf("no energetics file configured: %w", config.ErrInvalid)
	}
	tbl, err := track.LoadEnergetics(e.cfg.Inputs.Energetics)
	if err != nil {
		return nil, err
	}
	set, err := e.Phases(ctx)
	if err != nil {
		return nil, err
	}

	ch := render.Channels{X: e.cfg.LPS.X, Y: e.cfg.LPS.Y, Color: e.cfg.LPS.Color, Size: e.cfg.LPS.Size}
	rows, missing := e.aggregate(tbl, set)
	phasePts, err := render.PhasePoints(rows, ch)
	if err != nil {
		return nil, err
	}
	tablePts, err := render.TablePoints(tbl, ch)
	if err != nil {
		return nil, err
	}

	name := e.cfg.Name
	var figs []named
	for _, adj := range e.cfg.LPS.Adjusts {
		if len(phasePts) > 0 {
			fig, err := render.Trajectory(phasePts, ch, adj, name+" phases")
			if err != nil {
				return nil, err
			}
			figs = append(figs, named{fmt.Sprintf("LPS_periods_%s_adjust_%g.png", name, adj), fig})
		}
		fig, err := render.Trajectory(tablePts, ch, adj, name)
		if err != nil {
			return nil, err
		}
		figs = append(figs, named{fmt.Sprintf("LPS_%s_adjust_%g.png", name, adj), fig})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.store.Init(); err != nil {
		return nil, err
	}
	paths, err := e.writeFigures(ctx, figs)
	if err != nil {
		return nil, err
	}
	sum := storage.Summary{Name: name, Phases: set, Rows: rows}
	path, err := e.store.WriteSummary(sum)
	if err != nil {
		return nil, err
	}
	log.Infow("lps written", "name", name, "figures", len(paths), "missing", len(missing))
	return &LPSResult{Rows: rows, Missing: missing, Artifacts: append(paths, path)}, nil
}

// Hovmoller contours the configured variable over time and pressure level.
func (e *Experiment) Hovmoller(ctx context.Context) (string, error) {
	f, sc, err := e.field()
	if err != nil {
		return "", err
	}
	v := e.cfg.Hovmoller.Variable
	fig, err := render.Hovmoller(f, sc, fmt.Sprintf("%s %s", e.cfg.Name, v))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.store.Init(); err != nil {
		return "", err
	}
	paths, err := e.writeFigures(ctx, []named{{fmt.Sprintf("hovmoller_%s.png", v), fig}})
	if err != nil {
		return "", err
	}
	log.Infow("hovmoller written", "variable", v, "levels", len(f.Levels), "times", len(f.Times),
		"vmin", sc.VMin, "vmax", sc.VMax)
	return paths[0], nil
}

func (e *Experiment) field() (*hovmoller.Field, hovmoller.Scale, error) {
	if e.cfg.Inputs.Levels == "" {
		return nil, hovmoller.Scale{}, fmt.Errorf("no level file configured: %w", config.ErrInvalid)
	}
	tbl, err := track.LoadLevels(e.cfg.Inputs.Levels)
	if err != nil {
		return nil, hovmoller.Scale{}, err
	}
	f, err := hovmoller.Assemble(tbl)
	if err != nil {
		return nil, hovmoller.Scale{}, err
	}
	sc, err := f.Scale(e.cfg.Hovmoller.Clip, e.cfg.Hovmoller.Levels)
	if err != nil {
		return nil, hovmoller.Scale{}, err
	}
	return f, sc, nil
}

// DiurnalResult is the hour-of-day composite of one level.
type DiurnalResult struct {
	Level  string
	Mean   float64
	Hours  []aggregate.HourMean
	Series series.TimeSeries
}

// Diurnal composites the configured level by hour of day. Nothing is written.
func (e *Experiment) Diurnal(ctx context.Context) (*DiurnalResult, error) {
	s, mean, hm, err := e.diurnal()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &DiurnalResult{Level: e.cfg.Diurnal.Level, Mean: mean, Hours: hm, Series: s}, nil
}

func (e *Experiment) diurnal() (series.TimeSeries, float64, []aggregate.HourMean, error) {
	if e.cfg.Inputs.Levels == "" {
		return series.TimeSeries{}, 0, nil, fmt.Errorf("no level file configured: %w", config.ErrInvalid)
	}
	tbl, err := track.LoadLevels(e.cfg.Inputs.Levels)
	if err != nil {
		return series.TimeSeries{}, 0, nil, err
	}
	s, err := levelSeries(tbl, e.cfg.Diurnal.Level)
	if err != nil {
		return series.TimeSeries{}, 0, nil, err
	}
	mean, hm := aggregate.Diurnal(s, e.cfg.Diurnal.Hours)
	return s, mean, hm, nil
}

// levelSeries matches the level by value so that "3000" finds "3000.0".
func levelSeries(t *series.Table, level string) (series.TimeSeries, error) {
	if s, err := t.Series(level); err == nil {
		return s, nil
	}
	var want float64
	if _, err := fmt.Sscanf(strings.TrimSpace(level), "%g", &want); err == nil {
		for _, c := range t.Columns {
			var got float64
			if _, err := fmt.Sscanf(strings.TrimSpace(c), "%g", &got); err == nil && got == want {
				return t.Series(c)
			}
		}
	}
	return t.Series(level)
}

// aggregate logs one warning per phase without energetics.
func (e *Experiment) aggregate(tbl *series.Table, set *phase.Set) ([]aggregate.Row, []string) {
	rows, diag := aggregate.Aggregate(tbl, set)
	var missing []string
	for _, err := range multierr.Errors(diag) {
		log.Warnw("phase has no energetics rows", "error", err)
		missing = append(missing, phaseOf(err))
	}
	return rows, missing
}

func phaseOf(err error) string {
	var m *series.MissingAggregateError
	if errors.As(err, &m) {
		return m.Phase
	}
	return err.Error()
}
