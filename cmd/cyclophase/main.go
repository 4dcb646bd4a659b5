package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cyclophase/internal/aggregate"
	"github.com/san-kum/cyclophase/internal/config"
	"github.com/san-kum/cyclophase/internal/experiment"
	"github.com/san-kum/cyclophase/internal/log"
	"github.com/san-kum/cyclophase/internal/render"
	"github.com/san-kum/cyclophase/internal/series"
	"github.com/san-kum/cyclophase/internal/storage"
	"github.com/san-kum/cyclophase/internal/track"
	"github.com/san-kum/cyclophase/internal/tui"
)

var (
	configFile string
	preset     string
	debug      bool
	outputDir  string
	name       string
	// Inputs
	trackFile       string
	vorticityColumn string
	energeticsFile  string
	levelsFile      string
	// Segmentation
	hemisphere   string
	minIncipient int
	steps        bool
	// Figures
	adjusts  []float64
	variable string
	clip     float64
	level    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cyclophase",
		Short:        "cyclone life cycle phases and energetics figures",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.BoolVar(&debug, "debug", false, "debug logging")
	pf.StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "output directory")
	pf.StringVar(&name, "name", config.DefaultName, "case name used in output files")
	pf.StringVar(&trackFile, "track", "", "track file (';' separated)")
	pf.StringVar(&vorticityColumn, "vorticity-column", "", "vorticity column of the track file")
	pf.StringVar(&energeticsFile, "energetics", "", "energetics results file")
	pf.StringVar(&levelsFile, "levels", "", "per-level file for hovmoller and diurnal")
	pf.StringVar(&hemisphere, "hemisphere", "", "south, north or auto")

	periodsCmd := &cobra.Command{
		Use:   "periods",
		Short: "detect life cycle phases and plot them",
		RunE:  runPeriods,
	}
	periodsCmd.Flags().IntVar(&minIncipient, "min-incipient", 0, "minimum incipient length in samples")
	periodsCmd.Flags().BoolVar(&steps, "steps", true, "also plot the vorticity tendency")

	lpsCmd := &cobra.Command{
		Use:   "lps",
		Short: "plot the Lorenz phase space per phase and for the whole track",
		RunE:  runLPS,
	}
	lpsCmd.Flags().Float64SliceVar(&adjusts, "adjust", nil, "axis padding, repeatable")

	hovCmd := &cobra.Command{
		Use:   "hovmoller",
		Short: "contour a variable over time and pressure level",
		RunE:  runHovmoller,
	}
	hovCmd.Flags().StringVar(&variable, "var", config.DefaultVariable, "variable name used in the output file")
	hovCmd.Flags().Float64Var(&clip, "clip", 0, "color bound as a fraction of the largest magnitude")

	diurnalCmd := &cobra.Command{
		Use:   "diurnal",
		Short: "hour-of-day composite of one level",
		RunE:  runDiurnal,
	}
	diurnalCmd.Flags().StringVar(&level, "level", config.DefaultLevel, "level column")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the phases and signal in the terminal",
		RunE:  runShow,
	}
	showCmd.Flags().IntVar(&minIncipient, "min-incipient", 0, "minimum incipient length in samples")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "browse recorded runs",
		RunE:  browseRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("available presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  - %s\n", p)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(periodsCmd, lpsCmd, hovCmd, diurnalCmd, showCmd, runsCmd, browseCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		if series.IsInputFormat(err) {
			fmt.Fprintln(os.Stderr, "hint: check the separator, time column and column names of the input files")
		}
		os.Exit(1)
	}
}

// loadConfig layers the preset, the config file and the changed flags, in
// that order, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("name") {
		cfg.Name = name
	}
	if flags.Changed("track") {
		cfg.Inputs.Track = trackFile
	}
	if flags.Changed("vorticity-column") {
		cfg.Inputs.VorticityColumn = vorticityColumn
	}
	if flags.Changed("energetics") {
		cfg.Inputs.Energetics = energeticsFile
	}
	if flags.Changed("levels") {
		cfg.Inputs.Levels = levelsFile
	}
	if flags.Changed("hemisphere") {
		cfg.Segment.Hemisphere = hemisphere
	}
	if flags.Changed("min-incipient") {
		cfg.Segment.MinIncipientLength = minIncipient
	}
	if flags.Changed("steps") {
		cfg.Segment.Steps = steps
	}
	if flags.Changed("adjust") {
		cfg.LPS.Adjusts = adjusts
	}
	if flags.Changed("var") {
		cfg.Hovmoller.Variable = variable
	}
	if flags.Changed("clip") {
		cfg.Hovmoller.Clip = clip
	}
	if flags.Changed("level") {
		cfg.Diurnal.Level = level
	}
	if debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newExperiment(cmd *cobra.Command) (*experiment.Experiment, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return experiment.New(cfg, storage.New(cfg.OutputDir)), cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runPeriods(cmd *cobra.Command, args []string) error {
	e, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := e.Periods(ctx)
	if err != nil {
		return err
	}
	set := res.Analysis.Set()
	fmt.Printf("%s: %d phases (%s hemisphere, windows %d/%d/%d)\n", cfg.Name, set.Len(), res.Analysis.Hemisphere,
		res.Analysis.Params.Windows.Filter, res.Analysis.Params.Windows.Smoothing, res.Analysis.Params.Windows.Smoothing2)
	fmt.Println(tui.PhaseTable(set))
	printMissing(res.Missing)
	printArtifacts(res.Artifacts)
	return nil
}

func runLPS(cmd *cobra.Command, args []string) error {
	e, _, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := e.LPS(ctx)
	if err != nil {
		return err
	}
	printMissing(res.Missing)
	printArtifacts(res.Artifacts)
	return nil
}

func runHovmoller(cmd *cobra.Command, args []string) error {
	e, _, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	path, err := e.Hovmoller(ctx)
	if err != nil {
		return err
	}
	printArtifacts([]string{path})
	return nil
}

func runDiurnal(cmd *cobra.Command, args []string) error {
	e, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	res, err := e.Diurnal(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("level %s, mean %.4g over %d samples\n\n", res.Level, res.Mean, res.Series.Len())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOUR\tANOMALY\tSAMPLES")
	var anomalies []float64
	for _, h := range res.Hours {
		if !h.Valid {
			fmt.Fprintf(w, "%02d\t-\t0\n", h.Hour)
			continue
		}
		fmt.Fprintf(w, "%02d\t%+.4g\t%d\n", h.Hour, h.Anomaly, h.Count)
		anomalies = append(anomalies, h.Anomaly)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(anomalies) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(anomalies,
			asciigraph.Height(8),
			asciigraph.Width(len(anomalies)*6),
			asciigraph.Caption(fmt.Sprintf("%s %s diurnal anomaly", cfg.Name, res.Level))))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	e, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	a, err := e.Analyze(cmd.Context())
	if err != nil {
		return err
	}
	set := a.Set()
	times := a.Track.Vorticity.Times

	fmt.Println(render.SignalPreview(a.Result.Processed, 80, 12, fmt.Sprintf("%s vorticity", cfg.Name)))
	fmt.Println()
	fmt.Println("  " + render.PhaseStrip(set, times, 80))
	fmt.Println("  " + tui.Legend(set))
	fmt.Println()
	fmt.Println(tui.PhaseTable(set))

	if cfg.Inputs.Energetics == "" {
		return nil
	}
	tbl, err := track.LoadEnergetics(cfg.Inputs.Energetics)
	if err != nil {
		return err
	}
	rows, diag := aggregate.Aggregate(tbl, set)
	for _, err := range aggregate.Missing(diag) {
		log.Warnw("phase has no energetics rows", "error", err)
	}
	pts, err := render.PhasePoints(rows, render.Channels{X: cfg.LPS.X, Y: cfg.LPS.Y, Color: cfg.LPS.Color, Size: cfg.LPS.Size})
	if err != nil {
		return err
	}
	fmt.Printf("\n%s vs %s\n", cfg.LPS.Y, cfg.LPS.X)
	fmt.Println(render.TrajectoryPreview(pts, 60, 20))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.OutputDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSAMPLES\tSTEP\tHEMI\tPHASES\tMISSING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0fs\t%s\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.StepSeconds,
			run.Hemisphere,
			len(run.Phases),
			strings.Join(run.Missing, ","),
		)
	}

	return w.Flush()
}

func browseRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.OutputDir).List()
	if err != nil {
		return err
	}
	return tui.RunBrowser(runs)
}

func printMissing(missing []string) {
	for _, m := range missing {
		fmt.Printf("warning: no energetics within %s\n", m)
	}
}

func printArtifacts(paths []string) {
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
}
