package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tidalsim/internal/analysis"
	"github.com/san-kum/tidalsim/internal/config"
	"github.com/san-kum/tidalsim/internal/dynamo"
	"github.com/san-kum/tidalsim/internal/gui"
	"github.com/san-kum/tidalsim/internal/integrators"
	"github.com/san-kum/tidalsim/internal/metrics"
	"github.com/san-kum/tidalsim/internal/render"
	"github.com/san-kum/tidalsim/internal/sim"
	"github.com/san-kum/tidalsim/internal/storage"
	"github.com/san-kum/tidalsim/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	logEvery    int
	configFile  string
	dt          float64
	integrator  string
	tickRate    int
	steps       int
	benchSteps  int
	recordEvery int
	pace        bool
	body        string
	outFile     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tidalsim",
		Short: "orbital tide simulation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(os.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the window when no command given
			return runGUI(cmd, []string{config.DefaultPreset})
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tidalsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&logEvery, "log-every", 0, "log body status every n steps at debug level")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run simulation headless and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 1000, "number of steps")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 10, "record a trajectory sample every n steps")
	runCmd.Flags().BoolVar(&pace, "pace", false, "hold the tick rate instead of running flat out")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui [preset]",
		Short: "run simulation in a window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %d bodies, %s, dt=%g\n", name, len(p.Bodies), p.Integrator, p.Dt)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [preset]",
		Short: "print a preset as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printConfig,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&body, "body", "", "body to plot (default: first moving body)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a body trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&body, "body", "", "body to analyze (default: first moving body)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run as json",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark integrators",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 2000, "steps per integrator")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, presetsCmd, configCmd, listCmd, plotCmd, analyzeCmd, exportCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", 1, "timestep (overrides the preset)")
	cmd.Flags().StringVar(&integrator, "integrator", "direct", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().IntVar(&tickRate, "tick-rate", config.DefaultTickRate, "target steps per second")
}

func setupLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig resolves the preset or config file and applies any flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("tick-rate") {
		cfg.TickRate = tickRate
	}
	if flags.Changed("log-every") {
		cfg.LogEvery = logEvery
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	loop, err := cfg.NewLoop()
	if err != nil {
		return err
	}
	loop.AddMetric(metrics.NewMomentumDrift())
	loop.AddMetric(metrics.NewEnergyDrift(cfg.Gravity()))
	if len(loop.World().Oceans) > 0 {
		loop.AddMetric(metrics.NewTidalRange(0))
	}

	rec := storage.NewRecorder(recordEvery)
	rec.Capture(loop.World(), 0, 0)
	loop.AddObserver(rec)

	headless := render.NewHeadless(cfg.Viewport(), 0)
	headless.Pace = pace
	session := &sim.Session{Renderer: headless, TickRate: cfg.TickRate, MaxFrames: steps}
	defer session.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s simulation...\n", cfg.Name)
	start := time.Now()
	runErr := loop.Run(ctx, session)
	elapsed := time.Since(start)

	names := make([]string, len(cfg.Bodies))
	for i, b := range cfg.Bodies {
		names[i] = b.Name
	}
	meta := storage.RunMetadata{
		Preset:     cfg.Name,
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		Steps:      loop.Steps(),
		Time:       loop.Time(),
		Bodies:     names,
		Reason:     loop.Reason(),
		Metrics:    loop.Results(),
	}

	// Collisions still leave a useful trajectory, so save before reporting.
	st := storage.New(dataDir)
	runID, err := st.Save(meta, cfg, rec.Samples())
	if err != nil {
		return err
	}
	meta.ID = runID
	slog.Info("run saved", "run", meta)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%s)\n", loop.Steps(), loop.Reason())
	fmt.Printf("simulated time: %gs\n", loop.Time())
	fmt.Println("metrics:")
	keys := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		fmt.Printf("  %s: %.6g\n", name, meta.Metrics[name])
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so loop logs are dropped.
	loop, err := cfg.NewLoop(sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return viz.Run(ctx, loop, cfg.Viewport(), cfg.Name, cfg.G, cfg.TickRate)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	loop, err := cfg.NewLoop()
	if err != nil {
		return err
	}
	hud := func() string {
		return fmt.Sprintf("%s  step %d  t=%.0fs", cfg.Name, loop.Steps(), loop.Time())
	}

	ctx, cancel := signalContext()
	defer cancel()
	err = gui.Run(ctx, loop, "tidalsim: "+cfg.Name, cfg.Viewport(), cfg.TickRate, hud)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printConfig(cmd *cobra.Command, args []string) error {
	name := config.DefaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSTEPS\tSIM TIME\tDT\tINTEG\tREASON")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%gs\t%g\t%s\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Time,
			run.Dt,
			run.Integrator,
			run.Reason,
		)
	}

	return w.Flush()
}

func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

// loadSeries picks the requested body, or the first one that is not fixed.
func loadSeries(st *storage.Store, runID string) (*storage.RunMetadata, string, []float64, []float64, []float64, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, "", nil, nil, nil, err
	}
	samples, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, "", nil, nil, nil, err
	}

	name := body
	if name == "" {
		name = defaultBody(st, runID, samples)
	}
	times, xs, ys := storage.Series(samples, name)
	if len(times) == 0 {
		return nil, "", nil, nil, nil, fmt.Errorf("no samples for body %q (available: %v)", name, storage.Bodies(samples))
	}
	return meta, name, times, xs, ys, nil
}

func defaultBody(st *storage.Store, runID string, samples []storage.Sample) string {
	if cfg, err := st.LoadConfig(runID); err == nil {
		for _, b := range cfg.Bodies {
			if !b.Fixed {
				return b.Name
			}
		}
	}
	if names := storage.Bodies(samples); len(names) > 0 {
		return names[len(names)-1]
	}
	return ""
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, name, times, xs, ys, err := loadSeries(st, runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("body: %s (%d samples, t=%g..%gs)\n\n", name, len(times), times[0], times[len(times)-1])

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{xs, name + " x"},
		{ys, name + " y"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, name, times, xs, _, err := loadSeries(st, runID)
	if err != nil {
		return err
	}
	if len(times) < 2 {
		return analysis.ErrTooShort
	}
	sampleDt := times[1] - times[0]

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s, body: %s\n\n", meta.Preset, name)

	power := analysis.PowerSpectrum(xs)
	if len(power) > 1 {
		plotData := power[1:]
		if len(plotData) > 80 {
			plotData = plotData[:80]
		}
		graph := asciigraph.Plot(plotData,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+name+" x)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	period, err := analysis.DominantPeriod(xs, sampleDt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant period: %.4gs\n", period)
	fmt.Printf("dominant frequency: %.4g hz\n", 1/period)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := st.ExportJSON(out, runID); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Printf("exported %s to %s\n", runID, outFile)
	}
	return nil
}

func benchPreset(cmd *cobra.Command, args []string) error {
	name := config.DefaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	if config.GetPreset(name) == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	fmt.Printf("benchmarking %s (%d steps)\n\n", name, benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tSTEPS\tTIME\tSTEPS/SEC\tMOMENTUM\tRESULT")

	quiet := sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, integ := range integrators.Names() {
		cfg := config.GetPreset(name)
		cfg.Integrator = integ

		loop, err := cfg.NewLoop(quiet)
		if err != nil {
			return err
		}
		momentum := metrics.NewMomentumDrift()
		loop.AddMetric(momentum)

		result := "ok"
		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			if err := loop.Step(); err != nil {
				result = "collision"
				if !errors.Is(err, dynamo.ErrCollision) {
					result = err.Error()
				}
				break
			}
		}
		elapsed := time.Since(start)

		rate := float64(loop.Steps()) / elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%.2e\t%s\n",
			integ,
			loop.Steps(),
			elapsed.Round(time.Microsecond),
			rate,
			momentum.Value(),
			result,
		)
	}

	return w.Flush()
}
