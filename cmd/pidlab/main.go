package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/batch"
	"github.com/san-kum/pidlab/internal/compare"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/tui"
	"github.com/san-kum/pidlab/internal/tuning"
	"github.com/san-kum/pidlab/internal/viz"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	amplitude  float64
	tolerance  float64
	modeName   string
	kp         float64
	ki         float64
	kd         float64
	plantK     float64
	tau        float64
	wn         float64
	zeta       float64
	delay      float64
	polesArg   string
	zerosArg   string
	configFile string
	preset     string
	pngPath    string
	svgPath    string
	placeAt    string
	sweepName  string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
	gridKpArg  string
	gridKiArg  string
	gridKdArg  string
	metricName string
	perturb    float64
	trials     int
	seed       int64
	relayDrive float64
	relayHyst  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pidlab",
		Short: "pid control loop lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive tuner when no command given
			return tui.Run()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidlab", "data directory")

	simulateCmd := &cobra.Command{
		Use:   "simulate [plant]",
		Short: "run one closed-loop step response",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(simulateCmd)
	addGainFlags(simulateCmd)
	addPlantFlags(simulateCmd)
	simulateCmd.Flags().Float64Var(&tolerance, "tolerance", 0.02, "settling band as a fraction of the setpoint")
	simulateCmd.Flags().StringVar(&modeName, "mode", "servo", "servo or regulatory")
	simulateCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	simulateCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also render the run to a png file")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also render the run to an svg file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	suggestCmd := &cobra.Command{
		Use:   "suggest [plant]",
		Short: "suggest gains for a plant",
		Args:  cobra.ExactArgs(1),
		RunE:  suggestGains,
	}
	addPlantFlags(suggestCmd)

	znCmd := &cobra.Command{
		Use:   "zn [ku] [tu]",
		Short: "ziegler-nichols gains from the ultimate gain and period",
		Args:  cobra.ExactArgs(2),
		RunE:  znFromUltimate,
	}

	relayCmd := &cobra.Command{
		Use:   "relay [plant]",
		Short: "relay experiment to estimate the ultimate cycle",
		Args:  cobra.ExactArgs(1),
		RunE:  relayExperiment,
	}
	addPlantFlags(relayCmd)
	relayCmd.Flags().Float64Var(&relayDrive, "drive", 1.0, "relay output magnitude")
	relayCmd.Flags().Float64Var(&relayHyst, "hysteresis", 0.01, "switching band half-width")

	placeCmd := &cobra.Command{
		Use:   "place [plant]",
		Short: "pid gains that place the closed-loop poles",
		Args:  cobra.ExactArgs(1),
		RunE:  placeGains,
	}
	addPlantFlags(placeCmd)
	placeCmd.Flags().StringVar(&placeAt, "at", "", "target poles, e.g. \"-2,-3\" or \"-1+2i,-1-2i\"")

	gridCmd := &cobra.Command{
		Use:   "grid [plant]",
		Short: "grid search over gain values",
		Args:  cobra.ExactArgs(1),
		RunE:  gridSearch,
	}
	addRunFlags(gridCmd)
	addPlantFlags(gridCmd)
	gridCmd.Flags().StringVar(&gridKpArg, "kp", "", "kp candidates, e.g. \"0.5,1,2\"")
	gridCmd.Flags().StringVar(&gridKiArg, "ki", "", "ki candidates")
	gridCmd.Flags().StringVar(&gridKdArg, "kd", "", "kd candidates")
	gridCmd.Flags().StringVar(&metricName, "metric", "itae",
		fmt.Sprintf("metric to minimize (%s)", strings.Join(tuning.GridMetricNames(), ", ")))

	compareCmd := &cobra.Command{
		Use:   "compare [plant] [kp,ki,kd] [kp,ki,kd] ...",
		Short: "rank gain candidates on the same plant",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareCandidates,
	}
	addRunFlags(compareCmd)
	addPlantFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [plant]",
		Short: "sweep one gain and watch the metrics move",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepRange,
	}
	addRunFlags(sweepCmd)
	addGainFlags(sweepCmd)
	addPlantFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepName, "gain", "kp", "gain to sweep (kp, ki or kd)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 5.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	polesCmd := &cobra.Command{
		Use:   "poles [plant]",
		Short: "closed-loop pole map and stability verdict",
		Args:  cobra.ExactArgs(1),
		RunE:  polePlot,
	}
	addGainFlags(polesCmd)
	addPlantFlags(polesCmd)

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "error phase plane of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets for a plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for plant: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	robustCmd := &cobra.Command{
		Use:   "robust [plant]",
		Short: "random gain perturbation trials around a tuning",
		Args:  cobra.ExactArgs(1),
		RunE:  robustTrials,
	}
	addRunFlags(robustCmd)
	addGainFlags(robustCmd)
	addPlantFlags(robustCmd)
	robustCmd.Flags().Float64Var(&perturb, "perturb", 0.2, "fractional gain perturbation")
	robustCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	robustCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")

	benchCmd := &cobra.Command{
		Use:   "bench [plant]",
		Short: "benchmark the simulator on a plant",
		Args:  cobra.ExactArgs(1),
		RunE:  benchPlant,
	}
	addGainFlags(benchCmd)
	addPlantFlags(benchCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "interactive loop tuner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run()
		},
	}

	rootCmd.AddCommand(simulateCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd,
		suggestCmd, znCmd, relayCmd, placeCmd, gridCmd, compareCmd, sweepCmd,
		analyzeCmd, polesCmd, phaseCmd, presetsCmd, scenarioCmd, robustCmd, benchCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0.02, "sample period")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "horizon")
	cmd.Flags().Float64Var(&amplitude, "amplitude", 1.0, "step amplitude")
}

func addGainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kp, "kp", 1.0, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0.0, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", 0.0, "derivative gain")
}

func addPlantFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&plantK, "k", 1.0, "plant gain")
	cmd.Flags().Float64Var(&tau, "tau", 1.0, "time constant (first_order, delayed)")
	cmd.Flags().Float64Var(&wn, "wn", 1.0, "natural frequency (second_order)")
	cmd.Flags().Float64Var(&zeta, "zeta", 0.5, "damping ratio (second_order)")
	cmd.Flags().Float64Var(&delay, "delay", 0.5, "dead time (delayed)")
	cmd.Flags().StringVar(&polesArg, "poles", "", "poles (higher_order), e.g. \"-1,-2+1i,-2-1i\"")
	cmd.Flags().StringVar(&zerosArg, "zeros", "", "zeros (higher_order)")
}

func specFromFlags(kind string) (loop.Spec, error) {
	k, err := loop.ParseKind(kind)
	if err != nil {
		return loop.Spec{}, err
	}
	var s loop.Spec
	switch k {
	case loop.FirstOrder:
		s = loop.FirstOrderSpec(plantK, tau)
	case loop.SecondOrder:
		s = loop.SecondOrderSpec(plantK, wn, zeta)
	case loop.Integrator:
		s = loop.IntegratorSpec(plantK)
	case loop.Delayed:
		s = loop.DelayedSpec(plantK, tau, delay)
	case loop.HigherOrder:
		poles, err := parseRoots(polesArg)
		if err != nil {
			return loop.Spec{}, err
		}
		zeros, err := parseRoots(zerosArg)
		if err != nil {
			return loop.Spec{}, err
		}
		s = loop.HigherOrderSpec(plantK, poles, zeros)
	}
	if err := s.Validate(); err != nil {
		return loop.Spec{}, err
	}
	return s, nil
}

func parseRoots(s string) ([]complex128, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	roots := make([]complex128, 0, len(parts))
	for _, p := range parts {
		c, err := strconv.ParseComplex(strings.TrimSpace(p), 128)
		if err != nil {
			return nil, fmt.Errorf("bad root %q: %w", p, err)
		}
		roots = append(roots, c)
	}
	return roots, nil
}

func parseGainsTriple(s string) (loop.Gains, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return loop.Gains{}, fmt.Errorf("want kp,ki,kd, got %q", s)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return loop.Gains{}, fmt.Errorf("bad gain %q: %w", p, err)
		}
		vals[i] = v
	}
	return loop.Gains{Kp: vals[0], Ki: vals[1], Kd: vals[2]}, nil
}

func parseFloatList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", p, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func gainsFromFlags() loop.Gains {
	return loop.Gains{Kp: kp, Ki: ki, Kd: kd}
}

func runCfgFromFlags() loop.Config {
	return loop.Config{Duration: duration, Step: dt, Amplitude: amplitude}
}

// applyConfig folds a loaded configuration under the flags: only values the
// user did not set explicitly are taken from it.
func applyConfig(cmd *cobra.Command, c *config.Config) {
	if !cmd.Flags().Changed("dt") {
		dt = c.Step
	}
	if !cmd.Flags().Changed("time") {
		duration = c.Duration
	}
	if !cmd.Flags().Changed("amplitude") {
		amplitude = c.Amplitude
	}
	if !cmd.Flags().Changed("tolerance") {
		tolerance = c.Tolerance
	}
	if !cmd.Flags().Changed("mode") {
		modeName = c.Mode
	}
	if !cmd.Flags().Changed("kp") {
		kp = c.Gains.Kp
	}
	if !cmd.Flags().Changed("ki") {
		ki = c.Gains.Ki
	}
	if !cmd.Flags().Changed("kd") {
		kd = c.Gains.Kd
	}
	if !cmd.Flags().Changed("k") {
		plantK = c.Plant.K
	}
	if !cmd.Flags().Changed("tau") {
		tau = c.Plant.Tau
	}
	if !cmd.Flags().Changed("wn") {
		wn = c.Plant.Wn
	}
	if !cmd.Flags().Changed("zeta") {
		zeta = c.Plant.Zeta
	}
	if !cmd.Flags().Changed("delay") {
		delay = c.Plant.Delay
	}
	if !cmd.Flags().Changed("poles") {
		polesArg = rootsArg(c.Plant.Poles)
	}
	if !cmd.Flags().Changed("zeros") {
		zerosArg = rootsArg(c.Plant.Zeros)
	}
}

func rootsArg(rs []config.RootConfig) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = strconv.FormatComplex(complex(r.Re, r.Im), 'g', -1, 128)
	}
	return strings.Join(parts, ",")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	kind := args[0]

	if preset != "" {
		pc := config.GetPreset(kind, preset)
		if pc == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(kind))
		}
		applyConfig(cmd, pc)
	}

	if configFile != "" {
		fc, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyConfig(cmd, fc)
	}

	st := export.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	spec, err := specFromFlags(kind)
	if err != nil {
		return err
	}
	mode, err := loop.ParseMode(modeName)
	if err != nil {
		return err
	}
	cfg := runCfgFromFlags()
	gains := gainsFromFlags()

	fmt.Printf("running %s simulation...\n", kind)
	start := time.Now()

	tr, err := sim.Simulate(spec, gains, mode, cfg)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	target := cfg.Amplitude
	if mode == loop.Regulatory {
		target = 0
	}
	met := metrics.Step(tr, target, tolerance)

	runID, err := st.Save(kind, spec, gains, cfg, tr, met)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", tr.Len())
	fmt.Println("\nmetrics:")
	for name, val := range export.MetricsMap(met) {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := export.New(dataDir)
	runs, err := st.List()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no runs found")
			return nil
		}
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tMODE\tKP\tKI\tKD\tTIME\tSAVED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3g\t%.3g\t%.3g\t%.1fs\t%s\n",
			run.ID,
			run.Plant,
			run.Mode,
			run.Kp,
			run.Ki,
			run.Kd,
			run.Duration,
			run.SavedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := export.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s  mode: %s  gains: kp=%.3g ki=%.3g kd=%.3g\n", meta.Plant, meta.Mode, meta.Kp, meta.Ki, meta.Kd)
	fmt.Printf("samples: %d\n\n", tr.Len())

	fmt.Println(viz.RenderSeries([][]float64{tr.Input, tr.Output}, 10, 80, "input and output"))

	setpoint := meta.Amplitude
	if meta.Mode == loop.Regulatory.String() {
		setpoint = 0
	}
	if pngPath != "" {
		if err := export.SavePNG(pngPath, tr, setpoint, meta.ID); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", pngPath)
	}
	if svgPath != "" {
		if err := export.SaveSVG(svgPath, tr, setpoint, meta.ID); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgPath)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := export.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := export.New(dataDir)
	tr, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	return export.WriteTraceCSV(os.Stdout, tr)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := export.New(dataDir)
	return st.ExportJSONStdout(args[0])
}

func suggestGains(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}
	g, err := tuning.Suggest(spec)
	if err != nil {
		return err
	}

	fmt.Printf("suggested gains for %s:\n", args[0])
	fmt.Printf("  kp: %.4f\n  ki: %.4f\n  kd: %.4f\n", g.Kp, g.Ki, g.Kd)

	stab, err := analysis.CheckStability(spec, g)
	if err != nil {
		return err
	}
	if stab.Stable {
		fmt.Printf("\nclosed loop stable, margin %.3f, damping %.3f\n", stab.Margin, stab.Damping)
	} else {
		fmt.Printf("\nwarning: closed loop unstable, rightmost pole at %+.3f\n", -stab.Margin)
	}
	return nil
}

func znFromUltimate(cmd *cobra.Command, args []string) error {
	ku, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad ku %q: %w", args[0], err)
	}
	tu, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad tu %q: %w", args[1], err)
	}

	g, err := tuning.ZieglerNichols(ku, tu)
	if err != nil {
		return err
	}
	fmt.Printf("ziegler-nichols gains for ku=%.4g, tu=%.4g:\n", ku, tu)
	fmt.Printf("  kp: %.4f\n  ki: %.4f\n  kd: %.4f\n", g.Kp, g.Ki, g.Kd)
	return nil
}

func relayExperiment(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}

	rc := tuning.DefaultRelayConfig()
	rc.Drive = relayDrive
	rc.Hysteresis = relayHyst

	res, err := tuning.Relay(spec, rc)
	if err != nil {
		return err
	}

	fmt.Printf("relay experiment on %s:\n", args[0])
	fmt.Printf("  ultimate gain ku: %.4f\n", res.Ku)
	fmt.Printf("  ultimate period tu: %.4f s\n", res.Tu)
	fmt.Printf("  cycle amplitude: %.4f over %d peaks\n", res.Amplitude, res.Peaks)

	g, err := tuning.ZieglerNichols(res.Ku, res.Tu)
	if err != nil {
		return err
	}
	fmt.Printf("\nziegler-nichols gains:\n  kp: %.4f\n  ki: %.4f\n  kd: %.4f\n", g.Kp, g.Ki, g.Kd)
	return nil
}

func placeGains(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}
	targets, err := parseRoots(placeAt)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("need target poles, e.g. --at \"-2,-3\"")
	}

	g, err := tuning.PlacePoles(spec, targets)
	if err != nil {
		return err
	}
	fmt.Printf("gains placing the closed-loop poles:\n")
	fmt.Printf("  kp: %.4f\n  ki: %.4f\n  kd: %.4f\n", g.Kp, g.Ki, g.Kd)

	poles, err := sim.ClosedLoopPoles(spec, g)
	if err != nil {
		return err
	}
	fmt.Println("\nachieved poles:")
	for _, p := range poles {
		fmt.Printf("  %8.4f %+8.4fi\n", real(p), imag(p))
	}
	return nil
}

func gridSearch(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}

	kps, err := parseFloatList(gridKpArg)
	if err != nil {
		return err
	}
	kis, err := parseFloatList(gridKiArg)
	if err != nil {
		return err
	}
	kds, err := parseFloatList(gridKdArg)
	if err != nil {
		return err
	}
	if len(kps) == 0 && len(kis) == 0 && len(kds) == 0 {
		return fmt.Errorf("need at least one gain axis, e.g. --kp \"0.5,1,2\"")
	}

	grid := tuning.GridSearch{Kp: kps, Ki: kis, Kd: kds}
	best, score, err := grid.Search(context.Background(), spec, runCfgFromFlags(), metricName)
	if err != nil {
		return err
	}

	fmt.Printf("best gains by %s:\n", metricName)
	fmt.Printf("  kp: %.4f\n  ki: %.4f\n  kd: %.4f\n", best.Kp, best.Ki, best.Kd)
	fmt.Printf("%s: %.6f\n", metricName, score)
	return nil
}

func compareCandidates(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}

	candidates := make([]loop.Gains, 0, len(args)-1)
	for _, a := range args[1:] {
		g, err := parseGainsTriple(a)
		if err != nil {
			return err
		}
		candidates = append(candidates, g)
	}

	ranking, err := compare.Run(spec, candidates, runCfgFromFlags(), compare.DefaultWeights())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tKP\tKI\tKD\tSCORE\tOVERSHOOT\tSETTLING\tITAE")
	for i, e := range ranking {
		fmt.Fprintf(w, "%d\t%.3g\t%.3g\t%.3g\t%.3f\t%.1f%%\t%.2fs\t%.4f\n",
			i+1, e.Gains.Kp, e.Gains.Ki, e.Gains.Kd, e.Score,
			e.Metrics.Overshoot, e.Metrics.SettlingTime, e.Metrics.ITAE)
	}
	return w.Flush()
}

func sweepRange(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}

	pts, err := analysis.GainSweep(spec, gainsFromFlags(), sweepName, sweepFrom, sweepTo, sweepSteps, runCfgFromFlags())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(sweepName)+"\tSTATUS\tOVERSHOOT\tSETTLING\tITAE")
	stable := make([]float64, 0, len(pts))
	for _, pt := range pts {
		if pt.Unstable {
			fmt.Fprintf(w, "%.4g\tdiverged\t\t\t\n", pt.Value)
			continue
		}
		fmt.Fprintf(w, "%.4g\tok\t%.1f%%\t%.2fs\t%.4f\n",
			pt.Value, pt.Metrics.Overshoot, pt.Metrics.SettlingTime, pt.Metrics.ITAE)
		stable = append(stable, pt.Metrics.ITAE)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(stable) >= 2 {
		fmt.Println()
		graph := asciigraph.Plot(stable,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("itae over the stable %s values", sweepName)),
		)
		fmt.Println(graph)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := export.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	sp := analysis.PowerSpectrum(tr)
	if len(sp.Mag) == 0 {
		return fmt.Errorf("trace too short to analyze")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("plant: %s\n\n", meta.Plant)

	plotData := sp.Mag
	if len(plotData) >= 4 {
		plotData = plotData[:len(plotData)/4]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	if period := analysis.DominantPeriod(tr); period > 0 {
		fmt.Printf("dominant period: %.3f s (%.3f hz)\n", period, 1/period)
	} else {
		fmt.Println("no dominant oscillation")
	}

	level := meta.Amplitude
	if meta.Mode == loop.Regulatory.String() {
		level = 0
	}
	fmt.Printf("setpoint crossings: %d\n", len(analysis.Crossings(tr, level)))
	return nil
}

func polePlot(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}

	stab, err := analysis.CheckStability(spec, gainsFromFlags())
	if err != nil {
		return err
	}

	fmt.Println(viz.PoleMap(stab.Poles, nil, 40, 16))
	if stab.Stable {
		fmt.Printf("stable: yes (margin %.4f, damping %.3f)\n", stab.Margin, stab.Damping)
	} else {
		fmt.Printf("stable: no (rightmost pole at %+.4f)\n", -stab.Margin)
	}
	fmt.Println("\npoles:")
	for _, p := range stab.Poles {
		fmt.Printf("  %8.4f %+8.4fi\n", real(p), imag(p))
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := export.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	setpoint := meta.Amplitude
	if meta.Mode == loop.Regulatory.String() {
		setpoint = 0
	}
	plane := analysis.ErrorPhasePlane(tr, setpoint)
	if plane == nil {
		return fmt.Errorf("trace too short to plot")
	}

	fmt.Printf("error phase plane: %s\n\n", meta.ID)
	fmt.Println(analysis.PlaneToASCII(plane, 70, 20))
	fmt.Println("\nx: error    y: error rate")
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := batch.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := export.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	start := time.Now()
	results, err := batch.RunScenario(context.Background(), sc, st)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tLABEL\tSTEADY\tOVERSHOOT\tSETTLING\tRUN ID")
	for i, res := range results {
		label := res.Label
		if label == "" {
			label = "-"
		}
		id := res.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.1f%%\t%.2fs\t%s\n",
			i+1, label, res.Metrics.SteadyState, res.Metrics.Overshoot, res.Metrics.SettlingTime, id)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d steps in %v\n", len(results), time.Since(start))
	return nil
}

func robustTrials(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}

	rc := batch.RobustnessConfig{Perturbation: perturb, Trials: trials, Seed: seed}
	res, err := batch.RunRobustness(context.Background(), spec, gainsFromFlags(), runCfgFromFlags(), rc)
	if err != nil {
		return err
	}

	stable, unstable := batch.Counts(res)
	fmt.Printf("%d/%d trials stable under +/-%.0f%% gain perturbation\n", stable, stable+unstable, perturb*100)

	if stable > 0 {
		var worstITAE, worstOvershoot float64
		for _, t := range res {
			if !t.Stable {
				continue
			}
			if t.Metrics.ITAE > worstITAE {
				worstITAE = t.Metrics.ITAE
			}
			if t.Metrics.Overshoot > worstOvershoot {
				worstOvershoot = t.Metrics.Overshoot
			}
		}
		fmt.Printf("worst itae: %.4f\n", worstITAE)
		fmt.Printf("worst overshoot: %.1f%%\n", worstOvershoot)
	}
	if unstable > 0 {
		fmt.Println("\ndiverged gain triples:")
		for _, t := range res {
			if !t.Stable {
				fmt.Printf("  kp=%.4f ki=%.4f kd=%.4f\n", t.Gains.Kp, t.Gains.Ki, t.Gains.Kd)
			}
		}
	}
	return nil
}

func benchPlant(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(args[0])
	if err != nil {
		return err
	}
	gains := gainsFromFlags()

	durations := []float64{1.0, 5.0, 10.0}
	steps := []float64{0.001, 0.01, 0.1}

	fmt.Printf("benchmarking %s\n\n", args[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSAMPLES\tTIME\tSAMPLES/SEC")

	for _, dur := range durations {
		for _, step := range steps {
			cfg := loop.Config{Duration: dur, Step: step, Amplitude: 1}

			start := time.Now()
			tr, err := sim.Simulate(spec, gains, loop.Servo, cfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, tr.Len(), elapsed, float64(tr.Len())/elapsed.Seconds())
		}
	}

	return w.Flush()
}
