package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	verbosity int

	configFile string
	preset     string
	duration   float64
	dt         float64
	q0         []float64
	qd0        []float64

	seed          uint64
	batches       int
	batchSize     int
	shuffle       bool
	randomizeAxes bool
	imuBodies     []string
	imuNoise      bool
	imuSmoothing  int

	coord     int
	xAxis     int
	yAxis     int
	poincare  bool
	lane      int
	sweepFrom float64
	sweepTo   float64
	sweepN    int
	lanes     int
	pose      int
	outFile   string

	ikBody     string
	ikTarget   []float64
	ikRestarts int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "chainsim",
		Short:        "kinematic chain simulator and random motion generator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := tea.NewProgram(viz.NewMenu(), tea.WithAltScreen()).Run()
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (repeat for more)")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "simulate a system and store the rollout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	setupFlags(runCmd)

	generateCmd := &cobra.Command{
		Use:   "generate [system]",
		Short: "generate a random motion dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  generateDataset,
	}
	setupFlags(generateCmd)
	generateCmd.Flags().Uint64Var(&seed, "seed", 0, "dataset seed")
	generateCmd.Flags().IntVar(&batches, "batches", config.DefaultBatches, "number of batches")
	generateCmd.Flags().IntVar(&batchSize, "batch-size", config.DefaultBatchSize, "trajectories per batch")
	generateCmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle the dataset per epoch")
	generateCmd.Flags().BoolVar(&randomizeAxes, "randomize-axes", false, "draw random joint axes per trajectory")
	generateCmd.Flags().StringSliceVar(&imuBodies, "imu", nil, "bodies to synthesise IMU data for")
	generateCmd.Flags().BoolVar(&imuNoise, "imu-noise", false, "add noise and bias to IMU data")
	generateCmd.Flags().IntVar(&imuSmoothing, "imu-smoothing", 0, "moving average window for IMU data")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs and datasets",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [id]",
		Short: "plot a stored run or dataset lane",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&lane, "lane", 0, "dataset lane")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [id]",
		Short: "frequency analysis of one coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&coord, "coord", 0, "index into [q, qd]")

	phaseCmd := &cobra.Command{
		Use:   "phase [id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "index into [q, qd] for the x axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "index into [q, qd] for the y axis")
	phaseCmd.Flags().BoolVar(&poincare, "poincare", false, "plot the section where --coord crosses zero upwards")
	phaseCmd.Flags().IntVar(&coord, "coord", 0, "crossing coordinate for --poincare")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [system]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunov,
	}
	setupFlags(lyapunovCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "bifurcation diagram over a damping scale",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	setupFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first damping scale")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 2, "last damping scale")
	sweepCmd.Flags().IntVar(&sweepN, "n", 40, "number of values")
	sweepCmd.Flags().IntVar(&coord, "coord", 0, "index into [q, qd] to record")

	liveCmd := &cobra.Command{
		Use:   "live [system]",
		Short: "simulate with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	setupFlags(liveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [dataset_id]",
		Short: "replay one lane of a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  replayDataset,
	}
	replayCmd.Flags().IntVar(&lane, "lane", 0, "dataset lane")

	benchCmd := &cobra.Command{
		Use:   "bench [system]",
		Short: "compare single and batched stepping",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bench,
	}
	setupFlags(benchCmd)
	benchCmd.Flags().IntVar(&lanes, "lanes", 64, "batch lanes")

	ikCmd := &cobra.Command{
		Use:   "ik [system]",
		Short: "solve for a configuration that places a body at a target pose",
		Args:  cobra.MaximumNArgs(1),
		RunE:  inverseKinematics,
	}
	setupFlags(ikCmd)
	ikCmd.Flags().StringVar(&ikBody, "body", "", "end effector body (default the last body)")
	ikCmd.Flags().Float64SliceVar(&ikTarget, "target", nil, "target pose px,py,pz,qw,qx,qy,qz (default the pose at --q)")
	ikCmd.Flags().IntVar(&ikRestarts, "restarts", 0, "random restarts (0 uses a single start)")
	ikCmd.Flags().Uint64Var(&seed, "seed", 0, "restart seed")

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [id]",
		Short: "render a phase path, or with --pose a chain pose, to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().IntVar(&xAxis, "x-axis", 0, "index into [q, qd] for the x axis")
	svgCmd.Flags().IntVar(&yAxis, "y-axis", 1, "index into [q, qd] for the y axis")
	svgCmd.Flags().IntVar(&pose, "pose", 0, "step whose pose to draw")
	svgCmd.Flags().IntVar(&lane, "lane", 0, "dataset lane")
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, generateCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, lyapunovCmd,
		sweepCmd, liveCmd, replayCmd, benchCmd, ikCmd, presetsCmd, exportCmd, exportJSONCmd, svgCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupFlags registers the flags that select a system and its initial state.
func setupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the system's)")
	cmd.Flags().Float64SliceVar(&q0, "q", nil, "initial configuration")
	cmd.Flags().Float64SliceVar(&qd0, "qd", nil, "initial velocity")
}

func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

// loadConfig resolves the configuration: a preset or file first, then any
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	system := ""
	if len(args) > 0 {
		system = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		if system == "" {
			return nil, fmt.Errorf("--preset needs a system")
		}
		cfg = config.GetPreset(system, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
	default:
		cfg = config.DefaultConfig()
		if system != "" {
			cfg.System = system
		}
	}
	if system != "" && cfg.Custom == nil {
		cfg.System = system
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
		cfg.RCMG.T = duration
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("q") {
		cfg.Sim.Q = q0
	}
	if flags.Changed("qd") {
		cfg.Sim.QD = qd0
	}
	if flags.Changed("seed") {
		cfg.Dataset.Seed = seed
	}
	if flags.Changed("batches") {
		cfg.Dataset.Batches = batches
	}
	if flags.Changed("batch-size") {
		cfg.Dataset.BatchSize = batchSize
	}
	if flags.Changed("shuffle") {
		cfg.Dataset.Shuffle = shuffle
	}
	if flags.Changed("randomize-axes") {
		cfg.Dataset.RandomizeAxes = randomizeAxes
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
