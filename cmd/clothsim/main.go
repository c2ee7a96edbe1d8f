package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/storage"
	"github.com/san-kum/clothsim/internal/viz"
)

var (
	dbPath     string
	configFile string
	verbose    bool

	dt         float64
	duration   float64
	frameRate  int
	integrator string
	seed       int64
	jitter     float64
	runName    string
	runProbes  []string
	plotProbes []string
	probe      string
	noSave     bool

	addr      string
	outFile   string
	at        float64
	width     int
	height    int
	sweeps    []string
	metric    string
	workers   int
	divSteps  int
	divOffset float64
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "clothsim",
})

func main() {
	rootCmd := &cobra.Command{
		Use:           "clothsim",
		Short:         "mass-spring cloth simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(nil)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.UserPath("runs.db"), "run database")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addWorldFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset)")
	runCmd.Flags().StringSliceVar(&runProbes, "probe", nil, "probes to sample, e.g. mean_height,y:0")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().IntVar(&divSteps, "divergence", 0, "also estimate the divergence rate over this many ticks")
	runCmd.Flags().Float64Var(&divOffset, "perturbation", 1e-4, "initial offset for --divergence")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot probe series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotProbes, "probe", nil, "probes to plot (default all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and decay of a probe series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&probe, "probe", "mean_height", "probe to analyze")
	analyzeCmd.Flags().IntVar(&divSteps, "divergence", 0, "rebuild the stored config and estimate the divergence rate over this many ticks")
	analyzeCmd.Flags().Float64Var(&divOffset, "perturbation", 1e-4, "initial offset for --divergence")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [file]",
		Short: "export a run as json",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [file]",
		Short: "export probe samples as csv",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [preset]",
		Short: "render the cloth at a point in time as svg",
		Args:  cobra.MaximumNArgs(1),
		RunE:  renderSVG,
	}
	addWorldFlags(svgCmd)
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "cloth.svg", "output file")
	svgCmd.Flags().Float64Var(&at, "at", 1, "simulated time to render")
	svgCmd.Flags().IntVar(&width, "width", 600, "image width")
	svgCmd.Flags().IntVar(&height, "height", 600, "image height")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "watch the simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addWorldFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "stream render frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	addWorldFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search over parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	addWorldFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweeps, "param", nil, "name=lo:hi:n, repeatable")
	sweepCmd.Flags().StringVar(&metric, "metric", "energy_drift", "metric to minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, deleteCmd, plotCmd, analyzeCmd, exportJSONCmd,
		exportCSVCmd, svgCmd, liveCmd, serveCmd, sweepCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func addWorldFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "fixed tick length")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	cmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	cmd.Flags().StringVar(&integrator, "integrator", "leapfrog", "leapfrog, explicit_euler or implicit_euler")
	cmd.Flags().Int64Var(&seed, "seed", 0, "jitter seed")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "random displacement of free particles")
}

// loadConfig resolves the preset argument or the config file and applies
// the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var cfg *config.Config
	var name string
	if len(args) > 0 {
		name = args[0]
		if cfg = config.GetPreset(name); cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q", name)
		}
	} else {
		var path string
		var err error
		cfg, path, err = config.Discover(configFile)
		if err != nil {
			return nil, "", err
		}
		name = cfg.Name
		if name == "" {
			name = "default"
		}
		if path != "" {
			logger.Debug("loaded config", "path", path)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("fps") {
		cfg.FrameRate = frameRate
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("jitter") {
		cfg.Jitter = float32(jitter)
	}
	return cfg, name, cfg.Validate()
}

func openStore() (*storage.Store, error) {
	return storage.Open(dbPath)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
