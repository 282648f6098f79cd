package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/logs"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	integrator string
	dt         float64
	tEnd       float64
	overrides  []string
	// Plot outputs
	pngFile string
	svgFile string
	series  []string
	// Sweeps
	param   string
	values  []float64
	workers int
	// Grid search
	gridParams []string
	metric     string
	// Phase plot axes
	xAxis int
	yAxis int
)

// main registers the hydrorig commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "hydrorig",
		Short:         "hydraulic rod lift rig simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logs.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logs.SetLevel(l)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hydrorig", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation and store its trace",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"theta", "z"}, "series to plot")
	plotCmd.Flags().StringVar(&pngFile, "png", "", "also render the series to a PNG file")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also render the first series to an SVG file")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two state components",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 2, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 3, "state index for y-axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "signal statistics and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
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

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s integrator=%s dt=%g tEnd=%g valve=%s\n",
					name, cfg.Integrator, cfg.Dt, cfg.TEnd, cfg.Valve.Profile)
			}
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per parameter value in parallel",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "M", "parameter to vary")
	sweepCmd.Flags().Float64SliceVar(&values, "values", nil, "parameter values")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "parallel runs")
	_ = sweepCmd.MarkFlagRequired("values")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same configuration",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addConfigFlags(compareCmd)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search parameters for the lowest metric value",
		Long: "Each --grid flag is name=v1,v2,...; every combination is run and the one\n" +
			"with the smallest --metric is reported.",
		Args: cobra.NoArgs,
		RunE: runSearch,
	}
	addConfigFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&gridParams, "grid", nil, "parameter values, e.g. --grid M=2000,3000")
	searchCmd.Flags().StringVar(&metric, "metric", "peak_theta", "metric to minimize")
	searchCmd.Flags().IntVar(&workers, "workers", 4, "parallel runs")
	_ = searchCmd.MarkFlagRequired("grid")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, phaseCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, sweepCmd, compareCmd, searchCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or cue)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	cmd.Flags().Float64Var(&tEnd, "time", config.DefaultTEnd, "end time (s)")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a parameter, e.g. --set M=3000")
}

// loadConfig layers the preset, the config file, then explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.TEnd = tEnd
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}

	for _, kv := range overrides {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", name, err)
		}
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func newLogger() *slog.Logger {
	return logs.New(os.Stderr, true)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
