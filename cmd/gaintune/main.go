package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile   string
	preset       string
	integrator   string
	dt           float64
	rate         float64
	seed         int64
	maxTrials    int
	averaging    int
	antiWindup   bool
	live         bool
	overrideFile string
	metricsAddr  string
	robustness   bool
	svgOut       string
)

// main registers the gaintune commands and exits 1 if the command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gaintune",
		Short:         "evolutionary pid gain tuner",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config, .gaintune)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	tuneCmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "tune pid gains against a simulated plant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator: euler, rk4")
	tuneCmd.Flags().Float64Var(&dt, "dt", 0.02, "control period in seconds")
	tuneCmd.Flags().Float64Var(&rate, "rate", 0, "ticks per second, 0 for as fast as possible")
	tuneCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	tuneCmd.Flags().IntVar(&maxTrials, "max-trials", 100, "stop after this many trials")
	tuneCmd.Flags().IntVar(&averaging, "averaging", 3, "trials averaged per candidate, 1 for immediate accept/reject")
	tuneCmd.Flags().BoolVar(&antiWindup, "anti-windup", false, "reset the integral when the error changes sign")
	tuneCmd.Flags().BoolVar(&live, "live", false, "show the live dashboard")
	tuneCmd.Flags().StringVar(&overrideFile, "override-file", "", "watch this file for suggested gains \"kp,ki,kd\"")
	tuneCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	tuneCmd.Flags().BoolVar(&robustness, "robustness", false, "start with robustness trials enabled")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list tuning runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a tuning run, latest if omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&svgOut, "svg", "", "also write the duration chart to this svg file")

	plantsCmd := &cobra.Command{
		Use:   "plants",
		Short: "list simulated plants",
		RunE:  listPlants,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets for a plant",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "write a preset instead, as plant/name")

	rootCmd.AddCommand(tuneCmd, runsCmd, showCmd, plantsCmd, presetsCmd, initCmd)
	return rootCmd
}
