package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/higlesiasvd/gemelo-digital-urgencias-sub001/sim"
	"github.com/higlesiasvd/gemelo-digital-urgencias-sub001/sim/recorder"
)

var (
	// CLI flags for the simulation run
	configPath   string  // Fleet/scenario YAML file (defaults built in)
	seed         int64   // Master seed for all randomness
	horizonHours int64   // Simulated duration in hours
	logLevel     string  // Log verbosity level
	dbPath       string  // SQLite recording sink ("" disables)
	realtime     float64 // Simulated seconds per wall second (0 = flat out)
	maxPatients  int     // Stop spawning after this many patients (0 = unlimited)
	traceEvents  bool    // Log every published event at debug level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "urgencias-sim",
	Short: "Discrete-event digital twin of coordinated hospital emergency departments",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the emergency-department simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = sim.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("unable to load configuration: %v", err)
			}
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}
		if cmd.Flags().Changed("horizon-hours") {
			cfg.Horizon = horizonHours * sim.TicksPerHour
		}
		if cmd.Flags().Changed("realtime") {
			cfg.RealtimeFactor = realtime
		}
		if cmd.Flags().Changed("max-patients") {
			cfg.MaxPatients = maxPatients
		}

		pub := buildPublisher()

		s, err := sim.NewSimulator(cfg, pub)
		if err != nil {
			logrus.Fatalf("cannot start simulation: %v", err)
		}

		logrus.Infof("fleet of %d hospitals, reference=%s, horizon=%dh, seed=%d",
			len(cfg.Hospitals), cfg.ReferenceHospital, cfg.Horizon/sim.TicksPerHour, cfg.Seed)

		startTime := time.Now()
		s.Run()

		fmt.Print(s.Metrics.Summary(s, startTime))
	},
}

// buildPublisher assembles the event/snapshot sink from the flags.
func buildPublisher() sim.Publisher {
	var sinks sim.MultiPublisher
	if traceEvents {
		sinks = append(sinks, sim.LogPublisher{})
	}
	if dbPath != "" {
		rec, err := recorder.Open(dbPath)
		if err != nil {
			logrus.Fatalf("unable to open recording database %s: %v", dbPath, err)
		}
		sinks = append(sinks, rec)
	}
	if len(sinks) == 0 {
		return sim.NopPublisher{}
	}
	return sinks
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Fleet/scenario YAML file (built-in defaults if empty)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for all randomness")
	runCmd.Flags().Int64Var(&horizonHours, "horizon-hours", 24, "Simulated duration in hours")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite file recording events and snapshots")
	runCmd.Flags().Float64Var(&realtime, "realtime", 0, "Simulated seconds per wall second (0 = as fast as possible)")
	runCmd.Flags().IntVar(&maxPatients, "max-patients", 0, "Stop spawning after this many patients (0 = unlimited)")
	runCmd.Flags().BoolVar(&traceEvents, "trace-events", false, "Log every published event at debug level")

	rootCmd.AddCommand(runCmd)
}
