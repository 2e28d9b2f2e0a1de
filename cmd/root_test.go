package cmd

import (
	"path/filepath"
	"testing"

	"github.com/higlesiasvd/gemelo-digital-urgencias-sub001/sim"
)

func TestRunCommandRegistered(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "run" {
			found = true
		}
	}
	if !found {
		t.Fatal("run subcommand not registered")
	}
}

func TestRunCommandFlags(t *testing.T) {
	flags := []string{"config", "seed", "horizon-hours", "log", "db", "realtime", "max-patients", "trace-events"}
	for _, name := range flags {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestBuildPublisher(t *testing.T) {
	dbPath, traceEvents = "", false
	if _, ok := buildPublisher().(sim.NopPublisher); !ok {
		t.Error("expected the nop publisher when no sinks are enabled")
	}

	traceEvents = true
	defer func() { traceEvents = false }()
	multi, ok := buildPublisher().(sim.MultiPublisher)
	if !ok || len(multi) != 1 {
		t.Errorf("expected one sink with --trace-events, got %T", multi)
	}

	dbPath = filepath.Join(t.TempDir(), "run.db")
	defer func() { dbPath = "" }()
	multi, ok = buildPublisher().(sim.MultiPublisher)
	if !ok || len(multi) != 2 {
		t.Errorf("expected log and db sinks, got %T with %d entries", multi, len(multi))
	}
}
