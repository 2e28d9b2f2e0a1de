package sim

import (
	"testing"
)

func testGenerator(seed int64, maxPatients int) (*Generator, *Config) {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.MaxPatients = maxPatients
	cfg.FixedDemandFactor = 1.0
	rng := NewPartitionedRNG(cfg.Seed)
	demand := NewDemandAggregator(cfg.Seed, nil, cfg.FixedDemandFactor)
	return NewGenerator(cfg, rng, demand), cfg
}

func TestGenerator_NextArrivalAdvancesClock(t *testing.T) {
	g, cfg := testGenerator(42, 0)
	hc := &cfg.Hospitals[0]

	now := int64(0)
	for i := 0; i < 200; i++ {
		at, _ := g.NextArrival(hc, now)
		if at <= now {
			t.Fatalf("arrival %d: time %d does not advance past %d", i, at, now)
		}
		now = at
	}
}

func TestGenerator_HourBoundaryResample(t *testing.T) {
	g, cfg := testGenerator(42, 0)
	hc := &cfg.Hospitals[0]

	// A gap crossing the next hour boundary must yield a non-emitting
	// resample point exactly at the boundary, so rate changes take effect
	// promptly.
	near := 1*TicksPerHour - 2
	for i := 0; i < 50; i++ {
		at, emit := g.NextArrival(hc, near)
		if at > 2*TicksPerHour {
			t.Fatalf("draw %d: arrival at %d skipped over a boundary", i, at)
		}
		if !emit && at != 2*TicksPerHour && at != 1*TicksPerHour {
			t.Fatalf("draw %d: non-emitting point at %d is not an hour boundary", i, at)
		}
	}
}

func TestGenerator_SpawnDemographics(t *testing.T) {
	g, _ := testGenerator(42, 0)

	validConds := make(map[Condition]bool, len(conditionMix))
	for _, cw := range conditionMix {
		validConds[cw.cond] = true
	}

	males := 0
	const n = 10000
	for i := 0; i < n; i++ {
		p := g.Spawn("h_central", int64(i))
		if p.Age < 0 || p.Age > 100 {
			t.Fatalf("patient age %d out of range", p.Age)
		}
		if p.Sex != SexMale && p.Sex != SexFemale {
			t.Fatalf("patient sex %q invalid", p.Sex)
		}
		if !validConds[p.Condition] {
			t.Fatalf("unknown condition %q", p.Condition)
		}
		if p.Stage != StageArrived || p.Outcome != OutcomeInSystem {
			t.Fatalf("fresh patient in stage %s outcome %s", p.Stage, p.Outcome)
		}
		if p.Sex == SexMale {
			males++
		}
	}
	// 48/52 split
	frac := float64(males) / n
	if frac < 0.45 || frac > 0.51 {
		t.Errorf("male fraction %.3f, want ≈ 0.48", frac)
	}
}

func TestGenerator_DeterministicIDs(t *testing.T) {
	g1, _ := testGenerator(42, 0)
	g2, _ := testGenerator(42, 0)

	for i := 0; i < 20; i++ {
		p1 := g1.Spawn("h_central", int64(i))
		p2 := g2.Spawn("h_central", int64(i))
		if p1.ID != p2.ID {
			t.Fatalf("spawn %d: IDs diverge under identical seed: %s vs %s", i, p1.ID, p2.ID)
		}
		if p1.Condition != p2.Condition || p1.Age != p2.Age || p1.Sex != p2.Sex {
			t.Fatalf("spawn %d: demographics diverge under identical seed", i)
		}
	}

	g3, _ := testGenerator(7, 0)
	p1 := g1.Spawn("h_central", 0)
	p3 := g3.Spawn("h_central", 0)
	if p1.ID == p3.ID {
		t.Error("different seeds minted the same patient ID")
	}
}

func TestGenerator_MaxPatientsCap(t *testing.T) {
	g, _ := testGenerator(42, 3)
	for i := 0; i < 3; i++ {
		if g.Exhausted() {
			t.Fatalf("exhausted after %d of 3 spawns", i)
		}
		g.Spawn("h_central", int64(i))
	}
	if !g.Exhausted() {
		t.Error("generator not exhausted at the configured cap")
	}
}

func TestGenerator_IncidentMixSkewsConditions(t *testing.T) {
	g, _ := testGenerator(42, 0)
	inc := &Incident{ID: "incident_1", Type: IncidentEpidemic, Patients: 1}

	epidemicConds := make(map[Condition]bool)
	for _, cw := range incidentMix[IncidentEpidemic] {
		epidemicConds[cw.cond] = true
	}
	for i := 0; i < 500; i++ {
		p := g.SpawnIncident("h_central", int64(i), inc)
		if !epidemicConds[p.Condition] {
			t.Fatalf("epidemic casualty has condition %q outside the epidemic mix", p.Condition)
		}
		if p.Incident != "incident_1" {
			t.Fatalf("casualty not tagged with incident id, got %q", p.Incident)
		}
	}
}
