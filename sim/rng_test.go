package sim

import "testing"

func TestPartitionedRNG_SameSubsystemSameStream(t *testing.T) {
	p := NewPartitionedRNG(42)
	a := p.ForSubsystem(SubsystemTriage)
	b := p.ForSubsystem(SubsystemTriage)
	if a != b {
		t.Error("same subsystem name should return the same RNG instance")
	}
}

func TestPartitionedRNG_DifferentSubsystemsIndependent(t *testing.T) {
	p1 := NewPartitionedRNG(42)
	p2 := NewPartitionedRNG(42)

	// Drain one stream in p1 only; the other stream must be unaffected.
	arrivals1 := p1.ForHospital(SubsystemArrivals, "h_a")
	for i := 0; i < 1000; i++ {
		arrivals1.Float64()
	}
	triage1 := p1.ForHospital(SubsystemTriage, "h_a")
	triage2 := p2.ForHospital(SubsystemTriage, "h_a")

	for i := 0; i < 10; i++ {
		v1, v2 := triage1.Float64(), triage2.Float64()
		if v1 != v2 {
			t.Fatalf("draw %d: triage stream perturbed by arrivals drain: %g != %g", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_CreationOrderIndependent(t *testing.T) {
	p1 := NewPartitionedRNG(7)
	p2 := NewPartitionedRNG(7)

	// Touch subsystems in different orders; derived seeds are hash-based
	// so each stream must still be identical across the two.
	_ = p1.ForSubsystem(SubsystemWeather)
	_ = p1.ForSubsystem(SubsystemIncident)
	_ = p2.ForSubsystem(SubsystemIncident)
	_ = p2.ForSubsystem(SubsystemWeather)

	if p1.ForSubsystem(SubsystemWeather).Int63() != p2.ForSubsystem(SubsystemWeather).Int63() {
		t.Error("weather stream differs depending on creation order")
	}
	if p1.ForSubsystem(SubsystemIncident).Int63() != p2.ForSubsystem(SubsystemIncident).Int63() {
		t.Error("incident stream differs depending on creation order")
	}
}

func TestPartitionedRNG_DifferentSeedsDiffer(t *testing.T) {
	a := NewPartitionedRNG(1).ForSubsystem(SubsystemOutcome)
	b := NewPartitionedRNG(2).ForSubsystem(SubsystemOutcome)

	same := true
	for i := 0; i < 5; i++ {
		if a.Int63() != b.Int63() {
			same = false
		}
	}
	if same {
		t.Error("different master seeds produced identical outcome streams")
	}
}
