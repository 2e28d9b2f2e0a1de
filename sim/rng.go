package sim

import (
	"hash/fnv"
	"math/rand"
)

// PartitionedRNG provides isolated RNG streams per subsystem for deterministic simulation.
// Isolating streams keeps one hospital's draws from perturbing another's:
// a diversion burst at hospital A must not shift the arrival sequence at B.
type PartitionedRNG struct {
	masterSeed int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a new partitioned RNG with the given master seed
func NewPartitionedRNG(masterSeed int64) *PartitionedRNG {
	return &PartitionedRNG{
		masterSeed: masterSeed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns an RNG for the given subsystem name.
// The subsystem RNG is created lazily and deterministically derived from the
// master seed; multiple calls with the same name return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, exists := p.subsystems[name]; exists {
		return rng
	}

	subsystemSeed := p.deriveSeed(name)
	rng := rand.New(rand.NewSource(subsystemSeed))
	p.subsystems[name] = rng
	return rng
}

// ForHospital returns an RNG for one concern of one hospital,
// e.g. ForHospital(SubsystemArrivals, "h_central").
func (p *PartitionedRNG) ForHospital(subsystem string, id HospitalID) *rand.Rand {
	return p.ForSubsystem(subsystem + "_" + string(id))
}

// deriveSeed deterministically derives a subsystem seed from master seed and
// subsystem name. Hash-based derivation keeps it order-independent:
// subsystemSeed = masterSeed XOR hash(subsystemName)
func (p *PartitionedRNG) deriveSeed(subsystemName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(subsystemName))
	nameHash := int64(h.Sum64())

	return p.masterSeed ^ nameHash
}

// Subsystem name constants
const (
	SubsystemArrivals    = "arrivals"
	SubsystemTriage      = "triage"
	SubsystemService     = "service"
	SubsystemOutcome     = "outcome"
	SubsystemWeather     = "weather"
	SubsystemIncident    = "incident"
	SubsystemDemographic = "demographics"
)
