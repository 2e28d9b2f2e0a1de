package sim

import (
	"math/rand"

	"github.com/google/uuid"
)

// hourShape is the 24-value multiplier on the base arrival rate, peaking
// around midday with the overnight trough typical of ED presentations.
var hourShape = [24]float64{
	0.55, 0.45, 0.40, 0.38, 0.38, 0.42, // 00-05
	0.55, 0.75, 1.00, 1.20, 1.35, 1.40, // 06-11
	1.38, 1.30, 1.20, 1.15, 1.10, 1.15, // 12-17
	1.20, 1.15, 1.00, 0.90, 0.75, 0.65, // 18-23
}

type ageBucket struct {
	lo, hi int
	weight float64
}

var ageBuckets = []ageBucket{
	{0, 4, 0.08}, {5, 14, 0.07}, {15, 24, 0.10}, {25, 34, 0.12},
	{35, 44, 0.12}, {45, 54, 0.12}, {55, 64, 0.11}, {65, 74, 0.11},
	{75, 84, 0.11}, {85, 100, 0.06},
}

const maleProbability = 0.48

type conditionWeight struct {
	cond   Condition
	weight float64
}

// walk-in case mix over the presenting-condition categories
var conditionMix = []conditionWeight{
	{CondChestPain, 0.06}, {CondStrokeSymptoms, 0.02}, {CondMajorTrauma, 0.02},
	{CondMinorTrauma, 0.10}, {CondRespiratoryDistress, 0.07}, {CondAbdominalPain, 0.12},
	{CondFever, 0.10}, {CondFracture, 0.08}, {CondLaceration, 0.08},
	{CondHeadache, 0.07}, {CondIntoxication, 0.04}, {CondAllergicReaction, 0.03},
	{CondBackPain, 0.08}, {CondUrinarySymptoms, 0.06}, {CondPsychiatric, 0.07},
}

// incident case mixes, keyed by incident type
var incidentMix = map[IncidentType][]conditionWeight{
	IncidentMassCasualty: {
		{CondMajorTrauma, 0.30}, {CondMinorTrauma, 0.25}, {CondFracture, 0.20},
		{CondLaceration, 0.15}, {CondRespiratoryDistress, 0.10},
	},
	IncidentEpidemic: {
		{CondFever, 0.45}, {CondRespiratoryDistress, 0.35}, {CondAbdominalPain, 0.20},
	},
	IncidentLocalEmergency: {
		{CondMinorTrauma, 0.30}, {CondLaceration, 0.25}, {CondFracture, 0.20},
		{CondRespiratoryDistress, 0.15}, {CondIntoxication, 0.10},
	},
}

// Generator produces patient arrivals per hospital following a
// non-homogeneous Poisson process: exponential inter-arrival gaps at rate
// base × hourShape × demandFactor, redrawn at every hour boundary so rate
// changes take effect promptly.
type Generator struct {
	cfg     *Config
	rng     *PartitionedRNG
	demand  *DemandAggregator
	ns      uuid.UUID
	nextSeq int
	spawned int
}

// NewGenerator derives the patient-ID namespace from the run seed so that
// identically-seeded runs mint identical patient identifiers.
func NewGenerator(cfg *Config, rng *PartitionedRNG, demand *DemandAggregator) *Generator {
	ns := uuid.NewSHA1(uuid.NameSpaceOID, fmt64(cfg.Seed))
	return &Generator{cfg: cfg, rng: rng, demand: demand, ns: ns}
}

func fmt64(v int64) []byte {
	b := make([]byte, 0, 20)
	b = append(b, "urgencias-run-"...)
	if v < 0 {
		b = append(b, '-')
		v = -v
	}
	var digits [20]byte
	i := len(digits)
	for {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	return append(b, digits[i:]...)
}

// Exhausted reports whether the configured patient cap has been reached.
func (g *Generator) Exhausted() bool {
	return g.cfg.MaxPatients > 0 && g.spawned >= g.cfg.MaxPatients
}

// ratePerSecond is the instantaneous arrival rate for a hospital.
func (g *Generator) ratePerSecond(hc *HospitalConfig, now int64) float64 {
	hour := int((now / TicksPerHour) % 24)
	return hc.BaseArrivalRate / float64(TicksPerHour) * hourShape[hour] * g.demand.Factor(HospitalID(hc.ID))
}

// NextArrival returns the next scheduling point for a hospital's arrival
// process. emit=true means a patient arrives at that time; emit=false means
// the time is an hour boundary where the gap must be resampled at the new
// rate.
func (g *Generator) NextArrival(hc *HospitalConfig, now int64) (at int64, emit bool) {
	rng := g.rng.ForHospital(SubsystemArrivals, HospitalID(hc.ID))
	gap := int64(rng.ExpFloat64() / g.ratePerSecond(hc, now))
	if gap < 1 {
		gap = 1
	}
	boundary := (now/TicksPerHour + 1) * TicksPerHour
	if now+gap >= boundary {
		return boundary, false
	}
	return now + gap, true
}

// Spawn mints a walk-in patient for the given hospital.
func (g *Generator) Spawn(h HospitalID, at int64) *Patient {
	p := g.newPatient(h, at)
	rng := g.rng.ForHospital(SubsystemDemographic, h)
	p.Condition = drawCondition(rng, conditionMix)
	return p
}

// SpawnIncident mints an incident casualty with a case mix skewed by the
// incident type.
func (g *Generator) SpawnIncident(h HospitalID, at int64, inc *Incident) *Patient {
	p := g.newPatient(h, at)
	p.Incident = inc.ID
	rng := g.rng.ForSubsystem(SubsystemIncident)
	mix, ok := incidentMix[inc.Type]
	if !ok {
		mix = conditionMix
	}
	p.Condition = drawCondition(rng, mix)
	return p
}

func (g *Generator) newPatient(h HospitalID, at int64) *Patient {
	g.nextSeq++
	g.spawned++
	p := NewPatient(g.ns, g.nextSeq, h, at)
	rng := g.rng.ForHospital(SubsystemDemographic, h)
	p.Age = drawAge(rng)
	if rng.Float64() < maleProbability {
		p.Sex = SexMale
	} else {
		p.Sex = SexFemale
	}
	return p
}

func drawAge(rng *rand.Rand) int {
	u := rng.Float64()
	run := 0.0
	for _, b := range ageBuckets {
		run += b.weight
		if u < run {
			return b.lo + rng.Intn(b.hi-b.lo+1)
		}
	}
	last := ageBuckets[len(ageBuckets)-1]
	return last.lo + rng.Intn(last.hi-last.lo+1)
}

func drawCondition(rng *rand.Rand, mix []conditionWeight) Condition {
	total := 0.0
	for _, cw := range mix {
		total += cw.weight
	}
	u := rng.Float64() * total
	run := 0.0
	for _, cw := range mix {
		run += cw.weight
		if u < run {
			return cw.cond
		}
	}
	return mix[len(mix)-1].cond
}
