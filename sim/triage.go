package sim

import (
	"fmt"
	"math/rand"
)

// Condition is a presenting-condition category.
type Condition string

const (
	CondChestPain           Condition = "chest_pain"
	CondStrokeSymptoms      Condition = "stroke_symptoms"
	CondMajorTrauma         Condition = "major_trauma"
	CondMinorTrauma         Condition = "minor_trauma"
	CondRespiratoryDistress Condition = "respiratory_distress"
	CondAbdominalPain       Condition = "abdominal_pain"
	CondFever               Condition = "fever"
	CondFracture            Condition = "fracture"
	CondLaceration          Condition = "laceration"
	CondHeadache            Condition = "headache"
	CondIntoxication        Condition = "intoxication"
	CondAllergicReaction    Condition = "allergic_reaction"
	CondBackPain            Condition = "back_pain"
	CondUrinarySymptoms     Condition = "urinary_symptoms"
	CondPsychiatric         Condition = "psychiatric"
)

// baseTriageWeights is the calibrated acuity distribution across the five
// levels, most to least urgent. Intentionally non-monotonic: the bulk of ED
// presentations sit at level 4, with a smaller level-5 tail.
var baseTriageWeights = [5]float64{0.001, 0.083, 0.179, 0.627, 0.110}

// conditionAcuityBias overrides the acuity distribution for conditions that
// present disproportionately severe. This is a fixed, deterministic lookup:
// a condition either has its own five-weight vector here or uses the base.
var conditionAcuityBias = map[Condition][5]float64{
	CondChestPain:           {0.020, 0.300, 0.400, 0.250, 0.030},
	CondStrokeSymptoms:      {0.050, 0.450, 0.350, 0.140, 0.010},
	CondMajorTrauma:         {0.080, 0.420, 0.350, 0.140, 0.010},
	CondRespiratoryDistress: {0.010, 0.250, 0.450, 0.260, 0.030},
}

// maxTolerableWait is the per-level SLA target in seconds (level index 1..5).
// Used for breach alerting only; it never influences scheduling.
var maxTolerableWait = [6]int64{0, 0, 10 * TicksPerMinute, 60 * TicksPerMinute, 120 * TicksPerMinute, 240 * TicksPerMinute}

// consultationServiceMean is the nominal consultation duration per level in
// seconds. More urgent patients take longer and bind more resources.
var consultationServiceMean = [6]int64{0, 30 * TicksPerMinute, 25 * TicksPerMinute, 20 * TicksPerMinute, 10 * TicksPerMinute, 5 * TicksPerMinute}

// Fixed-mean upstream service times (seconds).
const (
	registrationServiceMean int64 = 2 * TicksPerMinute
	triageServiceMean       int64 = 5 * TicksPerMinute
)

// MaxTolerableWait returns the SLA wait target for a level (0 = immediate).
func MaxTolerableWait(level TriageLevel) int64 {
	return maxTolerableWait[level]
}

// Classifier assigns triage levels by weighted random draw, optionally
// conditioned on the presenting condition via conditionAcuityBias.
type Classifier struct {
	weights [5]float64
	cum     [5]float64
	biasCum map[Condition][5]float64
}

// NewClassifier builds a classifier from the calibrated weights, or from an
// override (already validated by Config.Validate).
func NewClassifier(override []float64) *Classifier {
	c := &Classifier{weights: baseTriageWeights}
	if override != nil {
		copy(c.weights[:], override)
	}
	c.cum = cumulate(c.weights)
	c.biasCum = make(map[Condition][5]float64, len(conditionAcuityBias))
	if override == nil {
		for cond, w := range conditionAcuityBias {
			c.biasCum[cond] = cumulate(w)
		}
	}
	return c
}

func cumulate(w [5]float64) [5]float64 {
	var cum [5]float64
	total := 0.0
	for _, v := range w {
		total += v
	}
	run := 0.0
	for i, v := range w {
		run += v / total
		cum[i] = run
	}
	cum[4] = 1.0 // guard against float drift
	return cum
}

// Classify draws an acuity level for the patient's condition.
func (c *Classifier) Classify(rng *rand.Rand, cond Condition) TriageLevel {
	cum := c.cum
	if biased, ok := c.biasCum[cond]; ok {
		cum = biased
	}
	u := rng.Float64()
	for i, edge := range cum {
		if u < edge {
			return TriageLevel(i + 1)
		}
	}
	return TriageNonUrgent
}

// ConsultationTime samples the consultation duration for a level, with ±20%
// uniform jitter, divided by the room's speed factor.
func (c *Classifier) ConsultationTime(rng *rand.Rand, level TriageLevel, speed float64) int64 {
	if level < TriageResuscitation || level > TriageNonUrgent {
		panic(fmt.Sprintf("consultation time for invalid triage level %d", level))
	}
	if speed < 1.0 {
		panic(fmt.Sprintf("room speed factor %g < 1", speed))
	}
	d := float64(jitter(rng, consultationServiceMean[level])) / speed
	if d < 1 {
		return 1
	}
	return int64(d)
}

// RegistrationTime samples the registration desk service duration.
func RegistrationTime(rng *rand.Rand) int64 {
	return jitter(rng, registrationServiceMean)
}

// TriageTime samples the triage assessment duration.
func TriageTime(rng *rand.Rand) int64 {
	return jitter(rng, triageServiceMean)
}

// ObservationStay samples an observation stay around the configured mean.
func ObservationStay(rng *rand.Rand, mean int64) int64 {
	return jitter(rng, mean)
}

// jitter draws uniformly from [0.8*mean, 1.2*mean], floored at 1 second.
func jitter(rng *rand.Rand, mean int64) int64 {
	if mean < 0 {
		panic(fmt.Sprintf("negative service mean %d", mean))
	}
	d := int64(float64(mean) * (0.8 + 0.4*rng.Float64()))
	if d < 1 {
		return 1
	}
	return d
}
