package sim

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/sirupsen/logrus"
)

// DemandContext is a per-hospital, per-hour snapshot of the signals that
// modulate arrival pressure.
type DemandContext struct {
	Hour                   int
	TemperatureC           float64
	Precipitation          bool
	PrecipitationIntensity float64 // 0..1
	EventLoad              float64 // 0..1, local sporting/cultural events
	Weekend                bool
	Holiday                bool
	Factor                 float64 // combined multiplicative demand factor
}

// Demand factor bounds. The factor is clamped so a pathological signal
// combination cannot drive the arrival process to zero or to infinity.
const (
	demandFactorMin = 0.25
	demandFactorMax = 4.0
)

// DemandAggregator derives the demand factor for each hospital. Weather is a
// smooth synthetic signal (layered simplex noise over simulated time);
// event load arrives as an external runtime signal and is validated at the
// boundary, falling back to the last known good value on bad input.
type DemandAggregator struct {
	tempNoise opensimplex.Noise
	rainNoise opensimplex.Noise

	eventLoad map[HospitalID]float64
	holidays  map[int]bool
	contexts  map[HospitalID]DemandContext
	fixed     float64 // > 0 pins the factor for scenario runs
}

// NewDemandAggregator seeds the weather channels from the master seed.
// fixedFactor > 0 pins the combined factor (scenario runs).
func NewDemandAggregator(seed int64, holidayDays []int, fixedFactor float64) *DemandAggregator {
	holidays := make(map[int]bool, len(holidayDays))
	for _, d := range holidayDays {
		holidays[d] = true
	}
	return &DemandAggregator{
		tempNoise: opensimplex.NewNormalized(seed),
		rainNoise: opensimplex.NewNormalized(seed + 1),
		eventLoad: make(map[HospitalID]float64),
		holidays:  holidays,
		contexts:  make(map[HospitalID]DemandContext),
		fixed:     fixedFactor,
	}
}

// Refresh recomputes the demand context for one hospital at the given time.
// Called once per simulated hour per hospital.
func (d *DemandAggregator) Refresh(h HospitalID, now int64) DemandContext {
	hour := int((now / TicksPerHour) % 24)
	day := int(now / TicksPerDay)

	// Smooth daily-scale weather. A diurnal sine rides on slow noise so
	// temperature peaks mid-afternoon and drifts across days.
	t := float64(now) / float64(TicksPerDay)
	base := 6 + 20*d.tempNoise.Eval2(t*0.35, hashChannel(h))
	diurnal := 5 * math.Sin(2*math.Pi*(float64(hour)-9)/24)
	temp := base + diurnal

	rain := d.rainNoise.Eval2(t*0.8, hashChannel(h))
	precip := rain > 0.62
	intensity := 0.0
	if precip {
		intensity = math.Min(1, (rain-0.62)/0.38)
	}

	ctx := DemandContext{
		Hour:                   hour,
		TemperatureC:           temp,
		Precipitation:          precip,
		PrecipitationIntensity: intensity,
		EventLoad:              d.eventLoad[h],
		Weekend:                day%7 >= 5,
		Holiday:                d.holidays[day],
	}
	if d.fixed > 0 {
		ctx.Factor = d.fixed
	} else {
		ctx.Factor = combine(ctx)
	}
	d.contexts[h] = ctx
	return ctx
}

// Factor returns the current demand factor for a hospital (1.0 before the
// first refresh).
func (d *DemandAggregator) Factor(h HospitalID) float64 {
	if ctx, ok := d.contexts[h]; ok {
		return ctx.Factor
	}
	if d.fixed > 0 {
		return d.fixed
	}
	return 1.0
}

// Context returns the last refreshed context for a hospital.
func (d *DemandAggregator) Context(h HospitalID) (DemandContext, bool) {
	ctx, ok := d.contexts[h]
	return ctx, ok
}

// SetEventLoad ingests the external event-load signal for a hospital.
// Invalid values are rejected and the last known good value kept.
func (d *DemandAggregator) SetEventLoad(h HospitalID, load float64) {
	if load < 0 || math.IsNaN(load) || math.IsInf(load, 0) {
		logrus.Warnf("demand: rejecting invalid event load %g for %s, keeping %g", load, h, d.eventLoad[h])
		return
	}
	if load > 1 {
		load = 1
	}
	d.eventLoad[h] = load
}

// combine multiplies the individual signal factors and clamps the result.
// Each factor is >= some small positive value, so the combination is
// monotone in every input.
func combine(ctx DemandContext) float64 {
	f := 1.0

	// Temperature extremes push people into the ED.
	switch {
	case ctx.TemperatureC <= 2:
		f *= 1.25
	case ctx.TemperatureC <= 8:
		f *= 1.10
	case ctx.TemperatureC >= 34:
		f *= 1.30
	case ctx.TemperatureC >= 28:
		f *= 1.12
	}

	if ctx.Precipitation {
		f *= 1.05 + 0.10*ctx.PrecipitationIntensity
	}

	f *= 1.0 + 0.5*ctx.EventLoad

	if ctx.Holiday {
		f *= 1.25
	} else if ctx.Weekend {
		f *= 1.15
	}

	return math.Min(demandFactorMax, math.Max(demandFactorMin, f))
}

// hashChannel maps a hospital id to a fixed noise-plane offset so each site
// gets weather that is correlated but not identical across the fleet.
func hashChannel(h HospitalID) float64 {
	var sum int
	for _, c := range string(h) {
		sum += int(c)
	}
	return float64(sum%17) * 0.25
}
