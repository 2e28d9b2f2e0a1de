package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// IncidentType classifies an exceptional event.
type IncidentType string

const (
	IncidentMassCasualty   IncidentType = "mass_casualty"
	IncidentEpidemic       IncidentType = "epidemic"
	IncidentLocalEmergency IncidentType = "local_emergency"
)

// Valid reports whether the incident type is known.
func (t IncidentType) Valid() bool {
	switch t {
	case IncidentMassCasualty, IncidentEpidemic, IncidentLocalEmergency:
		return true
	}
	return false
}

const defaultIncidentDuration = 2 * TicksPerHour

// incidentSurgeWindow spreads an incident's casualties over this many
// seconds after ingestion.
const incidentSurgeWindow = 30 * TicksPerMinute

// Incident is an exceptional event injected mid-run.
type Incident struct {
	ID        string
	Type      IncidentType
	LocationX float64
	LocationY float64
	Patients  int
	Start     int64
	Duration  int64 // 0 means defaultIncidentDuration
}

// DiversionRecord is emitted when a patient is rerouted. Immutable once
// created.
type DiversionRecord struct {
	Patient     string
	From        HospitalID
	To          HospitalID
	TriageLevel TriageLevel
	Reason      string
	Time        int64
}

// Diversion reasons
const (
	ReasonAcuityPolicy     = "acuity_policy"     // severe tiers only treated at reference
	ReasonIncidentOverload = "incident_overload" // incident redistribution
)

// Coordinator is the cross-hospital controller: it monitors saturation with
// a hysteresis band, reroutes severe patients to the reference hospital, and
// distributes incident casualties across the fleet.
type Coordinator struct {
	sim *Simulator

	activeIncidents map[string]*Incident
	diversions      []DiversionRecord
	nextIncidentSeq int
}

func NewCoordinator(s *Simulator) *Coordinator {
	return &Coordinator{
		sim:             s,
		activeIncidents: make(map[string]*Incident),
	}
}

// Diversions returns every diversion record emitted so far.
func (c *Coordinator) Diversions() []DiversionRecord { return c.diversions }

// ActiveIncidents returns the ids of unresolved incidents, sorted.
func (c *Coordinator) ActiveIncidents() []string {
	ids := make([]string, 0, len(c.activeIncidents))
	for id := range c.activeIncidents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tick re-evaluates every hospital's saturation and flips emergency flags
// with hysteresis: declared above SaturationEnter, retracted only below
// SaturationExit, so a hospital hovering near the threshold does not flap.
func (c *Coordinator) Tick(now int64) {
	cfg := c.sim.Config
	for _, id := range c.sim.hospitalOrder {
		h := c.sim.Hospitals[id]
		sat := h.Saturation(cfg.SaturationWeights)
		switch {
		case !h.EmergencyActive && sat >= cfg.SaturationEnter:
			h.EmergencyActive = true
			logrus.Warnf("hospital %s critical: saturation %.2f >= %.2f", h.ID, sat, cfg.SaturationEnter)
			c.sim.publish(PublishedEvent{
				Kind: EventEmergency, Hospital: h.ID, Time: now,
				Reason: fmt.Sprintf("saturation %.2f above threshold", sat), EmergencyActive: true,
			})
		case h.EmergencyActive && sat < cfg.SaturationExit:
			h.EmergencyActive = false
			logrus.Infof("hospital %s recovered: saturation %.2f < %.2f", h.ID, sat, cfg.SaturationExit)
			c.sim.publish(PublishedEvent{
				Kind: EventEmergency, Hospital: h.ID, Time: now,
				Reason: fmt.Sprintf("saturation %.2f below exit threshold", sat), EmergencyActive: false,
			})
		}
	}
}

// Divert reroutes a severe patient from a non-reference hospital to the
// reference hospital. The patient's flow at the origin has already released
// every held slot; a fresh flow starts at the destination's consultation
// queue after the configured transfer delay.
func (c *Coordinator) Divert(p *Patient, from *Hospital, reason string, now int64) {
	dest := HospitalID(c.sim.Config.ReferenceHospital)
	p.Destination = dest
	p.EnterStage(StageDiverted, now)
	from.TotalDivertedOut++

	rec := DiversionRecord{
		Patient:     p.ID,
		From:        from.ID,
		To:          dest,
		TriageLevel: p.TriageLevel,
		Reason:      reason,
		Time:        now,
	}
	c.diversions = append(c.diversions, rec)

	c.sim.publish(PublishedEvent{
		Kind: EventDiversion, Hospital: from.ID, Patient: p.ID, Time: now,
		TriageLevel: p.TriageLevel, Destination: dest, Reason: reason,
	})
	logrus.Debugf("diverting %s (level %d) from %s to %s: %s", p.ID, p.TriageLevel, from.ID, dest, reason)

	c.sim.Schedule(NewDivertedArrivalEvent(now+c.sim.Config.TransferDelay, dest, p))
}

// Ingest validates and activates an incident, distributing its casualties
// across the fleet. Malformed payloads are rejected at the boundary; the
// run continues unaffected.
func (c *Coordinator) Ingest(inc *Incident, now int64) {
	if inc == nil || inc.Patients <= 0 || !inc.Type.Valid() {
		logrus.Warnf("coordinator: rejecting malformed incident payload %+v", inc)
		return
	}
	if inc.ID == "" {
		c.nextIncidentSeq++
		inc.ID = fmt.Sprintf("incident_%d", c.nextIncidentSeq)
	}
	inc.Start = now
	c.activeIncidents[inc.ID] = inc

	counts := c.Distribute(inc)
	logrus.Warnf("incident %s (%s): %d casualties distributed as %v", inc.ID, inc.Type, inc.Patients, counts)

	// Spread each hospital's share evenly over the surge window; the order
	// of spawn draws follows hospitalOrder for determinism.
	for _, id := range c.sim.hospitalOrder {
		n := counts[id]
		if n == 0 {
			continue
		}
		step := incidentSurgeWindow / int64(n)
		if step < 1 {
			step = 1
		}
		for i := 0; i < n; i++ {
			at := now + int64(i)*step
			p := c.sim.Generator.SpawnIncident(id, at, inc)
			c.sim.Schedule(NewPatientArrivalEvent(at, id, p))
		}
	}

	dur := inc.Duration
	if dur <= 0 {
		dur = defaultIncidentDuration
	}
	c.sim.Schedule(NewIncidentEndEvent(now+dur, inc.ID))
}

// Resolve clears an active incident.
func (c *Coordinator) Resolve(id string, now int64) {
	if _, ok := c.activeIncidents[id]; !ok {
		return
	}
	delete(c.activeIncidents, id)
	logrus.Infof("incident %s resolved at t=%d", id, now)
}

// Distribute splits an incident's casualty count across hospitals
// proportionally to a score combining inverse distance to the incident,
// inverse saturation and inverse current wait, with configured weights.
// Largest-remainder rounding guarantees the counts sum to exactly
// inc.Patients.
func (c *Coordinator) Distribute(inc *Incident) map[HospitalID]int {
	cfg := c.sim.Config
	w := cfg.IncidentWeights
	wTotal := w.Distance + w.Saturation + w.WaitTime

	scores := make([]float64, len(c.sim.hospitalOrder))
	total := 0.0
	for i, id := range c.sim.hospitalOrder {
		h := c.sim.Hospitals[id]
		dx := h.Config.LocationX - inc.LocationX
		dy := h.Config.LocationY - inc.LocationY
		dist := math.Sqrt(dx*dx + dy*dy)
		sat := h.Saturation(cfg.SaturationWeights)
		waitHours := c.sim.Metrics.MeanWait(id) / float64(TicksPerHour)

		score := (w.Distance/(1.0+dist) + w.Saturation*(1.0-sat) + w.WaitTime/(1.0+waitHours)) / wTotal
		scores[i] = score
		total += score
	}

	counts := make(map[HospitalID]int, len(scores))
	if total <= 0 {
		// degenerate scores: spread evenly
		for i := range scores {
			scores[i] = 1
		}
		total = float64(len(scores))
	}

	type remainder struct {
		idx  int
		frac float64
	}
	assigned := 0
	remainders := make([]remainder, 0, len(scores))
	for i, id := range c.sim.hospitalOrder {
		share := float64(inc.Patients) * scores[i] / total
		base := int(math.Floor(share))
		counts[id] = base
		assigned += base
		remainders = append(remainders, remainder{idx: i, frac: share - float64(base)})
	}

	// Hand the leftover patients to the largest fractional shares;
	// ties break on hospital order for determinism.
	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].frac > remainders[b].frac
	})
	for i := 0; i < inc.Patients-assigned; i++ {
		counts[c.sim.hospitalOrder[remainders[i%len(remainders)].idx]]++
	}
	return counts
}
