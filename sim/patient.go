package sim

import (
	"fmt"

	"github.com/google/uuid"
)

// Patient is a synthetic simulation entity. It is owned exclusively by the
// flow handlers of the hospital it is currently at; observers only read.
type Patient struct {
	ID  string
	Seq int // spawn sequence, deterministic tie-break in priority queues

	// Demographics
	Age       int
	Sex       Sex
	Condition Condition

	// Assigned at triage; zero until then
	TriageLevel TriageLevel

	Stage   Stage
	Outcome Outcome

	Origin      HospitalID
	Destination HospitalID // set when diverted
	Incident    string     // incident id if spawned by one

	ArrivalTime int64

	// Entry timestamp per stage, for wait/service derivation.
	stageEntered map[Stage]int64
}

// NewPatient creates a patient arriving at origin at the given time.
// The identifier is a name-based UUID over the run namespace and the spawn
// sequence, so identical seeds produce identical patient IDs.
func NewPatient(ns uuid.UUID, seq int, origin HospitalID, at int64) *Patient {
	id := uuid.NewSHA1(ns, fmt.Appendf(nil, "patient-%d", seq))
	p := &Patient{
		ID:           id.String(),
		Seq:          seq,
		Stage:        StageArrived,
		Outcome:      OutcomeInSystem,
		Origin:       origin,
		ArrivalTime:  at,
		stageEntered: make(map[Stage]int64, 10),
	}
	p.stageEntered[StageArrived] = at
	return p
}

// EnterStage advances the patient and records the transition time.
func (p *Patient) EnterStage(stage Stage, now int64) {
	p.Stage = stage
	p.stageEntered[stage] = now
}

// StageEntered returns when the patient entered the given stage.
// ok is false if the stage was never reached.
func (p *Patient) StageEntered(stage Stage) (int64, bool) {
	t, ok := p.stageEntered[stage]
	return t, ok
}

// Terminal reports whether the patient has left the system at its current
// hospital (diverted patients are terminal at the origin only).
func (p *Patient) Terminal() bool {
	switch p.Stage {
	case StageDischarged, StageAdmittedObservation, StageDiverted:
		return true
	}
	return false
}

// waitBetween returns entry(to) - entry(from), or 0 if either is missing.
func (p *Patient) waitBetween(from, to Stage) int64 {
	a, okA := p.stageEntered[from]
	b, okB := p.stageEntered[to]
	if !okA || !okB || b < a {
		return 0
	}
	return b - a
}

// RegistrationWait is time spent queued for a registration desk.
func (p *Patient) RegistrationWait() int64 {
	return p.waitBetween(StageQueuedRegistration, StageInRegistration)
}

// TriageWait is time spent queued for a triage station.
func (p *Patient) TriageWait() int64 {
	return p.waitBetween(StageQueuedTriage, StageInTriage)
}

// ConsultationWait is time spent queued for a consultation room.
func (p *Patient) ConsultationWait() int64 {
	return p.waitBetween(StageQueuedConsultation, StageInConsultation)
}

// ConsultationWaitSoFar returns the time queued for a room up to now.
func (p *Patient) ConsultationWaitSoFar(now int64) int64 {
	if t, ok := p.stageEntered[StageQueuedConsultation]; ok && now > t {
		return now - t
	}
	return 0
}

// TotalWait is the cumulative queued time across all stages.
func (p *Patient) TotalWait() int64 {
	return p.RegistrationWait() + p.TriageWait() + p.ConsultationWait()
}

func (p *Patient) String() string {
	return fmt.Sprintf("patient(%s seq=%d stage=%s level=%d)", p.ID[:8], p.Seq, p.Stage, p.TriageLevel)
}
