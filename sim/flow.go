package sim

import (
	"github.com/sirupsen/logrus"
)

// Patient flow state machine. Each handler advances one patient through
// ARRIVED → registration → triage → {diversion | consultation} →
// {discharge | observation}. Every slot acquisition is matched by exactly
// one release on every exit path.

func (s *Simulator) handlePatientArrival(e *PatientArrivalEvent) {
	h := s.Hospitals[e.Hospital]
	p := e.Patient
	now := e.Timestamp()

	s.Patients[p.ID] = p
	h.TotalArrivals++
	s.Metrics.RecordArrival(h.ID, now)
	s.publish(PublishedEvent{Kind: EventArrival, Hospital: h.ID, Patient: p.ID, Time: now})

	p.EnterStage(StageQueuedRegistration, now)
	if slot, ok := h.Registration.Acquire(p, now); ok {
		s.startRegistration(h, p, slot, now)
	}
}

func (s *Simulator) startRegistration(h *Hospital, p *Patient, slot *Slot, now int64) {
	p.EnterStage(StageInRegistration, now)
	dur := RegistrationTime(s.RNG.ForHospital(SubsystemService, h.ID))
	s.Schedule(NewRegistrationDoneEvent(now+dur, h.ID, p, slot))
}

func (s *Simulator) handleRegistrationDone(e *RegistrationDoneEvent) {
	h := s.Hospitals[e.Hospital]
	p := e.Patient
	now := e.Timestamp()

	// Release the desk; the freed slot seats the next queued patient.
	if next, nslot := h.Registration.Release(e.Slot); next != nil {
		s.startRegistration(h, next, nslot, now)
	}

	p.EnterStage(StageQueuedTriage, now)
	if slot, ok := h.Triage.Acquire(p, now); ok {
		s.startTriage(h, p, slot, now)
	}
}

func (s *Simulator) startTriage(h *Hospital, p *Patient, slot *Slot, now int64) {
	p.EnterStage(StageInTriage, now)
	dur := TriageTime(s.RNG.ForHospital(SubsystemService, h.ID))
	s.Schedule(NewTriageDoneEvent(now+dur, h.ID, p, slot))
}

func (s *Simulator) handleTriageDone(e *TriageDoneEvent) {
	h := s.Hospitals[e.Hospital]
	p := e.Patient
	now := e.Timestamp()

	p.TriageLevel = s.Classifier.Classify(s.RNG.ForHospital(SubsystemTriage, h.ID), p.Condition)

	if next, nslot := h.Triage.Release(e.Slot); next != nil {
		s.startTriage(h, next, nslot, now)
	}

	s.publish(PublishedEvent{
		Kind: EventTriageComplete, Hospital: h.ID, Patient: p.ID, Time: now,
		TriageLevel: p.TriageLevel,
	})

	// The two most severe tiers are only treated at the reference hospital,
	// regardless of saturation. All slots are already released here, so the
	// origin flow can terminate without leaking.
	if p.TriageLevel <= diversionCutoff && h.ID != s.refID {
		s.Coordinator.Divert(p, h, ReasonAcuityPolicy, now)
		return
	}

	p.EnterStage(StageQueuedConsultation, now)
	if slot, ok := h.Consultation.Acquire(p, now); ok {
		s.startConsultation(h, p, slot, now)
	}
}

// handleDivertedArrival starts a diverted patient at the reference
// hospital's consultation queue, skipping re-registration and re-triage.
func (s *Simulator) handleDivertedArrival(e *DivertedArrivalEvent) {
	h := s.Hospitals[e.Hospital]
	p := e.Patient
	now := e.Timestamp()

	h.TotalDivertedIn++
	p.EnterStage(StageQueuedConsultation, now)
	if slot, ok := h.Consultation.Acquire(p, now); ok {
		s.startConsultation(h, p, slot, now)
	}
}

func (s *Simulator) startConsultation(h *Hospital, p *Patient, slot *Slot, now int64) {
	if wait := p.ConsultationWaitSoFar(now); wait > MaxTolerableWait(p.TriageLevel) {
		h.TotalSLABreaches++
		logrus.Debugf("SLA breach at %s: %s level %d waited %ds (target %ds)",
			h.ID, p.ID, p.TriageLevel, wait, MaxTolerableWait(p.TriageLevel))
	}

	p.EnterStage(StageInConsultation, now)
	s.publish(PublishedEvent{
		Kind: EventConsultationStart, Hospital: h.ID, Patient: p.ID, Time: now,
		TriageLevel: p.TriageLevel,
	})

	dur := s.Classifier.ConsultationTime(s.RNG.ForHospital(SubsystemService, h.ID), p.TriageLevel, slot.Speed)
	s.Schedule(NewConsultationDoneEvent(now+dur, h.ID, p, slot))
}

func (s *Simulator) handleConsultationDone(e *ConsultationDoneEvent) {
	h := s.Hospitals[e.Hospital]
	p := e.Patient
	now := e.Timestamp()

	if started, ok := p.StageEntered(StageInConsultation); ok {
		s.Metrics.RecordConsultation(h.ID, e.Slot.Index, now-started, now)
	}

	if next, nslot := h.Consultation.Release(e.Slot); next != nil {
		s.startConsultation(h, next, nslot, now)
	}

	outRNG := s.RNG.ForHospital(SubsystemOutcome, h.ID)
	if outRNG.Float64() < s.Config.AdmissionProbability {
		if bed, ok := h.Observation.TryAcquire(p); ok {
			p.EnterStage(StageAdmittedObservation, now)
			p.Outcome = OutcomeAdmitted
			h.TotalAdmitted++
			s.publish(PublishedEvent{
				Kind: EventAdmission, Hospital: h.ID, Patient: p.ID, Time: now,
				TriageLevel: p.TriageLevel,
			})
			stay := ObservationStay(s.RNG.ForHospital(SubsystemService, h.ID), s.Config.ObservationStayMean)
			s.Schedule(NewObservationEndEvent(now+stay, h.ID, bed))
		} else {
			logrus.Warnf("hospital %s: no free observation bed for %s, discharging", h.ID, p.ID)
			s.discharge(h, p, now)
			s.finishTreatment(h, p, now)
			return
		}
	} else {
		s.discharge(h, p, now)
	}
	s.finishTreatment(h, p, now)
}

func (s *Simulator) discharge(h *Hospital, p *Patient, now int64) {
	p.EnterStage(StageDischarged, now)
	p.Outcome = OutcomeDischarged
	s.publish(PublishedEvent{
		Kind: EventDischarge, Hospital: h.ID, Patient: p.ID, Time: now,
		TriageLevel: p.TriageLevel,
	})
}

func (s *Simulator) finishTreatment(h *Hospital, p *Patient, now int64) {
	h.TotalTreated++
	s.Metrics.RecordCompletion(h.ID, p, now)
}

// handleObservationEnd frees an observation bed at the end of a stay.
// Observation never queues (admission is terminal), so the release hands
// the slot back to the free list.
func (s *Simulator) handleObservationEnd(e *ObservationEndEvent) {
	h := s.Hospitals[e.Hospital]
	h.Observation.Release(e.Slot)
}
