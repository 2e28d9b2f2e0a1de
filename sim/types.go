package sim

// Identity types
type HospitalID string

// TriageLevel is one of five ordered acuity classes.
// Level 1 is the most urgent, level 5 the least.
type TriageLevel int

const (
	TriageResuscitation TriageLevel = 1
	TriageEmergency     TriageLevel = 2
	TriageUrgent        TriageLevel = 3
	TriageStandard      TriageLevel = 4
	TriageNonUrgent     TriageLevel = 5
)

// diversionCutoff marks the acuity boundary: patients at or above this
// urgency are only treated at the reference hospital.
const diversionCutoff = TriageEmergency

// Stage is the position of a patient inside the flow state machine.
type Stage string

const (
	StageArrived             Stage = "ARRIVED"
	StageQueuedRegistration  Stage = "QUEUED_REGISTRATION"
	StageInRegistration      Stage = "IN_REGISTRATION"
	StageQueuedTriage        Stage = "QUEUED_TRIAGE"
	StageInTriage            Stage = "IN_TRIAGE"
	StageQueuedConsultation  Stage = "QUEUED_CONSULTATION"
	StageInConsultation      Stage = "IN_CONSULTATION"
	StageDiverted            Stage = "DIVERTED"
	StageDischarged          Stage = "DISCHARGED"
	StageAdmittedObservation Stage = "ADMITTED_OBSERVATION"
)

// Outcome is the final disposition of a patient.
type Outcome string

const (
	OutcomeInSystem   Outcome = "in_system"
	OutcomeDischarged Outcome = "discharged"
	OutcomeAdmitted   Outcome = "admitted_observation"
)

// Sex of a synthetic patient.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Simulation time is counted in int64 ticks of one simulated second.
const (
	TicksPerMinute int64 = 60
	TicksPerHour   int64 = 3600
	TicksPerDay    int64 = 86400
)

// Event types with priority ordering
type EventType string

const (
	EventTypeStaffingUpdate  EventType = "StaffingUpdate"
	EventTypeIncidentStart   EventType = "IncidentStart"
	EventTypeIncidentEnd     EventType = "IncidentEnd"
	EventTypeServiceComplete EventType = "ServiceComplete"
	EventTypeObservationEnd  EventType = "ObservationEnd"
	EventTypeDivertedArrival EventType = "DivertedArrival"
	EventTypePatientArrival  EventType = "PatientArrival"
	EventTypeGeneratorNext   EventType = "GeneratorNext"
	EventTypeDemandTick      EventType = "DemandTick"
	EventTypeCoordinatorTick EventType = "CoordinatorTick"
	EventTypeMetricsTick     EventType = "MetricsTick"
)

// EventTypePriority defines ordering for simultaneous events.
// Lower values are processed first. Capacity changes and releases land
// before arrivals at the same tick so freed slots are visible to them;
// observer ticks run last so they see the settled state.
var EventTypePriority = map[EventType]int{
	EventTypeStaffingUpdate:  1,
	EventTypeIncidentStart:   2,
	EventTypeIncidentEnd:     3,
	EventTypeServiceComplete: 4,
	EventTypeObservationEnd:  5,
	EventTypeDivertedArrival: 6,
	EventTypePatientArrival:  7,
	EventTypeGeneratorNext:   8,
	EventTypeDemandTick:      9,
	EventTypeCoordinatorTick: 10,
	EventTypeMetricsTick:     11,
}
