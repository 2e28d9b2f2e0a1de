package sim

// Event represents a simulation event
type Event interface {
	Timestamp() int64
	EventID() uint64
	Type() EventType
	Execute(s *Simulator)
}

// BaseEvent provides common event fields. The event ID is assigned by the
// simulator at schedule time so that insertion order is the deterministic
// tie-break for equal timestamps.
type BaseEvent struct {
	timestamp int64
	eventID   uint64
	eventType EventType
}

func newBaseEvent(timestamp int64, eventType EventType) BaseEvent {
	return BaseEvent{timestamp: timestamp, eventType: eventType}
}

func (e *BaseEvent) Timestamp() int64 { return e.timestamp }
func (e *BaseEvent) EventID() uint64  { return e.eventID }
func (e *BaseEvent) Type() EventType  { return e.eventType }

func (e *BaseEvent) setEventID(id uint64) { e.eventID = id }

// PatientArrivalEvent is a fresh patient walking into a hospital.
type PatientArrivalEvent struct {
	BaseEvent
	Hospital HospitalID
	Patient  *Patient
}

func NewPatientArrivalEvent(timestamp int64, hospital HospitalID, p *Patient) *PatientArrivalEvent {
	return &PatientArrivalEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypePatientArrival),
		Hospital:  hospital,
		Patient:   p,
	}
}

func (e *PatientArrivalEvent) Execute(s *Simulator) {
	s.handlePatientArrival(e)
}

// DivertedArrivalEvent is a diverted patient reaching the reference
// hospital. Diverted patients skip registration and triage at the
// destination and enter the consultation queue directly.
type DivertedArrivalEvent struct {
	BaseEvent
	Hospital HospitalID
	Patient  *Patient
}

func NewDivertedArrivalEvent(timestamp int64, hospital HospitalID, p *Patient) *DivertedArrivalEvent {
	return &DivertedArrivalEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeDivertedArrival),
		Hospital:  hospital,
		Patient:   p,
	}
}

func (e *DivertedArrivalEvent) Execute(s *Simulator) {
	s.handleDivertedArrival(e)
}

// RegistrationDoneEvent ends a patient's registration service.
type RegistrationDoneEvent struct {
	BaseEvent
	Hospital HospitalID
	Patient  *Patient
	Slot     *Slot
}

func NewRegistrationDoneEvent(timestamp int64, hospital HospitalID, p *Patient, slot *Slot) *RegistrationDoneEvent {
	return &RegistrationDoneEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeServiceComplete),
		Hospital:  hospital,
		Patient:   p,
		Slot:      slot,
	}
}

func (e *RegistrationDoneEvent) Execute(s *Simulator) {
	s.handleRegistrationDone(e)
}

// TriageDoneEvent ends a patient's triage assessment.
type TriageDoneEvent struct {
	BaseEvent
	Hospital HospitalID
	Patient  *Patient
	Slot     *Slot
}

func NewTriageDoneEvent(timestamp int64, hospital HospitalID, p *Patient, slot *Slot) *TriageDoneEvent {
	return &TriageDoneEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeServiceComplete),
		Hospital:  hospital,
		Patient:   p,
		Slot:      slot,
	}
}

func (e *TriageDoneEvent) Execute(s *Simulator) {
	s.handleTriageDone(e)
}

// ConsultationDoneEvent ends a patient's consultation.
type ConsultationDoneEvent struct {
	BaseEvent
	Hospital HospitalID
	Patient  *Patient
	Slot     *Slot
}

func NewConsultationDoneEvent(timestamp int64, hospital HospitalID, p *Patient, slot *Slot) *ConsultationDoneEvent {
	return &ConsultationDoneEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeServiceComplete),
		Hospital:  hospital,
		Patient:   p,
		Slot:      slot,
	}
}

func (e *ConsultationDoneEvent) Execute(s *Simulator) {
	s.handleConsultationDone(e)
}

// ObservationEndEvent frees an observation bed at the end of a stay.
type ObservationEndEvent struct {
	BaseEvent
	Hospital HospitalID
	Slot     *Slot
}

func NewObservationEndEvent(timestamp int64, hospital HospitalID, slot *Slot) *ObservationEndEvent {
	return &ObservationEndEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeObservationEnd),
		Hospital:  hospital,
		Slot:      slot,
	}
}

func (e *ObservationEndEvent) Execute(s *Simulator) {
	s.handleObservationEnd(e)
}

// GeneratorNextEvent drives the arrival process of one hospital.
// Emit=false marks an hour-boundary resample point: no patient is
// produced, the inter-arrival gap is redrawn at the new rate.
type GeneratorNextEvent struct {
	BaseEvent
	Hospital HospitalID
	Emit     bool
}

func NewGeneratorNextEvent(timestamp int64, hospital HospitalID, emit bool) *GeneratorNextEvent {
	return &GeneratorNextEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeGeneratorNext),
		Hospital:  hospital,
		Emit:      emit,
	}
}

func (e *GeneratorNextEvent) Execute(s *Simulator) {
	s.handleGeneratorNext(e)
}

// DemandTickEvent refreshes every hospital's demand context.
type DemandTickEvent struct {
	BaseEvent
}

func NewDemandTickEvent(timestamp int64) *DemandTickEvent {
	return &DemandTickEvent{BaseEvent: newBaseEvent(timestamp, EventTypeDemandTick)}
}

func (e *DemandTickEvent) Execute(s *Simulator) {
	s.handleDemandTick(e)
}

// CoordinatorTickEvent runs the cross-hospital saturation check.
type CoordinatorTickEvent struct {
	BaseEvent
}

func NewCoordinatorTickEvent(timestamp int64) *CoordinatorTickEvent {
	return &CoordinatorTickEvent{BaseEvent: newBaseEvent(timestamp, EventTypeCoordinatorTick)}
}

func (e *CoordinatorTickEvent) Execute(s *Simulator) {
	s.handleCoordinatorTick(e)
}

// MetricsTickEvent samples live state into a published snapshot.
type MetricsTickEvent struct {
	BaseEvent
}

func NewMetricsTickEvent(timestamp int64) *MetricsTickEvent {
	return &MetricsTickEvent{BaseEvent: newBaseEvent(timestamp, EventTypeMetricsTick)}
}

func (e *MetricsTickEvent) Execute(s *Simulator) {
	s.handleMetricsTick(e)
}

// IncidentStartEvent injects a mass-casualty or epidemic incident.
type IncidentStartEvent struct {
	BaseEvent
	Incident *Incident
}

func NewIncidentStartEvent(timestamp int64, inc *Incident) *IncidentStartEvent {
	return &IncidentStartEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeIncidentStart),
		Incident:  inc,
	}
}

func (e *IncidentStartEvent) Execute(s *Simulator) {
	s.handleIncidentStart(e)
}

// IncidentEndEvent resolves an active incident.
type IncidentEndEvent struct {
	BaseEvent
	IncidentID string
}

func NewIncidentEndEvent(timestamp int64, id string) *IncidentEndEvent {
	return &IncidentEndEvent{
		BaseEvent:  newBaseEvent(timestamp, EventTypeIncidentEnd),
		IncidentID: id,
	}
}

func (e *IncidentEndEvent) Execute(s *Simulator) {
	s.handleIncidentEnd(e)
}

// StaffingUpdateEvent applies an elastic-capacity change to a hospital's
// consultation rooms mid-run.
type StaffingUpdateEvent struct {
	BaseEvent
	Hospital   HospitalID
	ExtraStaff int
}

func NewStaffingUpdateEvent(timestamp int64, hospital HospitalID, extraStaff int) *StaffingUpdateEvent {
	return &StaffingUpdateEvent{
		BaseEvent:  newBaseEvent(timestamp, EventTypeStaffingUpdate),
		Hospital:   hospital,
		ExtraStaff: extraStaff,
	}
}

func (e *StaffingUpdateEvent) Execute(s *Simulator) {
	s.handleStaffingUpdate(e)
}
