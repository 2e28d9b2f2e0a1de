package sim

import "github.com/sirupsen/logrus"

// EventKind tags a published event variant. The set is closed: every kind
// carries the fixed payload fields below, so the publication contract is
// checkable at compile time.
type EventKind string

const (
	EventArrival           EventKind = "arrival"
	EventTriageComplete    EventKind = "triage_complete"
	EventConsultationStart EventKind = "consultation_start"
	EventDischarge         EventKind = "discharge"
	EventAdmission         EventKind = "admission"
	EventDiversion         EventKind = "diversion"
	EventEmergency         EventKind = "emergency"
)

// PublishedEvent is one externally-observable occurrence.
type PublishedEvent struct {
	Kind     EventKind  `json:"kind"`
	Hospital HospitalID `json:"hospital"`
	Patient  string     `json:"patient,omitempty"`
	Time     int64      `json:"time"`

	TriageLevel TriageLevel `json:"triage_level,omitempty"`

	// diversion fields
	Destination HospitalID `json:"destination,omitempty"`
	Reason      string     `json:"reason,omitempty"`

	// emergency fields
	EmergencyActive bool `json:"emergency_active,omitempty"`
}

// Snapshot is the per-hospital state sample published at every metrics tick.
type Snapshot struct {
	Hospital HospitalID `json:"hospital"`
	Time     int64      `json:"time"`

	RegistrationOccupied int     `json:"registration_occupied"`
	TriageOccupied       int     `json:"triage_occupied"`
	ConsultationOccupied int     `json:"consultation_occupied"`
	ObservationOccupied  int     `json:"observation_occupied"`
	RegistrationRatio    float64 `json:"registration_ratio"`
	TriageRatio          float64 `json:"triage_ratio"`
	ConsultationRatio    float64 `json:"consultation_ratio"`
	ObservationRatio     float64 `json:"observation_ratio"`

	RegistrationQueue int `json:"registration_queue"`
	TriageQueue       int `json:"triage_queue"`
	ConsultationQueue int `json:"consultation_queue"`

	MeanWait    float64 `json:"mean_wait"`    // trailing window, seconds
	MeanService float64 `json:"mean_service"` // trailing window, seconds

	ArrivedLastHour int `json:"arrived_last_hour"`
	TreatedLastHour int `json:"treated_last_hour"`

	Saturation      float64 `json:"saturation"`
	EmergencyActive bool    `json:"emergency_active"`
}

// Publisher receives events and snapshots for external consumption.
// Implementations must be fire-and-forget: a slow or failing sink must
// never stall the simulation clock.
type Publisher interface {
	PublishEvent(e PublishedEvent)
	PublishSnapshot(s Snapshot)
}

// NopPublisher drops everything.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(PublishedEvent) {}
func (NopPublisher) PublishSnapshot(Snapshot)    {}

// LogPublisher traces publications at debug level.
type LogPublisher struct{}

func (LogPublisher) PublishEvent(e PublishedEvent) {
	logrus.Debugf("event %s hospital=%s patient=%s t=%d level=%d dest=%s",
		e.Kind, e.Hospital, e.Patient, e.Time, e.TriageLevel, e.Destination)
}

func (LogPublisher) PublishSnapshot(s Snapshot) {
	logrus.Debugf("snapshot hospital=%s t=%d sat=%.2f queues=%d/%d/%d emergency=%v",
		s.Hospital, s.Time, s.Saturation, s.RegistrationQueue, s.TriageQueue, s.ConsultationQueue, s.EmergencyActive)
}

// MultiPublisher fans out to several sinks.
type MultiPublisher []Publisher

func (m MultiPublisher) PublishEvent(e PublishedEvent) {
	for _, p := range m {
		p.PublishEvent(e)
	}
}

func (m MultiPublisher) PublishSnapshot(s Snapshot) {
	for _, p := range m {
		p.PublishSnapshot(s)
	}
}
