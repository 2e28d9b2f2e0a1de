package sim

// Shared helpers for simulator-level tests.

// capturePublisher records everything published, in order.
type capturePublisher struct {
	events []PublishedEvent
	snaps  []Snapshot
}

func (c *capturePublisher) PublishEvent(e PublishedEvent) { c.events = append(c.events, e) }
func (c *capturePublisher) PublishSnapshot(s Snapshot)    { c.snaps = append(c.snaps, s) }

func (c *capturePublisher) eventsOfKind(kind EventKind) []PublishedEvent {
	var out []PublishedEvent
	for _, e := range c.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// singleHospitalConfig is a minimal one-site fleet (the site is its own
// reference, so nothing diverts).
func singleHospitalConfig(desks, triage, rooms, beds int, rate float64) *Config {
	cfg := DefaultConfig()
	cfg.Hospitals = []HospitalConfig{{
		ID: "h_er", Name: "Hospital de Prueba",
		RegistrationDesks: desks, TriageStations: triage,
		ConsultationRooms: rooms, ObservationBeds: beds,
		ElasticConsultation: true, BaseArrivalRate: rate,
	}}
	cfg.ReferenceHospital = "h_er"
	cfg.FixedDemandFactor = 1.0
	return cfg
}

// twoHospitalConfig is a reference site plus a peripheral site placed
// symmetrically around the origin.
func twoHospitalConfig() *Config {
	cfg := DefaultConfig()
	cfg.Hospitals = []HospitalConfig{
		{
			ID: "h_ref", Name: "Hospital de Referencia",
			RegistrationDesks: 2, TriageStations: 2, ConsultationRooms: 6, ObservationBeds: 8,
			ElasticConsultation: true, BaseArrivalRate: 10,
			LocationX: -1, LocationY: 0,
		},
		{
			ID: "h_peripheral", Name: "Hospital Periférico",
			RegistrationDesks: 2, TriageStations: 2, ConsultationRooms: 4, ObservationBeds: 4,
			ElasticConsultation: false, BaseArrivalRate: 10,
			LocationX: 1, LocationY: 0,
		},
	}
	cfg.ReferenceHospital = "h_ref"
	cfg.FixedDemandFactor = 1.0
	return cfg
}
