package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimulator_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hospitals = nil
	_, err := NewSimulator(cfg, NopPublisher{})
	require.Error(t, err)
}

func TestNewSimulator_NilPublisherDefaultsToNop(t *testing.T) {
	cfg := singleHospitalConfig(1, 1, 2, 2, 5)
	cfg.Horizon = TicksPerHour
	cfg.MaxPatients = 5
	s, err := NewSimulator(cfg, nil)
	require.NoError(t, err)
	s.Run() // must not panic publishing into a nil sink
}

func TestSchedule_PanicsOnPastTimestamp(t *testing.T) {
	s, err := NewSimulator(singleHospitalConfig(1, 1, 2, 2, 5), NopPublisher{})
	require.NoError(t, err)
	s.Clock = 100
	require.Panics(t, func() {
		s.Schedule(NewDemandTickEvent(50))
	})
}

func TestRun_DeterministicReplay(t *testing.T) {
	run := func() (*capturePublisher, *Simulator) {
		cfg := DefaultConfig()
		cfg.Horizon = 6 * TicksPerHour
		pub := &capturePublisher{}
		s, err := NewSimulator(cfg, pub)
		require.NoError(t, err)
		s.Run()
		return pub, s
	}

	pub1, s1 := run()
	pub2, s2 := run()

	require.NotEmpty(t, pub1.events, "a six-hour run must produce events")
	require.Equal(t, pub1.events, pub2.events, "identical seeds must replay the identical event stream")
	require.Equal(t, pub1.snaps, pub2.snaps, "identical seeds must replay identical snapshots")

	for _, id := range s1.hospitalOrder {
		h1, h2 := s1.Hospitals[id], s2.Hospitals[id]
		assert.Equal(t, h1.TotalArrivals, h2.TotalArrivals)
		assert.Equal(t, h1.TotalTreated, h2.TotalTreated)
		assert.Equal(t, h1.TotalDivertedOut, h2.TotalDivertedOut)
	}
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	run := func(seed int64) *capturePublisher {
		cfg := DefaultConfig()
		cfg.Seed = seed
		cfg.Horizon = 3 * TicksPerHour
		pub := &capturePublisher{}
		s, err := NewSimulator(cfg, pub)
		require.NoError(t, err)
		s.Run()
		return pub
	}
	assert.NotEqual(t, run(1).events, run(2).events)
}

func TestRun_PatientReachesConsultation(t *testing.T) {
	cfg := singleHospitalConfig(1, 1, 2, 4, 30)
	cfg.Horizon = TicksPerHour
	pub := &capturePublisher{}
	s, err := NewSimulator(cfg, pub)
	require.NoError(t, err)

	// A hand-placed arrival at t=0 holds the only desk first, so its path
	// through empty pools is bounded by the jittered service times alone:
	// registration <= 144s, triage <= 360s, then a free room.
	p := s.Generator.Spawn("h_er", 0)
	s.Schedule(NewPatientArrivalEvent(0, "h_er", p))
	s.Run()

	starts := pub.eventsOfKind(EventConsultationStart)
	require.NotEmpty(t, starts)
	assert.LessOrEqual(t, starts[0].Time, int64(504), "first consultation must start within the worst-case upstream service path")

	occupiedSeen := false
	for _, snap := range pub.snaps {
		assert.LessOrEqual(t, snap.ConsultationOccupied, 2, "occupancy above capacity")
		assert.LessOrEqual(t, snap.ConsultationRatio, 1.0)
		assert.Less(t, snap.ConsultationQueue, 60, "queue ran away beyond total hourly arrivals")
		if snap.ConsultationOccupied > 0 {
			occupiedSeen = true
		}
	}
	assert.True(t, occupiedSeen, "some snapshot must observe a busy consultation room")
}

func TestRun_DrainsWithoutLeakingSlots(t *testing.T) {
	cfg := singleHospitalConfig(2, 2, 3, 4, 30)
	cfg.Horizon = 4 * TicksPerDay
	cfg.MaxPatients = 40
	s, err := NewSimulator(cfg, NopPublisher{})
	require.NoError(t, err)
	s.Run()

	require.Len(t, s.Patients, 40)
	for _, p := range s.Patients {
		assert.Truef(t, p.Terminal(), "patient %s stuck in stage %s", p.ID, p.Stage)
		assert.NotEqual(t, OutcomeInSystem, p.Outcome)
	}

	h := s.Hospitals["h_er"]
	for _, pool := range []*ResourcePool{h.Registration, h.Triage, h.Consultation, h.Observation} {
		assert.Equal(t, pool.Acquires(), pool.Releases(), "acquire/release pairing broken")
		assert.Equal(t, 0, pool.Occupied(), "slots still held after drain")
		assert.Equal(t, 0, pool.QueueLen(), "patients still queued after drain")
	}
	assert.Equal(t, int64(40), h.TotalArrivals)
	assert.Equal(t, int64(40), h.TotalTreated)
}

func TestRun_SevereCasesDivertToReference(t *testing.T) {
	cfg := twoHospitalConfig()
	cfg.Horizon = TicksPerDay
	cfg.MaxPatients = 60
	// Flat acuity mix so every level appears often.
	cfg.TriageWeights = []float64{0.2, 0.2, 0.2, 0.2, 0.2}
	pub := &capturePublisher{}
	s, err := NewSimulator(cfg, pub)
	require.NoError(t, err)
	s.Run()

	diverted := 0
	for _, p := range s.Patients {
		if p.Origin != "h_peripheral" {
			assert.Zero(t, p.Destination, "reference patients never divert")
			continue
		}
		if _, triaged := p.StageEntered(StageInTriage); !triaged {
			continue
		}
		if p.TriageLevel <= TriageEmergency {
			diverted++
			assert.Equalf(t, HospitalID("h_ref"), p.Destination, "severe patient %s kept at peripheral site", p.ID)
			_, ok := p.StageEntered(StageDiverted)
			assert.True(t, ok)
		} else {
			assert.Zero(t, p.Destination, "patient %s diverted below the acuity cutoff", p.ID)
		}
	}
	require.Greater(t, diverted, 0, "flat acuity mix over 60 patients must produce diversions")

	recs := s.Coordinator.Diversions()
	assert.Len(t, recs, diverted)
	for _, r := range recs {
		assert.Equal(t, HospitalID("h_peripheral"), r.From)
		assert.Equal(t, HospitalID("h_ref"), r.To)
		assert.LessOrEqual(t, r.TriageLevel, TriageEmergency)
		assert.Equal(t, ReasonAcuityPolicy, r.Reason)
	}
	assert.Len(t, pub.eventsOfKind(EventDiversion), diverted)
	assert.Equal(t, int64(diverted), s.Hospitals["h_peripheral"].TotalDivertedOut)
	assert.Equal(t, int64(diverted), s.Hospitals["h_ref"].TotalDivertedIn)
}

func TestRun_IncidentCasualtiesSplitAcrossFleet(t *testing.T) {
	cfg := twoHospitalConfig()
	cfg.Horizon = 6 * TicksPerHour
	// Near-zero walk-in pressure isolates the incident surge.
	cfg.Hospitals[0].BaseArrivalRate = 0.01
	cfg.Hospitals[1].BaseArrivalRate = 0.01
	s, err := NewSimulator(cfg, NopPublisher{})
	require.NoError(t, err)

	// Equidistant from two idle hospitals: the casualties split evenly.
	s.InjectIncident(&Incident{Type: IncidentMassCasualty, Patients: 20}, 60)
	s.Run()

	byOrigin := make(map[HospitalID]int)
	for _, p := range s.Patients {
		if p.Incident == "" {
			continue
		}
		byOrigin[p.Origin]++
		assert.NotEqual(t, OutcomeInSystem, p.Outcome, "casualty %s never finished treatment", p.ID)
	}
	assert.Equal(t, 10, byOrigin["h_ref"])
	assert.Equal(t, 10, byOrigin["h_peripheral"])

	assert.Empty(t, s.Coordinator.ActiveIncidents(), "incident must auto-resolve after its duration")
}

func TestRun_ElasticStaffingHalvesRoomService(t *testing.T) {
	cfg := singleHospitalConfig(2, 2, 2, 4, 30)
	cfg.Horizon = 2 * TicksPerDay
	cfg.MaxPatients = 200
	cfg.TriageWeights = []float64{0, 0, 0, 1, 0} // uniform level-4 case load
	cfg.AdmissionProbability = 0
	s, err := NewSimulator(cfg, NopPublisher{})
	require.NoError(t, err)

	// One extra staff member lands on room 0, doubling its speed.
	s.UpdateStaffing("h_er", 1, 0)
	s.Run()

	h := s.Hospitals["h_er"]
	require.Equal(t, 2.0, h.Consultation.Slots()[0].Speed)
	require.Equal(t, 1.0, h.Consultation.Slots()[1].Speed)

	samples := s.Metrics.win("h_er").roomService
	require.Greater(t, len(samples[0]), 20, "boosted room sample count")
	require.Greater(t, len(samples[1]), 20, "nominal room sample count")

	ratio := s.Metrics.RoomMeanService("h_er", 0) / s.Metrics.RoomMeanService("h_er", 1)
	assert.InDelta(t, 0.5, ratio, 0.1, "doubled speed must halve the mean service duration")
}

func TestRun_StaffingIgnoredForInelasticSite(t *testing.T) {
	cfg := twoHospitalConfig() // h_peripheral is not elastic
	cfg.Horizon = TicksPerHour
	cfg.MaxPatients = 1
	s, err := NewSimulator(cfg, NopPublisher{})
	require.NoError(t, err)

	s.UpdateStaffing("h_peripheral", 2, 0)
	s.Run()

	for _, slot := range s.Hospitals["h_peripheral"].Consultation.Slots() {
		assert.Equal(t, 1.0, slot.Speed)
	}
}

func TestRun_ScriptedIncidentFromConfig(t *testing.T) {
	cfg := twoHospitalConfig()
	cfg.Horizon = 4 * TicksPerHour
	cfg.Hospitals[0].BaseArrivalRate = 0.01
	cfg.Hospitals[1].BaseArrivalRate = 0.01
	cfg.Incidents = []IncidentConfig{
		{At: 600, Type: IncidentEpidemic, Patients: 8, LocationX: 1, LocationY: 0},
	}
	s, err := NewSimulator(cfg, NopPublisher{})
	require.NoError(t, err)
	s.Run()

	tagged := 0
	for _, p := range s.Patients {
		if p.Incident != "" {
			tagged++
		}
	}
	assert.Equal(t, 8, tagged, "every scripted casualty must be spawned")
}
