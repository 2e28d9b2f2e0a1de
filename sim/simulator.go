package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Simulator owns the full simulation context: clock, event queue, RNG,
// hospital fleet and collaborators. Nothing lives in package-level state, so
// multiple simulations can run side by side in one process.
type Simulator struct {
	Config  *Config
	Clock   int64
	Horizon int64

	events      *EventHeap
	nextEventID uint64

	RNG         *PartitionedRNG
	Hospitals   map[HospitalID]*Hospital
	Classifier  *Classifier
	Demand      *DemandAggregator
	Generator   *Generator
	Coordinator *Coordinator
	Metrics     *Aggregator

	// Patients holds every patient ever spawned, for post-run analysis.
	Patients map[string]*Patient

	publisher Publisher
	refID     HospitalID

	// hospitalOrder fixes iteration order (maps would randomize it and
	// break deterministic replay).
	hospitalOrder []HospitalID
}

// NewSimulator validates the configuration and assembles a simulation.
// Any configuration error is fatal here: the run must not begin.
func NewSimulator(cfg *Config, pub Publisher) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if pub == nil {
		pub = NopPublisher{}
	}

	s := &Simulator{
		Config:    cfg,
		Horizon:   cfg.Horizon,
		events:    NewEventHeap(),
		RNG:       NewPartitionedRNG(cfg.Seed),
		Hospitals: make(map[HospitalID]*Hospital, len(cfg.Hospitals)),
		Patients:  make(map[string]*Patient),
		publisher: pub,
		refID:     HospitalID(cfg.ReferenceHospital),
	}
	for _, hc := range cfg.Hospitals {
		h := NewHospital(hc)
		s.Hospitals[h.ID] = h
		s.hospitalOrder = append(s.hospitalOrder, h.ID)
	}
	s.Classifier = NewClassifier(cfg.TriageWeights)
	s.Demand = NewDemandAggregator(cfg.Seed, cfg.HolidayDays, cfg.FixedDemandFactor)
	s.Generator = NewGenerator(cfg, s.RNG, s.Demand)
	s.Coordinator = NewCoordinator(s)
	s.Metrics = NewAggregator(cfg.MetricsWindow, cfg.SaturationWeights)
	return s, nil
}

// ReferenceHospital returns the designated reference site.
func (s *Simulator) ReferenceHospital() HospitalID { return s.refID }

// Schedule adds an event to the queue, stamping it with the next sequence
// id so insertion order breaks timestamp ties deterministically.
func (s *Simulator) Schedule(e Event) {
	if e.Timestamp() < s.Clock {
		panic(fmt.Sprintf("scheduling event %T at t=%d before clock t=%d", e, e.Timestamp(), s.Clock))
	}
	s.nextEventID++
	if ev, ok := e.(interface{ setEventID(uint64) }); ok {
		ev.setEventID(s.nextEventID)
	}
	s.events.Schedule(e)
}

func (s *Simulator) publish(e PublishedEvent) {
	s.publisher.PublishEvent(e)
}

// InjectIncident schedules an incident for ingestion at the given time.
// Safe to call before Run; mid-run injections arrive as control events.
func (s *Simulator) InjectIncident(inc *Incident, at int64) {
	s.Schedule(NewIncidentStartEvent(at, inc))
}

// UpdateStaffing schedules an elastic-capacity change for a hospital.
func (s *Simulator) UpdateStaffing(h HospitalID, extraStaff int, at int64) {
	s.Schedule(NewStaffingUpdateEvent(at, h, extraStaff))
}

// UpdateEventLoad ingests the external event-load signal for a hospital.
// Takes effect at the next hourly demand refresh.
func (s *Simulator) UpdateEventLoad(h HospitalID, load float64) {
	s.Demand.SetEventLoad(h, load)
}

// prime seeds the initial event set: one arrival process per hospital, the
// periodic ticks, and any scenario-scripted incidents.
func (s *Simulator) prime() {
	for _, id := range s.hospitalOrder {
		h := s.Hospitals[id]
		s.Demand.Refresh(id, 0)
		at, emit := s.Generator.NextArrival(&h.Config, 0)
		if at <= s.Horizon {
			s.Schedule(NewGeneratorNextEvent(at, id, emit))
		}
	}
	s.Schedule(NewDemandTickEvent(TicksPerHour))
	s.Schedule(NewCoordinatorTickEvent(s.Config.CoordinatorInterval))
	s.Schedule(NewMetricsTickEvent(s.Config.MetricsInterval))
	for _, ic := range s.Config.Incidents {
		s.InjectIncident(&Incident{
			Type:      ic.Type,
			LocationX: ic.LocationX,
			LocationY: ic.LocationY,
			Patients:  ic.Patients,
			Duration:  ic.Duration,
		}, ic.At)
	}
}

// Run executes the simulation until the horizon. Events at the same
// timestamp are processed in type-priority then insertion order; the clock
// never moves backwards.
func (s *Simulator) Run() {
	s.prime()
	logrus.Infof("starting simulation: %d hospitals, horizon=%s, seed=%d",
		len(s.Hospitals), formatSimDuration(s.Horizon), s.Config.Seed)

	for s.events.Len() > 0 {
		event := s.events.PopNext()
		if event.Timestamp() > s.Horizon {
			break
		}
		if event.Timestamp() < s.Clock {
			panic(fmt.Sprintf("clock went backwards: %d < %d", event.Timestamp(), s.Clock))
		}
		s.pace(event.Timestamp())
		s.Clock = event.Timestamp()
		event.Execute(s)
	}

	logrus.Infof("simulation complete at t=%s", formatSimDuration(s.Clock))
}

// pace maps simulated to wall-clock time for live demos. Presentation only:
// it sleeps between events and never changes their order.
func (s *Simulator) pace(next int64) {
	f := s.Config.RealtimeFactor
	if f <= 0 || next <= s.Clock {
		return
	}
	time.Sleep(time.Duration(float64(next-s.Clock)/f*1e9) * time.Nanosecond)
}

// handleGeneratorNext advances one hospital's arrival process.
func (s *Simulator) handleGeneratorNext(e *GeneratorNextEvent) {
	h := s.Hospitals[e.Hospital]
	now := e.Timestamp()

	if e.Emit && !s.Generator.Exhausted() {
		p := s.Generator.Spawn(e.Hospital, now)
		s.Schedule(NewPatientArrivalEvent(now, e.Hospital, p))
	}
	if s.Generator.Exhausted() {
		return
	}
	at, emit := s.Generator.NextArrival(&h.Config, now)
	if at <= s.Horizon {
		s.Schedule(NewGeneratorNextEvent(at, e.Hospital, emit))
	}
}

// handleDemandTick refreshes every hospital's demand context hourly.
func (s *Simulator) handleDemandTick(e *DemandTickEvent) {
	now := e.Timestamp()
	for _, id := range s.hospitalOrder {
		ctx := s.Demand.Refresh(id, now)
		logrus.Debugf("demand %s: factor=%.2f temp=%.1fC precip=%v events=%.2f",
			id, ctx.Factor, ctx.TemperatureC, ctx.Precipitation, ctx.EventLoad)
	}
	if next := now + TicksPerHour; next <= s.Horizon {
		s.Schedule(NewDemandTickEvent(next))
	}
}

func (s *Simulator) handleCoordinatorTick(e *CoordinatorTickEvent) {
	s.Coordinator.Tick(e.Timestamp())
	if next := e.Timestamp() + s.Config.CoordinatorInterval; next <= s.Horizon {
		s.Schedule(NewCoordinatorTickEvent(next))
	}
}

func (s *Simulator) handleMetricsTick(e *MetricsTickEvent) {
	s.Metrics.Tick(e.Timestamp(), s.Hospitals, s.hospitalOrder, s.publisher)
	if next := e.Timestamp() + s.Config.MetricsInterval; next <= s.Horizon {
		s.Schedule(NewMetricsTickEvent(next))
	}
}

func (s *Simulator) handleIncidentStart(e *IncidentStartEvent) {
	s.Coordinator.Ingest(e.Incident, e.Timestamp())
}

func (s *Simulator) handleIncidentEnd(e *IncidentEndEvent) {
	s.Coordinator.Resolve(e.IncidentID, e.Timestamp())
}

func (s *Simulator) handleStaffingUpdate(e *StaffingUpdateEvent) {
	h, ok := s.Hospitals[e.Hospital]
	if !ok {
		logrus.Warnf("staffing update for unknown hospital %q ignored", e.Hospital)
		return
	}
	h.ApplyStaffing(e.ExtraStaff)
}
