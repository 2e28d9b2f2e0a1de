package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HospitalConfig is the immutable per-site configuration.
type HospitalConfig struct {
	ID                  string  `yaml:"id"`
	Name                string  `yaml:"name"`
	RegistrationDesks   int     `yaml:"registration_desks"`
	TriageStations      int     `yaml:"triage_stations"`
	ConsultationRooms   int     `yaml:"consultation_rooms"`
	ObservationBeds     int     `yaml:"observation_beds"`
	ElasticConsultation bool    `yaml:"elastic_consultation"`
	BaseArrivalRate     float64 `yaml:"base_arrival_rate"` // patients per hour
	LocationX           float64 `yaml:"location_x"`        // km grid
	LocationY           float64 `yaml:"location_y"`
}

// SaturationWeights combine occupancy and queue pressure into the 0-1
// saturation score. The combination is monotone in every input.
type SaturationWeights struct {
	ConsultationOccupancy float64 `yaml:"consultation_occupancy"`
	ObservationOccupancy  float64 `yaml:"observation_occupancy"`
	QueueLength           float64 `yaml:"queue_length"`
}

// IncidentWeights score hospitals when distributing incident casualties.
type IncidentWeights struct {
	Distance   float64 `yaml:"distance"`
	Saturation float64 `yaml:"saturation"`
	WaitTime   float64 `yaml:"wait_time"`
}

// IncidentConfig is a scenario-scripted incident injection.
type IncidentConfig struct {
	At        int64        `yaml:"at"` // simulation time (seconds)
	Type      IncidentType `yaml:"type"`
	LocationX float64      `yaml:"location_x"`
	LocationY float64      `yaml:"location_y"`
	Patients  int          `yaml:"patients"`
	Duration  int64        `yaml:"duration"` // seconds; 0 means default
}

// Config is the full simulation configuration consumed at startup.
type Config struct {
	Seed    int64 `yaml:"seed"`
	Horizon int64 `yaml:"horizon"` // simulation horizon in seconds

	Hospitals         []HospitalConfig `yaml:"hospitals"`
	ReferenceHospital string           `yaml:"reference_hospital"`

	SaturationEnter   float64           `yaml:"saturation_enter"` // emergency declared above
	SaturationExit    float64           `yaml:"saturation_exit"`  // emergency retracted below
	SaturationWeights SaturationWeights `yaml:"saturation_weights"`
	IncidentWeights   IncidentWeights   `yaml:"incident_weights"`

	CoordinatorInterval int64 `yaml:"coordinator_interval"` // seconds
	MetricsInterval     int64 `yaml:"metrics_interval"`     // seconds
	MetricsWindow       int64 `yaml:"metrics_window"`       // trailing window, seconds

	AdmissionProbability float64 `yaml:"admission_probability"`
	ObservationStayMean  int64   `yaml:"observation_stay_mean"` // seconds
	TransferDelay        int64   `yaml:"transfer_delay"`        // ambulance time for diverted patients

	// FixedDemandFactor pins the demand factor instead of deriving it from
	// weather/event/calendar signals (0 = dynamic). Scenario runs use this
	// to hold arrival pressure constant.
	FixedDemandFactor float64 `yaml:"fixed_demand_factor"`

	// TriageWeights overrides the calibrated 5-level acuity distribution.
	// Mostly useful for scenario runs that need a fixed acuity mix.
	TriageWeights []float64 `yaml:"triage_weights,omitempty"`

	// MaxPatients stops the generators after this many spawned patients
	// (0 = unlimited). Lets a run drain to empty before the horizon.
	MaxPatients int `yaml:"max_patients"`

	// RealtimeFactor maps simulated to wall-clock time for live demos:
	// 1.0 = realtime, 60.0 = a simulated minute per wall second,
	// 0 = as fast as possible. Presentation only, never affects ordering.
	RealtimeFactor float64 `yaml:"realtime_factor"`

	HolidayDays []int `yaml:"holiday_days,omitempty"` // day indices since sim start

	Incidents []IncidentConfig `yaml:"incidents,omitempty"`
}

// DefaultConfig returns a three-hospital fleet calibrated to a mid-size
// metropolitan area, with the university hospital as reference.
func DefaultConfig() *Config {
	return &Config{
		Seed:    42,
		Horizon: 24 * TicksPerHour,
		Hospitals: []HospitalConfig{
			{
				ID: "h_central", Name: "Hospital Universitario Central",
				RegistrationDesks: 3, TriageStations: 3, ConsultationRooms: 8, ObservationBeds: 12,
				ElasticConsultation: true, BaseArrivalRate: 14,
				LocationX: 0, LocationY: 0,
			},
			{
				ID: "h_norte", Name: "Hospital Comarcal del Norte",
				RegistrationDesks: 2, TriageStations: 2, ConsultationRooms: 4, ObservationBeds: 6,
				ElasticConsultation: true, BaseArrivalRate: 8,
				LocationX: 6.5, LocationY: 4.0,
			},
			{
				ID: "h_este", Name: "Clínica del Este",
				RegistrationDesks: 1, TriageStations: 1, ConsultationRooms: 3, ObservationBeds: 4,
				ElasticConsultation: false, BaseArrivalRate: 5,
				LocationX: -5.0, LocationY: 3.0,
			},
		},
		ReferenceHospital:    "h_central",
		SaturationEnter:      0.85,
		SaturationExit:       0.70,
		SaturationWeights:    SaturationWeights{ConsultationOccupancy: 0.5, ObservationOccupancy: 0.3, QueueLength: 0.2},
		IncidentWeights:      IncidentWeights{Distance: 0.35, Saturation: 0.40, WaitTime: 0.25},
		CoordinatorInterval:  5 * TicksPerMinute,
		MetricsInterval:      2 * TicksPerMinute,
		MetricsWindow:        TicksPerHour,
		AdmissionProbability: 0.15,
		ObservationStayMean:  4 * TicksPerHour,
		TransferDelay:        15 * TicksPerMinute,
	}
}

// LoadConfig reads a fleet/scenario YAML file on top of the defaults, so a
// scenario file only needs to state what it changes.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every startup-fatal condition. The simulation must not
// begin on a config that fails here.
func (c *Config) Validate() error {
	if len(c.Hospitals) == 0 {
		return fmt.Errorf("no hospitals configured")
	}
	seen := make(map[string]bool)
	refFound := false
	for _, h := range c.Hospitals {
		if h.ID == "" {
			return fmt.Errorf("hospital with empty id")
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate hospital id %q", h.ID)
		}
		seen[h.ID] = true
		if h.RegistrationDesks <= 0 {
			return fmt.Errorf("hospital %s: registration_desks must be > 0, got %d", h.ID, h.RegistrationDesks)
		}
		if h.TriageStations <= 0 {
			return fmt.Errorf("hospital %s: triage_stations must be > 0, got %d", h.ID, h.TriageStations)
		}
		if h.ConsultationRooms <= 0 {
			return fmt.Errorf("hospital %s: consultation_rooms must be > 0, got %d", h.ID, h.ConsultationRooms)
		}
		if h.ObservationBeds < 0 {
			return fmt.Errorf("hospital %s: observation_beds must be >= 0, got %d", h.ID, h.ObservationBeds)
		}
		if h.BaseArrivalRate <= 0 {
			return fmt.Errorf("hospital %s: base_arrival_rate must be > 0, got %g", h.ID, h.BaseArrivalRate)
		}
		if h.ID == c.ReferenceHospital {
			refFound = true
		}
	}
	if c.ReferenceHospital == "" {
		return fmt.Errorf("reference_hospital not set")
	}
	if !refFound {
		return fmt.Errorf("reference_hospital %q is not in the fleet", c.ReferenceHospital)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be > 0, got %d", c.Horizon)
	}
	if c.SaturationEnter <= 0 || c.SaturationEnter > 1 {
		return fmt.Errorf("saturation_enter must be in (0,1], got %g", c.SaturationEnter)
	}
	if c.SaturationExit <= 0 || c.SaturationExit >= c.SaturationEnter {
		return fmt.Errorf("saturation_exit must be in (0, saturation_enter), got %g", c.SaturationExit)
	}
	if err := validateWeights("saturation_weights", c.SaturationWeights.ConsultationOccupancy,
		c.SaturationWeights.ObservationOccupancy, c.SaturationWeights.QueueLength); err != nil {
		return err
	}
	if err := validateWeights("incident_weights", c.IncidentWeights.Distance,
		c.IncidentWeights.Saturation, c.IncidentWeights.WaitTime); err != nil {
		return err
	}
	if c.CoordinatorInterval <= 0 {
		return fmt.Errorf("coordinator_interval must be > 0, got %d", c.CoordinatorInterval)
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("metrics_interval must be > 0, got %d", c.MetricsInterval)
	}
	if c.MetricsWindow <= 0 {
		return fmt.Errorf("metrics_window must be > 0, got %d", c.MetricsWindow)
	}
	if c.AdmissionProbability < 0 || c.AdmissionProbability > 1 {
		return fmt.Errorf("admission_probability must be in [0,1], got %g", c.AdmissionProbability)
	}
	if c.ObservationStayMean <= 0 {
		return fmt.Errorf("observation_stay_mean must be > 0, got %d", c.ObservationStayMean)
	}
	if c.TransferDelay < 0 {
		return fmt.Errorf("transfer_delay must be >= 0, got %d", c.TransferDelay)
	}
	if c.RealtimeFactor < 0 {
		return fmt.Errorf("realtime_factor must be >= 0, got %g", c.RealtimeFactor)
	}
	if c.FixedDemandFactor < 0 {
		return fmt.Errorf("fixed_demand_factor must be >= 0, got %g", c.FixedDemandFactor)
	}
	if c.TriageWeights != nil {
		if len(c.TriageWeights) != 5 {
			return fmt.Errorf("triage_weights must have exactly 5 entries, got %d", len(c.TriageWeights))
		}
		sum := 0.0
		for i, w := range c.TriageWeights {
			if w < 0 {
				return fmt.Errorf("triage_weights[%d] must be >= 0, got %g", i, w)
			}
			sum += w
		}
		if sum <= 0 {
			return fmt.Errorf("triage_weights must sum to a positive value")
		}
	}
	for i, inc := range c.Incidents {
		if inc.At < 0 || inc.At > c.Horizon {
			return fmt.Errorf("incidents[%d]: at=%d outside run horizon", i, inc.At)
		}
		if inc.Patients <= 0 {
			return fmt.Errorf("incidents[%d]: patients must be > 0, got %d", i, inc.Patients)
		}
		if inc.Duration < 0 {
			return fmt.Errorf("incidents[%d]: duration must be >= 0, got %d", i, inc.Duration)
		}
		if !inc.Type.Valid() {
			return fmt.Errorf("incidents[%d]: unknown incident type %q", i, inc.Type)
		}
	}
	return nil
}

func validateWeights(name string, ws ...float64) error {
	sum := 0.0
	for _, w := range ws {
		if w < 0 {
			return fmt.Errorf("%s: weights must be >= 0", name)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("%s: weights must sum to a positive value", name)
	}
	return nil
}

// HospitalByID returns the config entry for the given id, or nil.
func (c *Config) HospitalByID(id string) *HospitalConfig {
	for i := range c.Hospitals {
		if c.Hospitals[i].ID == id {
			return &c.Hospitals[i]
		}
	}
	return nil
}
