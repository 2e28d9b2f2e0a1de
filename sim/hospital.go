package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Hospital bundles a site's immutable configuration with its live resource
// pools. Live occupancy is mutated only through pool acquire/release inside
// the flow handlers; the coordinator and metrics aggregator read.
type Hospital struct {
	Config HospitalConfig
	ID     HospitalID

	Registration *ResourcePool
	Triage       *ResourcePool
	Consultation *ResourcePool
	Observation  *ResourcePool

	EmergencyActive bool

	// Cumulative counters over the whole run
	TotalArrivals    int64
	TotalTreated     int64
	TotalAdmitted    int64
	TotalDivertedOut int64
	TotalDivertedIn  int64
	TotalSLABreaches int64
}

// NewHospital builds a hospital's pools from its config. Consultation rooms
// are individually addressed (each may carry a speed factor); registration
// and triage slots are interchangeable FIFO capacity.
func NewHospital(cfg HospitalConfig) *Hospital {
	id := HospitalID(cfg.ID)
	return &Hospital{
		Config:       cfg,
		ID:           id,
		Registration: NewResourcePool(id, "registration", cfg.RegistrationDesks, DisciplineFIFO),
		Triage:       NewResourcePool(id, "triage", cfg.TriageStations, DisciplineFIFO),
		Consultation: NewResourcePool(id, "consultation", cfg.ConsultationRooms, DisciplineTriagePriority),
		Observation:  NewResourcePool(id, "observation", cfg.ObservationBeds, DisciplineFIFO),
	}
}

// Saturation combines consultation occupancy, observation occupancy and
// normalized consultation queue length into a 0-1 score. Monotone in every
// input: raising any occupancy or the queue never lowers the score.
func (h *Hospital) Saturation(w SaturationWeights) float64 {
	qn := normalizedQueue(h.Consultation.QueueLen(), h.Consultation.Capacity())
	total := w.ConsultationOccupancy + w.ObservationOccupancy + w.QueueLength
	s := (w.ConsultationOccupancy*h.Consultation.OccupancyRatio() +
		w.ObservationOccupancy*h.Observation.OccupancyRatio() +
		w.QueueLength*qn) / total
	return math.Min(1, math.Max(0, s))
}

// normalizedQueue maps queue length to [0,1]: a queue three times the room
// capacity counts as fully saturated.
func normalizedQueue(queueLen, capacity int) float64 {
	if capacity <= 0 {
		return 1
	}
	return math.Min(1, float64(queueLen)/float64(3*capacity))
}

// ApplyStaffing maps an elastic staffing signal onto per-room speed factors:
// extra staff are assigned round-robin, each adding 1.0 to the room's speed.
// Ignored with a warning for hospitals not flagged elastic.
func (h *Hospital) ApplyStaffing(extraStaff int) {
	if !h.Config.ElasticConsultation {
		logrus.Warnf("hospital %s: staffing update ignored, consultation capacity is not elastic", h.ID)
		return
	}
	if extraStaff < 0 {
		logrus.Warnf("hospital %s: rejecting negative staffing update %d", h.ID, extraStaff)
		return
	}
	rooms := h.Consultation.Capacity()
	perRoom := make([]int, rooms)
	for i := 0; i < extraStaff; i++ {
		perRoom[i%rooms]++
	}
	for i, n := range perRoom {
		if err := h.Consultation.SetSpeed(i, 1.0+float64(n)); err != nil {
			// capacity bounds were computed above, so this cannot fail
			panic(err)
		}
	}
	logrus.Infof("hospital %s: staffing update, %d extra staff across %d rooms", h.ID, extraStaff, rooms)
}
