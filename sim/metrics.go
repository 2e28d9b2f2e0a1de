package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type timedValue struct {
	at int64
	v  float64
}

// hospitalWindow holds one hospital's trailing-window samples.
type hospitalWindow struct {
	waits       []timedValue
	services    []timedValue
	roomService map[int][]float64 // per consultation room, whole run
	arrivals    []int64
	treated     []int64
}

// Aggregator derives per-hospital statistics from live state at a fixed
// sampling cadence. It is a pure observer: it reads pools and counters and
// never mutates Patient or Hospital state.
type Aggregator struct {
	window  int64
	weights SaturationWeights
	byID    map[HospitalID]*hospitalWindow

	snapshots int64
}

func NewAggregator(window int64, weights SaturationWeights) *Aggregator {
	return &Aggregator{
		window:  window,
		weights: weights,
		byID:    make(map[HospitalID]*hospitalWindow),
	}
}

func (a *Aggregator) win(h HospitalID) *hospitalWindow {
	w, ok := a.byID[h]
	if !ok {
		w = &hospitalWindow{roomService: make(map[int][]float64)}
		a.byID[h] = w
	}
	return w
}

// RecordArrival notes a patient arrival for throughput derivation.
func (a *Aggregator) RecordArrival(h HospitalID, now int64) {
	w := a.win(h)
	w.arrivals = append(w.arrivals, now)
}

// RecordCompletion ingests a treated patient's timings.
func (a *Aggregator) RecordCompletion(h HospitalID, p *Patient, now int64) {
	w := a.win(h)
	w.treated = append(w.treated, now)
	w.waits = append(w.waits, timedValue{at: now, v: float64(p.TotalWait())})
}

// RecordConsultation ingests one consultation service duration, attributed
// to the room that performed it.
func (a *Aggregator) RecordConsultation(h HospitalID, room int, duration, now int64) {
	w := a.win(h)
	w.services = append(w.services, timedValue{at: now, v: float64(duration)})
	w.roomService[room] = append(w.roomService[room], float64(duration))
}

// MeanWait returns the mean total wait over the trailing window, seconds.
func (a *Aggregator) MeanWait(h HospitalID) float64 {
	return meanTimed(a.win(h).waits)
}

// MeanService returns the mean consultation duration over the trailing
// window, seconds.
func (a *Aggregator) MeanService(h HospitalID) float64 {
	return meanTimed(a.win(h).services)
}

// RoomMeanService returns the mean consultation duration per room index
// over the whole run. Used for elastic-capacity verification.
func (a *Aggregator) RoomMeanService(h HospitalID, room int) float64 {
	vals := a.win(h).roomService[room]
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Snapshots returns the number of snapshots published so far.
func (a *Aggregator) Snapshots() int64 { return a.snapshots }

// Tick prunes the trailing windows and publishes one snapshot per hospital.
func (a *Aggregator) Tick(now int64, hospitals map[HospitalID]*Hospital, order []HospitalID, pub Publisher) {
	for _, id := range order {
		h := hospitals[id]
		w := a.win(id)
		w.waits = pruneTimed(w.waits, now-a.window)
		w.services = pruneTimed(w.services, now-a.window)
		w.arrivals = pruneStamps(w.arrivals, now-TicksPerHour)
		w.treated = pruneStamps(w.treated, now-TicksPerHour)

		snap := Snapshot{
			Hospital:             id,
			Time:                 now,
			RegistrationOccupied: h.Registration.Occupied(),
			TriageOccupied:       h.Triage.Occupied(),
			ConsultationOccupied: h.Consultation.Occupied(),
			ObservationOccupied:  h.Observation.Occupied(),
			RegistrationRatio:    h.Registration.OccupancyRatio(),
			TriageRatio:          h.Triage.OccupancyRatio(),
			ConsultationRatio:    h.Consultation.OccupancyRatio(),
			ObservationRatio:     h.Observation.OccupancyRatio(),
			RegistrationQueue:    h.Registration.QueueLen(),
			TriageQueue:          h.Triage.QueueLen(),
			ConsultationQueue:    h.Consultation.QueueLen(),
			MeanWait:             meanTimed(w.waits),
			MeanService:          meanTimed(w.services),
			ArrivedLastHour:      len(w.arrivals),
			TreatedLastHour:      len(w.treated),
			Saturation:           h.Saturation(a.weights),
			EmergencyActive:      h.EmergencyActive,
		}
		pub.PublishSnapshot(snap)
		a.snapshots++
	}
}

func meanTimed(vals []timedValue) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, tv := range vals {
		sum += tv.v
	}
	return sum / float64(len(vals))
}

func pruneTimed(vals []timedValue, cutoff int64) []timedValue {
	i := 0
	for i < len(vals) && vals[i].at < cutoff {
		i++
	}
	return vals[i:]
}

func pruneStamps(vals []int64, cutoff int64) []int64 {
	i := 0
	for i < len(vals) && vals[i] < cutoff {
		i++
	}
	return vals[i:]
}

// Summary renders the end-of-run report.
func (a *Aggregator) Summary(s *Simulator, wallStart time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Simulation summary (%s simulated, %s wall) ===\n",
		formatSimDuration(s.Clock), time.Since(wallStart).Round(time.Millisecond))
	var totalArrived, totalTreated, totalAdmitted, totalDiverted, totalBreaches int64
	for _, id := range s.hospitalOrder {
		h := s.Hospitals[id]
		totalArrived += h.TotalArrivals
		totalTreated += h.TotalTreated
		totalAdmitted += h.TotalAdmitted
		totalDiverted += h.TotalDivertedOut
		totalBreaches += h.TotalSLABreaches
		fmt.Fprintf(&sb, "%-32s arrived=%s treated=%s admitted=%s diverted_out=%s diverted_in=%s mean_wait=%.1fmin sla_breaches=%s\n",
			h.Config.Name,
			humanize.Comma(h.TotalArrivals),
			humanize.Comma(h.TotalTreated),
			humanize.Comma(h.TotalAdmitted),
			humanize.Comma(h.TotalDivertedOut),
			humanize.Comma(h.TotalDivertedIn),
			a.MeanWait(id)/float64(TicksPerMinute),
			humanize.Comma(h.TotalSLABreaches),
		)
	}
	fmt.Fprintf(&sb, "fleet: arrived=%s treated=%s admitted=%s diversions=%s sla_breaches=%s snapshots=%s\n",
		humanize.Comma(totalArrived), humanize.Comma(totalTreated), humanize.Comma(totalAdmitted),
		humanize.Comma(totalDiverted), humanize.Comma(totalBreaches), humanize.Comma(a.snapshots))
	return sb.String()
}

func formatSimDuration(ticks int64) string {
	return (time.Duration(ticks) * time.Second).String()
}
