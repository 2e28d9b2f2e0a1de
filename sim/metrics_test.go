package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsFixture() (*Aggregator, map[HospitalID]*Hospital, []HospitalID) {
	cfg := singleHospitalConfig(1, 1, 2, 2, 10)
	h := NewHospital(cfg.Hospitals[0])
	agg := NewAggregator(cfg.MetricsWindow, cfg.SaturationWeights)
	return agg, map[HospitalID]*Hospital{h.ID: h}, []HospitalID{h.ID}
}

func TestAggregator_SnapshotReflectsLiveState(t *testing.T) {
	agg, hospitals, order := metricsFixture()
	h := hospitals["h_er"]
	pub := &capturePublisher{}

	// Both rooms busy, one patient queued, one bed occupied.
	fillPool(t, h.Consultation, 2)
	h.Consultation.Acquire(testPatient(9, TriageUrgent), 50)
	fillPool(t, h.Observation, 1)

	agg.RecordArrival(h.ID, 10)
	agg.RecordArrival(h.ID, 20)

	agg.Tick(100, hospitals, order, pub)

	require.Len(t, pub.snaps, 1)
	snap := pub.snaps[0]
	assert.Equal(t, HospitalID("h_er"), snap.Hospital)
	assert.Equal(t, int64(100), snap.Time)
	assert.Equal(t, 2, snap.ConsultationOccupied)
	assert.Equal(t, 1.0, snap.ConsultationRatio)
	assert.Equal(t, 1, snap.ConsultationQueue)
	assert.Equal(t, 1, snap.ObservationOccupied)
	assert.Equal(t, 0.5, snap.ObservationRatio)
	assert.Equal(t, 2, snap.ArrivedLastHour)
	assert.Equal(t, h.Saturation(DefaultConfig().SaturationWeights), snap.Saturation)
	assert.Equal(t, int64(1), agg.Snapshots())
}

func TestAggregator_TrailingWindowPrunes(t *testing.T) {
	agg, hospitals, order := metricsFixture()
	id := order[0]
	pub := &capturePublisher{}
	window := agg.window

	// One old sample, one fresh one.
	old := testPatient(1, TriageStandard)
	old.EnterStage(StageQueuedRegistration, 0)
	old.EnterStage(StageInRegistration, 100)
	agg.RecordCompletion(id, old, 100)

	fresh := testPatient(2, TriageStandard)
	fresh.EnterStage(StageQueuedRegistration, window)
	fresh.EnterStage(StageInRegistration, window+300)
	agg.RecordCompletion(id, fresh, window+300)

	// Before pruning, both samples are in the mean.
	assert.Equal(t, 200.0, agg.MeanWait(id))

	// A tick past the cutoff drops the old one.
	agg.Tick(window+400, hospitals, order, pub)
	assert.Equal(t, 300.0, agg.MeanWait(id))
}

func TestAggregator_MeanServiceWindow(t *testing.T) {
	agg, _, order := metricsFixture()
	id := order[0]

	agg.RecordConsultation(id, 0, 600, 100)
	agg.RecordConsultation(id, 1, 1200, 200)
	assert.Equal(t, 900.0, agg.MeanService(id))
}

func TestAggregator_RoomMeanService(t *testing.T) {
	agg, _, order := metricsFixture()
	id := order[0]

	agg.RecordConsultation(id, 0, 1000, 100)
	agg.RecordConsultation(id, 0, 2000, 200)
	agg.RecordConsultation(id, 1, 400, 300)

	assert.Equal(t, 1500.0, agg.RoomMeanService(id, 0))
	assert.Equal(t, 400.0, agg.RoomMeanService(id, 1))
	assert.Equal(t, 0.0, agg.RoomMeanService(id, 7), "room with no samples")
}

func TestAggregator_ThroughputCountsLastHour(t *testing.T) {
	agg, hospitals, order := metricsFixture()
	id := order[0]
	pub := &capturePublisher{}

	// Two arrivals inside the last hour, one before it.
	agg.RecordArrival(id, 100)
	agg.RecordArrival(id, 2*TicksPerHour)
	agg.RecordArrival(id, 2*TicksPerHour+600)

	done := testPatient(1, TriageStandard)
	agg.RecordCompletion(id, done, 2*TicksPerHour+700)

	agg.Tick(2*TicksPerHour+800, hospitals, order, pub)
	require.Len(t, pub.snaps, 1)
	assert.Equal(t, 2, pub.snaps[0].ArrivedLastHour)
	assert.Equal(t, 1, pub.snaps[0].TreatedLastHour)
}

func TestAggregator_EmptyWindowMeansZero(t *testing.T) {
	agg, _, order := metricsFixture()
	assert.Equal(t, 0.0, agg.MeanWait(order[0]))
	assert.Equal(t, 0.0, agg.MeanService(order[0]))
}
