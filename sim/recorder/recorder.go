// Package recorder persists published simulation events and snapshots to
// SQLite. It stands in for the message bus / time-series stack that the
// dashboards consume: the simulation only sees the Publisher interface and
// never waits on the sink.
package recorder

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/higlesiasvd/gemelo-digital-urgencias-sub001/sim"
)

// Recorder implements sim.Publisher over a SQLite file.
type Recorder struct {
	conn *sqlx.DB
}

// Open opens or creates the recording database at path.
func Open(path string) (*Recorder, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &Recorder{conn: conn}
	if err := r.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	return r.conn.Close()
}

func (r *Recorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		hospital TEXT NOT NULL,
		patient TEXT,
		time INTEGER NOT NULL,
		triage_level INTEGER,
		destination TEXT,
		reason TEXT,
		emergency_active INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
	CREATE INDEX IF NOT EXISTS idx_events_hospital ON events(hospital, kind);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hospital TEXT NOT NULL,
		time INTEGER NOT NULL,
		registration_occupied INTEGER NOT NULL,
		triage_occupied INTEGER NOT NULL,
		consultation_occupied INTEGER NOT NULL,
		observation_occupied INTEGER NOT NULL,
		registration_ratio REAL NOT NULL,
		triage_ratio REAL NOT NULL,
		consultation_ratio REAL NOT NULL,
		observation_ratio REAL NOT NULL,
		registration_queue INTEGER NOT NULL,
		triage_queue INTEGER NOT NULL,
		consultation_queue INTEGER NOT NULL,
		mean_wait REAL NOT NULL,
		mean_service REAL NOT NULL,
		arrived_last_hour INTEGER NOT NULL,
		treated_last_hour INTEGER NOT NULL,
		saturation REAL NOT NULL,
		emergency_active INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_time ON snapshots(hospital, time);
	`
	_, err := r.conn.Exec(schema)
	return err
}

// PublishEvent appends one event row. Failures are logged and dropped so
// the simulation clock never stalls on the sink.
func (r *Recorder) PublishEvent(e sim.PublishedEvent) {
	_, err := r.conn.Exec(
		`INSERT INTO events (kind, hospital, patient, time, triage_level, destination, reason, emergency_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), string(e.Hospital), e.Patient, e.Time,
		int(e.TriageLevel), string(e.Destination), e.Reason, boolInt(e.EmergencyActive),
	)
	if err != nil {
		logrus.Warnf("recorder: dropping event %s: %v", e.Kind, err)
	}
}

// PublishSnapshot appends one snapshot row, same drop-on-error contract.
func (r *Recorder) PublishSnapshot(s sim.Snapshot) {
	_, err := r.conn.Exec(
		`INSERT INTO snapshots (hospital, time,
			registration_occupied, triage_occupied, consultation_occupied, observation_occupied,
			registration_ratio, triage_ratio, consultation_ratio, observation_ratio,
			registration_queue, triage_queue, consultation_queue,
			mean_wait, mean_service, arrived_last_hour, treated_last_hour,
			saturation, emergency_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.Hospital), s.Time,
		s.RegistrationOccupied, s.TriageOccupied, s.ConsultationOccupied, s.ObservationOccupied,
		s.RegistrationRatio, s.TriageRatio, s.ConsultationRatio, s.ObservationRatio,
		s.RegistrationQueue, s.TriageQueue, s.ConsultationQueue,
		s.MeanWait, s.MeanService, s.ArrivedLastHour, s.TreatedLastHour,
		s.Saturation, boolInt(s.EmergencyActive),
	)
	if err != nil {
		logrus.Warnf("recorder: dropping snapshot for %s: %v", s.Hospital, err)
	}
}

// EventCount returns the number of recorded events of one kind ("" = all).
func (r *Recorder) EventCount(kind sim.EventKind) (int, error) {
	var n int
	var err error
	if kind == "" {
		err = r.conn.Get(&n, `SELECT COUNT(*) FROM events`)
	} else {
		err = r.conn.Get(&n, `SELECT COUNT(*) FROM events WHERE kind = ?`, string(kind))
	}
	return n, err
}

// SnapshotCount returns the number of recorded snapshots.
func (r *Recorder) SnapshotCount() (int, error) {
	var n int
	err := r.conn.Get(&n, `SELECT COUNT(*) FROM snapshots`)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
