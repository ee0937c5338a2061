package telemetry

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		profile TEXT NOT NULL,
		dt REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		t REAL,
		mode TEXT,
		height REAL,
		pitch REAL,
		roll REAL,
		yaw REAL,
		fl REAL,
		fr REAL,
		rl REAL,
		rr REAL
	)`,
	`CREATE TABLE IF NOT EXISTS axis_samples (
		sample_id INTEGER NOT NULL REFERENCES samples(id),
		axis TEXT,
		set_point REAL,
		p REAL,
		i REAL,
		d REAL
	)`,
}

// Run describes one recorded flight.
type Run struct {
	ID        int64
	Profile   string
	DeltaTime float64
	StartedAt string
	Samples   int
}

// Recorder persists samples in a SQLite database.
type Recorder struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenRecorder opens or creates the database at path.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps in-memory databases shared.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

// BeginRun registers a new run and returns its id.
func (r *Recorder) BeginRun(profile string, dt float64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`INSERT INTO runs (profile, dt) VALUES (?, ?)`, profile, dt)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// Record stores samples of runID in one transaction.
func (r *Recorder) Record(runID int64, samples ...Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, s := range samples {
		res, err := tx.Exec(`INSERT INTO samples (run_id, t, mode, height, pitch, roll, yaw, fl, fr, rl, rr)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, s.Time, s.Mode, s.Height, s.Pitch, s.Roll, s.Yaw,
			s.Motors[0], s.Motors[1], s.Motors[2], s.Motors[3])
		if err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
		sampleID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sample id: %w", err)
		}
		for _, a := range s.Axes {
			_, err := tx.Exec(`INSERT INTO axis_samples (sample_id, axis, set_point, p, i, d) VALUES (?, ?, ?, ?, ?, ?)`,
				sampleID, a.Axis, a.SetPoint, a.P, a.I, a.D)
			if err != nil {
				return fmt.Errorf("insert %s sample: %w", a.Axis, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Observer returns a callback recording every sample it receives into runID.
func (r *Recorder) Observer(runID int64) func(Sample) error {
	return func(s Sample) error {
		return r.Record(runID, s)
	}
}

// Runs lists every recorded run, oldest first.
func (r *Recorder) Runs() ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT runs.id, runs.profile, runs.dt, runs.started_at, COUNT(samples.id)
		FROM runs LEFT JOIN samples ON samples.run_id = runs.id
		GROUP BY runs.id ORDER BY runs.id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Profile, &run.DeltaTime, &run.StartedAt, &run.Samples); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Samples loads every sample of runID in time order.
func (r *Recorder) Samples(runID int64) ([]Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, t, mode, height, pitch, roll, yaw, fl, fr, rl, rr
		FROM samples WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	var (
		samples []Sample
		ids     = map[int64]int{}
	)
	for rows.Next() {
		var s Sample
		var id int64
		if err := rows.Scan(&id, &s.Time, &s.Mode, &s.Height, &s.Pitch, &s.Roll, &s.Yaw,
			&s.Motors[0], &s.Motors[1], &s.Motors[2], &s.Motors[3]); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		ids[id] = len(samples)
		samples = append(samples, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	axisRows, err := r.db.Query(`SELECT a.sample_id, a.axis, a.set_point, a.p, a.i, a.d
		FROM axis_samples a JOIN samples s ON s.id = a.sample_id
		WHERE s.run_id = ? ORDER BY a.rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query axis samples: %w", err)
	}
	defer axisRows.Close()
	for axisRows.Next() {
		var id int64
		var a AxisSample
		if err := axisRows.Scan(&id, &a.Axis, &a.SetPoint, &a.P, &a.I, &a.D); err != nil {
			return nil, fmt.Errorf("scan axis sample: %w", err)
		}
		if i, ok := ids[id]; ok {
			samples[i].Axes = append(samples[i].Axes, a)
		}
	}
	return samples, axisRows.Err()
}
