// Package storage persists simulation runs in SQLite, using the pure-Go
// modernc.org/sqlite driver.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/clothsim/internal/sim"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	db *sql.DB
}

// RunMetadata describes one stored run. Config holds the YAML the world was
// built from.
type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	FrameRate  int                `json:"frame_rate"`
	Integrator string             `json:"integrator"`
	Steps      int                `json:"steps"`
	Frames     int                `json:"frames"`
	Probes     []string           `json:"probes"`
	Metrics    map[string]float64 `json:"metrics"`
	Config     string             `json:"config,omitempty"`
}

// Open creates or opens the database at dbPath, creating parent
// directories and the schema as needed. A leading ~ expands to the home
// directory.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			dt REAL NOT NULL,
			duration REAL NOT NULL,
			frame_rate INTEGER NOT NULL DEFAULT 0,
			integrator TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL DEFAULT 0,
			probes TEXT NOT NULL DEFAULT '[]',
			config TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

		CREATE TABLE IF NOT EXISTS run_metrics (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			value REAL,
			PRIMARY KEY (run_id, name)
		);

		CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			frame INTEGER NOT NULL,
			probe INTEGER NOT NULL,
			t REAL NOT NULL,
			value REAL,
			PRIMARY KEY (run_id, frame, probe)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores meta and every sample of result in one transaction and
// returns the new run id. meta.ID, Timestamp, Steps, Frames, Probes and
// Metrics are filled from result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())

	probes, err := json.Marshal(result.Probes)
	if err != nil {
		return "", fmt.Errorf("storage: cannot encode probes: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, name, created_at, seed, dt, duration, frame_rate, integrator, steps, frames, probes, config)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, now.UnixNano(), meta.Seed, meta.Dt, meta.Duration, meta.FrameRate,
		meta.Integrator, result.StepsTaken, result.Frames, string(probes), meta.Config,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save run: %w", err)
	}

	for name, v := range result.Metrics {
		if _, err := tx.Exec(
			"INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)",
			meta.ID, name, nullable(v),
		); err != nil {
			return "", fmt.Errorf("storage: cannot save metric %s: %w", name, err)
		}
	}

	stmt, err := tx.Prepare("INSERT INTO samples (run_id, frame, probe, t, value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("storage: cannot prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for frame, row := range result.Samples {
		for probe, v := range row {
			if _, err := stmt.Exec(meta.ID, frame, probe, result.Times[frame], nullable(v)); err != nil {
				return "", fmt.Errorf("storage: cannot save sample %d: %w", frame, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: cannot commit run: %w", err)
	}
	return meta.ID, nil
}

// SQLite stores NaN as NULL; infinities survive.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

const runColumns = `id, name, created_at, seed, dt, duration, frame_rate, integrator, steps, frames, probes, config`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunMetadata, error) {
	var (
		meta    RunMetadata
		created int64
		probes  string
	)
	err := row.Scan(&meta.ID, &meta.Name, &created, &meta.Seed, &meta.Dt, &meta.Duration,
		&meta.FrameRate, &meta.Integrator, &meta.Steps, &meta.Frames, &probes, &meta.Config)
	if err != nil {
		return meta, err
	}
	meta.Timestamp = time.Unix(0, created)
	if err := json.Unmarshal([]byte(probes), &meta.Probes); err != nil {
		return meta, fmt.Errorf("storage: corrupt probe list for %s: %w", meta.ID, err)
	}
	return meta, nil
}

// List returns every run, newest first. Metrics are not loaded.
func (s *Store) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan run: %w", err)
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: cannot iterate runs: %w", err)
	}
	return runs, nil
}

// Load returns the metadata and metrics of one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	meta, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load run %s: %w", runID, err)
	}

	rows, err := s.db.Query("SELECT name, value FROM run_metrics WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query metrics: %w", err)
	}
	defer rows.Close()

	meta.Metrics = make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value sql.NullFloat64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("storage: cannot scan metric: %w", err)
		}
		meta.Metrics[name] = fromNullable(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: cannot iterate metrics: %w", err)
	}
	return &meta, nil
}

// LoadResult rebuilds the sampled part of a run: times, samples, probe
// names, metrics and counters.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT frame, probe, t, value FROM samples WHERE run_id = ? ORDER BY frame, probe`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query samples: %w", err)
	}
	defer rows.Close()

	result := &sim.Result{
		Times:      make([]float64, meta.Frames+1),
		Samples:    make([][]float64, meta.Frames+1),
		Probes:     meta.Probes,
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
		Frames:     meta.Frames,
	}
	for i := range result.Samples {
		result.Samples[i] = make([]float64, len(meta.Probes))
		for j := range result.Samples[i] {
			result.Samples[i][j] = math.NaN()
		}
	}

	for rows.Next() {
		var (
			frame, probe int
			t            float64
			value        sql.NullFloat64
		)
		if err := rows.Scan(&frame, &probe, &t, &value); err != nil {
			return nil, fmt.Errorf("storage: cannot scan sample: %w", err)
		}
		if frame >= len(result.Samples) || probe >= len(meta.Probes) {
			return nil, fmt.Errorf("storage: sample %d/%d outside run %s", frame, probe, runID)
		}
		result.Times[frame] = t
		result.Samples[frame][probe] = fromNullable(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: cannot iterate samples: %w", err)
	}
	return result, nil
}

func (s *Store) Delete(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	for _, table := range []string{"run_metrics", "samples"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("storage: cannot delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}
