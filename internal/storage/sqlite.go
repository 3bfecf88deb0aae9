// Package storage provides SQLite-based persistence for the incident journal.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-lemmings/internal/colony"
)

const timeLayout = "2006-01-02 15:04:05"

// Store manages the SQLite database connection for the journal.
type Store struct {
	db *sql.DB
}

// IncidentEntry is one recorded fault.
type IncidentEntry struct {
	ID        int64
	StageID   string
	Agent     string
	Adjacency string // TRBL mask, e.g. "-RB-"
	Direction string
	Climbing  bool
	Action    string
	Offset    int
	PosX      int
	PosY      int
	Error     string
	CreatedAt time.Time
}

// RunEntry summarizes one simulation run.
type RunEntry struct {
	ID        int64
	StageID   string
	Mode      string // "simulate", "tui", "ssh", "web"
	Spawned   int
	Faults    int
	Duration  time.Duration
	CreatedAt time.Time
}

// StageStats contains aggregated incident statistics for a stage.
type StageStats struct {
	StageID      string
	Runs         int
	Incidents    int
	LastIncident time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
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

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS incidents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			stage_id TEXT NOT NULL,
			agent TEXT NOT NULL,
			adjacency TEXT NOT NULL,
			direction TEXT NOT NULL,
			climbing INTEGER NOT NULL DEFAULT 0,
			action TEXT NOT NULL,
			bg_offset INTEGER NOT NULL DEFAULT 0,
			pos_x INTEGER NOT NULL DEFAULT 0,
			pos_y INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_incidents_stage_id ON incidents(stage_id);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			stage_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			spawned INTEGER NOT NULL DEFAULT 0,
			faults INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_stage_id ON runs(stage_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveIncident records a fault. Returns the ID of the inserted record.
func (s *Store) SaveIncident(e IncidentEntry) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO incidents
		 (stage_id, agent, adjacency, direction, climbing, action, bg_offset, pos_x, pos_y, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.StageID, e.Agent, e.Adjacency, e.Direction, e.Climbing, e.Action, e.Offset, e.PosX, e.PosY, e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save incident: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentIncidents retrieves the most recent incidents, newest first.
// An empty stageID selects all stages.
func (s *Store) RecentIncidents(stageID string, limit int) ([]IncidentEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, stage_id, agent, adjacency, direction, climbing, action, bg_offset, pos_x, pos_y, error, created_at
		 FROM incidents
		 WHERE ? = '' OR stage_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		stageID, stageID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query incidents: %w", err)
	}
	defer rows.Close()

	var entries []IncidentEntry
	for rows.Next() {
		var e IncidentEntry
		var createdAt any
		if err := rows.Scan(
			&e.ID, &e.StageID, &e.Agent, &e.Adjacency, &e.Direction, &e.Climbing,
			&e.Action, &e.Offset, &e.PosX, &e.PosY, &e.Error, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// ClearIncidents deletes incidents for a stage, or all of them when stageID is empty.
// Returns the number of deleted rows.
func (s *Store) ClearIncidents(stageID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM incidents WHERE ? = '' OR stage_id = ?", stageID, stageID)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot clear incidents: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SaveRun records a finished run. Returns the ID of the inserted record.
func (s *Store) SaveRun(r RunEntry) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (stage_id, mode, spawned, faults, duration_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		r.StageID, r.Mode, r.Spawned, r.Faults, r.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, stage_id, mode, spawned, faults, duration_ms, created_at
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunEntry
	for rows.Next() {
		var r RunEntry
		var durationMS int64
		var createdAt any
		if err := rows.Scan(&r.ID, &r.StageID, &r.Mode, &r.Spawned, &r.Faults, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// GetStageStats retrieves aggregated statistics for a specific stage.
func (s *Store) GetStageStats(stageID string) (*StageStats, error) {
	stats := &StageStats{StageID: stageID}

	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM runs WHERE stage_id = ?", stageID,
	).Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("storage: cannot count runs: %w", err)
	}

	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM incidents WHERE stage_id = ?", stageID,
	).Scan(&stats.Incidents); err != nil {
		return nil, fmt.Errorf("storage: cannot count incidents: %w", err)
	}

	var last any
	err := s.db.QueryRow(
		"SELECT created_at FROM incidents WHERE stage_id = ? ORDER BY id DESC LIMIT 1", stageID,
	).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get last incident: %w", err)
	}
	if err == nil {
		stats.LastIncident = parseTime(last)
	}

	return stats, nil
}

// RecordIncident implements colony.IncidentRecorder.
// This adapter lets a colony journal faults without a direct storage dependency.
func (s *Store) RecordIncident(in colony.Incident) error {
	_, err := s.SaveIncident(IncidentFrom(in))
	return err
}

// Ensure Store implements IncidentRecorder
var _ colony.IncidentRecorder = (*Store)(nil)

// IncidentFrom flattens a colony incident into a journal row.
func IncidentFrom(in colony.Incident) IncidentEntry {
	snap := in.Snapshot
	e := IncidentEntry{
		StageID:   in.Stage,
		Agent:     in.Agent.String(),
		Adjacency: snap.Adjacency.String(),
		Direction: snap.Direction.String(),
		Climbing:  snap.Climbing,
		Action:    snap.Action.String(),
		Offset:    snap.Offset,
		PosX:      snap.Position.X,
		PosY:      snap.Position.Y,
		CreatedAt: in.At,
	}
	if in.Err != nil {
		e.Error = in.Err.Error()
	}
	return e
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(timeLayout, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
