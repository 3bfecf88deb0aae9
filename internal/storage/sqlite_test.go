package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/tui-lemmings/internal/colony"
	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/lemming"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file and its directory were created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreIncidents(t *testing.T) {
	store := openTestStore(t)

	for i, stageID := range []string{"steps", "wall", "steps"} {
		_, err := store.SaveIncident(IncidentEntry{
			StageID:   stageID,
			Agent:     fmt.Sprintf("lemming_%d", i),
			Adjacency: "-RB-",
			Direction: "Right",
			Climbing:  i == 1,
			Action:    "WalkRight",
			Offset:    -10,
			PosX:      40 + i,
			PosY:      20,
			Error:     "boom",
		})
		if err != nil {
			t.Fatalf("SaveIncident() failed: %v", err)
		}
	}

	all, err := store.RecentIncidents("", 10)
	if err != nil {
		t.Fatalf("RecentIncidents() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 incidents, got %d", len(all))
	}
	// Newest first
	if all[0].Agent != "lemming_2" || all[2].Agent != "lemming_0" {
		t.Errorf("incidents not newest first: %q .. %q", all[0].Agent, all[2].Agent)
	}
	if !all[1].Climbing || all[0].Climbing {
		t.Error("Climbing flag did not round-trip")
	}
	if all[0].PosX != 42 || all[0].Offset != -10 || all[0].Adjacency != "-RB-" {
		t.Errorf("incident fields = %+v", all[0])
	}
	if all[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not populated")
	}

	steps, err := store.RecentIncidents("steps", 10)
	if err != nil {
		t.Fatalf("RecentIncidents(steps) failed: %v", err)
	}
	if len(steps) != 2 {
		t.Errorf("Expected 2 steps incidents, got %d", len(steps))
	}

	limited, _ := store.RecentIncidents("", 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit 1 to return 1 row, got %d", len(limited))
	}

	n, err := store.ClearIncidents("steps")
	if err != nil {
		t.Fatalf("ClearIncidents() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("ClearIncidents() = %d, expected 2", n)
	}
	rest, _ := store.RecentIncidents("", 10)
	if len(rest) != 1 || rest[0].StageID != "wall" {
		t.Errorf("after clear = %+v, expected the wall incident", rest)
	}
}

func TestStoreRuns(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveRun(RunEntry{StageID: "pit", Mode: "simulate", Spawned: 4, Faults: 0, Duration: 90 * time.Second}); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	if _, err := store.SaveRun(RunEntry{StageID: "steps", Mode: "tui", Spawned: 2, Faults: 1, Duration: 1500 * time.Millisecond}); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}

	runs, err := store.RecentRuns(0)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].StageID != "steps" || runs[0].Duration != 1500*time.Millisecond || runs[0].Faults != 1 {
		t.Errorf("newest run = %+v", runs[0])
	}
	if runs[1].Mode != "simulate" || runs[1].Spawned != 4 {
		t.Errorf("oldest run = %+v", runs[1])
	}
}

func TestStageStats(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.GetStageStats("plain")
	if err != nil {
		t.Fatalf("GetStageStats() failed: %v", err)
	}
	if empty.Runs != 0 || empty.Incidents != 0 || !empty.LastIncident.IsZero() {
		t.Errorf("empty stats = %+v", empty)
	}

	store.SaveRun(RunEntry{StageID: "plain", Mode: "simulate"})
	store.SaveRun(RunEntry{StageID: "plain", Mode: "simulate"})
	store.SaveIncident(IncidentEntry{StageID: "plain", Agent: "lemming_1", Error: "x"})

	stats, err := store.GetStageStats("plain")
	if err != nil {
		t.Fatalf("GetStageStats() failed: %v", err)
	}
	if stats.Runs != 2 || stats.Incidents != 1 || stats.LastIncident.IsZero() {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRecordIncident(t *testing.T) {
	store := openTestStore(t)

	in := colony.Incident{
		Agent: 3,
		Stage: "wall",
		Snapshot: lemming.Snapshot{
			ID:        3,
			Position:  core.Point{X: 12, Y: 34},
			Direction: lemming.Left,
			Action:    lemming.ClimbLeft,
			Climbing:  true,
			Offset:    -4,
			Adjacency: lemming.Adjacency{
				Left:   lemming.Contact{Kind: lemming.ContactObstacle, Obstacle: "wall"},
				Bottom: lemming.Contact{Kind: lemming.ContactViewport},
			},
		},
		Err: errors.New("lemming: unhandled adjacency state"),
		At:  time.Now(),
	}

	var recorder colony.IncidentRecorder = store
	if err := recorder.RecordIncident(in); err != nil {
		t.Fatalf("RecordIncident() failed: %v", err)
	}

	got, err := store.RecentIncidents("wall", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("RecentIncidents() = %v, %v", got, err)
	}
	e := got[0]
	if e.Agent != "lemming_3" || e.Adjacency != "--BL" || e.Direction != "Left" || e.Action != "ClimbLeft" {
		t.Errorf("recorded = %+v", e)
	}
	if !e.Climbing || e.Offset != -4 || e.PosX != 12 || e.PosY != 34 {
		t.Errorf("recorded state = %+v", e)
	}
	if e.Error != "lemming: unhandled adjacency state" {
		t.Errorf("Error = %q", e.Error)
	}
}
