package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestRunStorage_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	run := &models.TestRun{
		ID:            "run-1",
		SuiteID:       "checkout",
		Status:        models.RunStatusRunning,
		ScenarioCount: 2,
		TotalPairs:    4,
		CreatedAt:     time.Now(),
	}
	if err := storage.SaveRun(ctx, run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	loaded, err := storage.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if loaded.SuiteID != "checkout" || loaded.TotalPairs != 4 {
		t.Errorf("loaded run mismatch: %+v", loaded)
	}

	if _, err := storage.GetRun(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing run, got %v", err)
	}
}

func TestRunStorage_UpdateRunStatus(t *testing.T) {
	db := newTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	run := &models.TestRun{ID: "run-2", SuiteID: "smoke", Status: models.RunStatusRunning, CreatedAt: time.Now()}
	if err := storage.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	if err := storage.UpdateRunStatus(ctx, "run-2", models.RunStatusCompleted); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	loaded, err := storage.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != models.RunStatusCompleted {
		t.Errorf("status = %s, want completed", loaded.Status)
	}
	if loaded.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set on terminal status")
	}
}

func TestRunStorage_ScenarioResults(t *testing.T) {
	db := newTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	for i, name := range []string{"login", "checkout", "logout"} {
		result := &models.ScenarioResult{
			ID:           "res-" + name,
			RunID:        "run-3",
			ScenarioName: name,
			Viewport:     models.Viewport{Name: "mobile", Width: 375, Height: 667},
			Status:       models.ScenarioStatusPass,
			StartedAt:    base.Add(time.Duration(i) * time.Second),
		}
		if err := storage.SaveScenarioResult(ctx, result); err != nil {
			t.Fatalf("Failed to save result %s: %v", name, err)
		}
	}

	// Result for another run must not bleed in
	other := &models.ScenarioResult{ID: "res-other", RunID: "run-other", ScenarioName: "other", StartedAt: base}
	if err := storage.SaveScenarioResult(ctx, other); err != nil {
		t.Fatal(err)
	}

	results, err := storage.GetScenarioResults(ctx, "run-3")
	if err != nil {
		t.Fatalf("Failed to get results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Chronological by StartedAt
	expected := []string{"login", "checkout", "logout"}
	for i, result := range results {
		if result.ScenarioName != expected[i] {
			t.Errorf("result %d = %s, want %s", i, result.ScenarioName, expected[i])
		}
	}
}

func TestRunStorage_ListRuns(t *testing.T) {
	db := newTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	for i, suite := range []string{"a", "a", "b"} {
		run := &models.TestRun{
			ID:        "run-list-" + string(rune('0'+i)),
			SuiteID:   suite,
			Status:    models.RunStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := storage.SaveRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	all, err := storage.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}

	suiteA, err := storage.ListRuns(ctx, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(suiteA) != 2 {
		t.Errorf("expected 2 runs for suite a, got %d", len(suiteA))
	}

	limited, err := storage.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 run with limit, got %d", len(limited))
	}
	// Most recent first
	if limited[0].ID != "run-list-2" {
		t.Errorf("expected most recent run first, got %s", limited[0].ID)
	}
}
