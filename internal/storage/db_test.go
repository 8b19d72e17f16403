package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/shealth2tcx/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(id, start, hash string) models.ExportRecord {
	return models.ExportRecord{
		ActivityID:   id,
		RunID:        uuid.New(),
		FileName:     "1002_" + start[:10] + "_" + id + ".tcx",
		ExerciseType: models.ExerciseTypeRunning,
		Sport:        "Running",
		StartTime:    start,
		Trackpoints:  42,
		SizeBytes:    2048,
		Hash:         hash,
		ExportedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// TestOpenReopen verifies migrations are idempotent across opens.
func TestOpenReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()
}

func TestExportRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := testRecord("a1", "2023-05-01 07:00:00.000", "h1")
	if err := db.MarkExported(ctx, rec); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}

	got, err := db.GetExport(ctx, "a1")
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if got == nil {
		t.Fatal("GetExport returned nil")
	}
	if got.RunID != rec.RunID {
		t.Errorf("RunID = %v, want %v", got.RunID, rec.RunID)
	}
	if got.FileName != rec.FileName || got.Trackpoints != 42 || got.SizeBytes != 2048 {
		t.Errorf("record = %+v, want %+v", got, rec)
	}
	if !got.ExportedAt.Equal(rec.ExportedAt) {
		t.Errorf("ExportedAt = %v, want %v", got.ExportedAt, rec.ExportedAt)
	}
}

func TestGetExportMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetExport(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if got != nil {
		t.Errorf("GetExport = %+v, want nil", got)
	}
}

// TestIsExported verifies the hash must match for an activity to count as exported.
func TestIsExported(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.MarkExported(ctx, testRecord("a1", "2023-05-01 07:00:00.000", "h1")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id, hash string
		want     bool
	}{
		{"a1", "h1", true},
		{"a1", "h2", false},
		{"b2", "h1", false},
	}
	for _, tt := range tests {
		got, err := db.IsExported(ctx, tt.id, tt.hash)
		if err != nil {
			t.Fatalf("IsExported(%s, %s): %v", tt.id, tt.hash, err)
		}
		if got != tt.want {
			t.Errorf("IsExported(%s, %s) = %v, want %v", tt.id, tt.hash, got, tt.want)
		}
	}

	// Re-export with a new hash replaces the row.
	if err := db.MarkExported(ctx, testRecord("a1", "2023-05-01 07:00:00.000", "h2")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.IsExported(ctx, "a1", "h2"); !ok {
		t.Error("expected a1/h2 after upsert")
	}
	if ok, _ := db.IsExported(ctx, "a1", "h1"); ok {
		t.Error("stale hash a1/h1 still present")
	}
}

func TestListExportsOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, r := range []models.ExportRecord{
		testRecord("old", "2023-01-01 06:00:00.000", "h"),
		testRecord("new", "2023-06-01 06:00:00.000", "h"),
		testRecord("mid", "2023-03-01 06:00:00.000", "h"),
	} {
		if err := db.MarkExported(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListExports(ctx, 0)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	want := []string{"new", "mid", "old"}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ActivityID != id {
			t.Errorf("all[%d] = %s, want %s", i, all[i].ActivityID, id)
		}
	}

	limited, err := db.ListExports(ctx, 2)
	if err != nil {
		t.Fatalf("ListExports(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	run := models.ConversionRun{
		ID:         uuid.New(),
		StartedAt:  time.Now().UTC(),
		Status:     RunStatusRunning,
		SourceFile: "com.samsung.shealth.exercise.20240101.csv",
	}
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	run.Status = RunStatusSuccess
	run.ActivitiesTotal = 5
	run.ActivitiesExported = 3
	run.ActivitiesSkipped = 1
	run.ActivitiesErrored = 1
	if err := db.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID {
		t.Errorf("ID = %v, want %v", got.ID, run.ID)
	}
	if got.Status != RunStatusSuccess {
		t.Errorf("Status = %q, want %q", got.Status, RunStatusSuccess)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt = nil, want set")
	}
	if got.ActivitiesExported != 3 || got.ActivitiesErrored != 1 {
		t.Errorf("counts = %+v", got)
	}
	if got.ErrorMessage != nil {
		t.Errorf("ErrorMessage = %q, want nil", *got.ErrorMessage)
	}
}
