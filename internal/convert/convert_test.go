package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/shealth2tcx/internal/models"
	"github.com/meltforce/shealth2tcx/internal/shealth"
	"github.com/meltforce/shealth2tcx/internal/storage"
	"github.com/meltforce/shealth2tcx/internal/tcx"
)

type fakeSource struct {
	summaries  []models.ActivitySummary
	summaryErr error
	locations  map[string][]models.LocationSample
	live       map[string][]models.LiveSample
	auxErr     error
	auxCalls   int
}

func (f *fakeSource) SummaryFile() (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return "/export/com.samsung.shealth.exercise.20240101.csv", nil
}

func (f *fakeSource) Summaries() ([]models.ActivitySummary, error) {
	return f.summaries, f.summaryErr
}

func (f *fakeSource) LocationSamples(id string) ([]models.LocationSample, error) {
	f.auxCalls++
	return f.locations[id], f.auxErr
}

func (f *fakeSource) LiveSamples(id string) ([]models.LiveSample, error) {
	f.auxCalls++
	return f.live[id], f.auxErr
}

func numPtr(s string) *models.Decimal { d := models.Decimal(s); return &d }
func intPtr(i int) *int           { return &i }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func summary(id, exerciseType, start string) models.ActivitySummary {
	return models.ActivitySummary{
		ID:              id,
		StartTime:       start,
		Duration:        "1800000",
		TotalCalories:   "300.5",
		ExerciseType:    exerciseType,
		MeanHeartRate:   "150",
		MaxHeartRate:    "170",
		Distance:        "5000",
		HasLocationData: true,
		HasLiveData:     true,
	}
}

func newSource() *fakeSource {
	return &fakeSource{
		summaries: []models.ActivitySummary{
			summary("run1", models.ExerciseTypeRunning, "2023-05-01 07:00:00.000"),
		},
		locations: map[string][]models.LocationSample{
			"run1": {
				{Timestamp: 1682924400000, Latitude: numPtr("52.5"), Longitude: numPtr("13.4")},
				{Timestamp: 1682924401000, Latitude: numPtr("52.6"), Longitude: numPtr("13.5")},
			},
		},
		live: map[string][]models.LiveSample{
			"run1": {
				{Timestamp: 1682924400000, HeartRate: intPtr(140)},
				{Timestamp: 1682924401200, Cadence: numPtr("160")},
			},
		},
	}
}

func newConverter(src Source, ledger Ledger, opts Options) *Converter {
	return New(src, tcx.NewBuilder(tcx.GarminNamespaces()), ledger, opts, discardLogger())
}

func TestFileName(t *testing.T) {
	s := summary("abc-123", "1002", "2023-05-01 07:00:00.000")
	if got, want := FileName(s), "1002_2023-05-01_abc-123.tcx"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestConvertActivity(t *testing.T) {
	src := newSource()
	c := newConverter(src, nil, Options{})

	res := c.ConvertActivity(src.summaries[0])
	if res.Err != nil {
		t.Fatalf("ConvertActivity: %v", res.Err)
	}
	if res.Sport != tcx.SportRunning {
		t.Errorf("Sport = %q, want Running", res.Sport)
	}
	if res.Trackpoints != 2 {
		t.Errorf("Trackpoints = %d, want 2", res.Trackpoints)
	}
	doc := string(res.Document)
	for _, want := range []string{
		`<Id>2023-05-01T07:00:00.000Z</Id>`,
		`<Lap StartTime="2023-05-01T07:00:00.000Z">`,
		`<Cadence>160</Cadence>`,
		`<LatitudeDegrees>52.6</LatitudeDegrees>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %s", want)
		}
	}
}

// TestConvertActivityNoAuxiliary verifies auxiliary data is not read when the
// summary does not reference it.
func TestConvertActivityNoAuxiliary(t *testing.T) {
	src := newSource()
	s := src.summaries[0]
	s.HasLocationData = false
	s.HasLiveData = false

	res := newConverter(src, nil, Options{}).ConvertActivity(s)
	if res.Err != nil {
		t.Fatalf("ConvertActivity: %v", res.Err)
	}
	if src.auxCalls != 0 {
		t.Errorf("auxiliary calls = %d, want 0", src.auxCalls)
	}
	if res.Trackpoints != 0 {
		t.Errorf("Trackpoints = %d, want 0", res.Trackpoints)
	}
	if strings.Contains(string(res.Document), "<Track>") {
		t.Error("document has Track without samples")
	}
}

func TestConvertActivityErrors(t *testing.T) {
	src := newSource()
	c := newConverter(src, nil, Options{})

	bad := src.summaries[0]
	bad.StartTime = "yesterday"
	if res := c.ConvertActivity(bad); res.Err == nil {
		t.Error("expected error for bad start time")
	}

	src.auxErr = errors.New("disk gone")
	if res := c.ConvertActivity(src.summaries[0]); res.Err == nil {
		t.Error("expected error for auxiliary read failure")
	} else if res.Document != nil {
		t.Error("Document set on failure")
	}
}

// TestRunIsolatesFailures verifies a failing activity does not stop the batch
// and that non-selected exercise types are filtered.
func TestRunIsolatesFailures(t *testing.T) {
	src := newSource()
	bad := summary("bad1", models.ExerciseTypeRunning, "not a time")
	bike := summary("bike1", models.ExerciseTypeCycling, "2023-05-02 08:00:00.000")
	src.summaries = append(src.summaries, bad, bike)

	out := t.TempDir()
	c := newConverter(src, nil, Options{OutDir: out, Workers: 2})
	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.ActivitiesTotal != 3 {
		t.Errorf("ActivitiesTotal = %d, want 3", stats.ActivitiesTotal)
	}
	if stats.ActivitiesFiltered != 1 {
		t.Errorf("ActivitiesFiltered = %d, want 1", stats.ActivitiesFiltered)
	}
	if stats.ActivitiesExported != 1 {
		t.Errorf("ActivitiesExported = %d, want 1", stats.ActivitiesExported)
	}
	if stats.ActivitiesErrored != 1 {
		t.Errorf("ActivitiesErrored = %d, want 1", stats.ActivitiesErrored)
	}
	if len(stats.FailedActivities) != 1 || stats.FailedActivities[0] != "bad1" {
		t.Errorf("FailedActivities = %v, want [bad1]", stats.FailedActivities)
	}

	if _, err := os.Stat(filepath.Join(out, "1002_2023-05-01_run1.tcx")); err != nil {
		t.Errorf("expected output file: %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want 1", len(entries))
	}
}

func TestRunExerciseTypes(t *testing.T) {
	src := newSource()
	src.summaries = append(src.summaries, summary("bike1", models.ExerciseTypeCycling, "2023-05-02 08:00:00.000"))

	out := t.TempDir()
	c := newConverter(src, nil, Options{
		OutDir:        out,
		ExerciseTypes: []string{models.ExerciseTypeRunning, models.ExerciseTypeCycling},
	})
	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ActivitiesExported != 2 {
		t.Errorf("ActivitiesExported = %d, want 2", stats.ActivitiesExported)
	}
	data, err := os.ReadFile(filepath.Join(out, "11007_2023-05-02_bike1.tcx"))
	if err != nil {
		t.Fatalf("reading cycling output: %v", err)
	}
	if !strings.Contains(string(data), `Sport="Biking"`) {
		t.Error("cycling output not marked Biking")
	}
}

func TestRunMissingSummary(t *testing.T) {
	src := &fakeSource{summaryErr: fmt.Errorf("%w in /nowhere", shealth.ErrNoSummaryFile)}
	_, err := newConverter(src, nil, Options{OutDir: t.TempDir()}).Run(context.Background())
	if !errors.Is(err, shealth.ErrNoSummaryFile) {
		t.Errorf("err = %v, want ErrNoSummaryFile", err)
	}
}

func TestRunDryRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	stats, err := newConverter(newSource(), nil, Options{OutDir: out, DryRun: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ActivitiesExported != 1 {
		t.Errorf("ActivitiesExported = %d, want 1", stats.ActivitiesExported)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("dry run created output dir (stat err = %v)", err)
	}
}

// TestRunLedgerSkipsUnchanged verifies a second run over the same export
// writes nothing new and records both runs.
func TestRunLedgerSkipsUnchanged(t *testing.T) {
	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer db.Close()

	out := t.TempDir()
	ctx := context.Background()

	first, err := newConverter(newSource(), db, Options{OutDir: out}).Run(ctx)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.ActivitiesExported != 1 {
		t.Fatalf("first ActivitiesExported = %d, want 1", first.ActivitiesExported)
	}

	rec, err := db.GetExport(ctx, "run1")
	if err != nil || rec == nil {
		t.Fatalf("GetExport = %v, %v", rec, err)
	}
	if rec.RunID != first.RunID {
		t.Errorf("RunID = %v, want %v", rec.RunID, first.RunID)
	}
	if rec.Trackpoints != 2 {
		t.Errorf("Trackpoints = %d, want 2", rec.Trackpoints)
	}

	second, err := newConverter(newSource(), db, Options{OutDir: out}).Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.ActivitiesUnchanged != 1 || second.ActivitiesExported != 0 {
		t.Errorf("second run = %+v, want 1 unchanged", second)
	}

	// A deleted output file is written again even though the ledger has it.
	if err := os.Remove(filepath.Join(out, rec.FileName)); err != nil {
		t.Fatal(err)
	}
	third, err := newConverter(newSource(), db, Options{OutDir: out}).Run(ctx)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if third.ActivitiesExported != 1 {
		t.Errorf("third ActivitiesExported = %d, want 1", third.ActivitiesExported)
	}

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	for _, r := range runs {
		if r.Status != storage.RunStatusSuccess {
			t.Errorf("run %s status = %q, want success", r.ID, r.Status)
		}
	}
}

func TestRunTimelineDump(t *testing.T) {
	out := t.TempDir()
	dump := filepath.Join(t.TempDir(), "timelines")
	_, err := newConverter(newSource(), nil, Options{OutDir: out, DumpDir: dump}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dump, "1002_2023-05-01_run1.parquet")); err != nil {
		t.Errorf("expected parquet dump: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newConverter(newSource(), nil, Options{OutDir: t.TempDir()}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tcx")

	if err := WriteFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" {
		t.Errorf("content = %q, want two", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (temp file leaked)", len(entries))
	}
}

func TestHashDocument(t *testing.T) {
	a := HashDocument([]byte("<x/>"))
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
	if a != HashDocument([]byte("<x/>")) {
		t.Error("hash not deterministic")
	}
	if a == HashDocument([]byte("<y/>")) {
		t.Error("different documents hash equal")
	}
}
