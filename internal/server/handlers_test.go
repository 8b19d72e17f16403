package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/shealth2tcx/internal/models"
)

type fakeStore struct {
	exports []models.ExportRecord
	runs    []models.ConversionRun
	limit   int
}

func (f *fakeStore) ListExports(ctx context.Context, limit int) ([]models.ExportRecord, error) {
	f.limit = limit
	return f.exports, nil
}

func (f *fakeStore) GetExport(ctx context.Context, id string) (*models.ExportRecord, error) {
	for i := range f.exports {
		if f.exports[i].ActivityID == id {
			return &f.exports[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]models.ConversionRun, error) {
	return f.runs, nil
}

func newTestServer(t *testing.T, apiKey string) (*Server, *fakeStore, string) {
	t.Helper()
	out := t.TempDir()
	store := &fakeStore{
		exports: []models.ExportRecord{{
			ActivityID:   "a1",
			RunID:        uuid.New(),
			FileName:     "1002_2023-05-01_a1.tcx",
			ExerciseType: "1002",
			Sport:        "Running",
			StartTime:    "2023-05-01 07:00:00.000",
			Trackpoints:  3,
			ExportedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
		runs: []models.ConversionRun{{ID: uuid.New(), Status: "success"}},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, out, apiKey, log), store, out
}

func do(s *Server, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale client is configured.
func TestHandleMeDefault(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(s, "/api/v1/me", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

func TestListExports(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	rec := do(s, "/api/v1/exports?limit=5", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []models.ExportRecord
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 1 || got[0].ActivityID != "a1" {
		t.Errorf("exports = %+v, want [a1]", got)
	}
	if store.limit != 5 {
		t.Errorf("limit = %d, want 5", store.limit)
	}
}

func TestListExportsEmpty(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	store.exports = nil
	rec := do(s, "/api/v1/exports", nil)
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListExportsBadLimit(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	if rec := do(s, "/api/v1/exports?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetExport(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	rec := do(s, "/api/v1/exports/a1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.ExportRecord
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.FileName != "1002_2023-05-01_a1.tcx" {
		t.Errorf("file_name = %q", got.FileName)
	}

	if rec := do(s, "/api/v1/exports/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}
}

// TestDownloadTCX verifies the file is served from the output dir, and that
// a ledger entry whose file was deleted reports 410.
func TestDownloadTCX(t *testing.T) {
	s, _, out := newTestServer(t, "")

	if rec := do(s, "/api/v1/exports/a1/tcx", nil); rec.Code != http.StatusGone {
		t.Errorf("before write: status = %d, want 410", rec.Code)
	}

	body := `<?xml version="1.0" encoding="UTF-8"?>` + "\n<TrainingCenterDatabase/>\n"
	if err := os.WriteFile(filepath.Join(out, "1002_2023-05-01_a1.tcx"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := do(s, "/api/v1/exports/a1/tcx", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != tcxContentType {
		t.Errorf("Content-Type = %q, want %q", ct, tcxContentType)
	}
	if rec.Body.String() != body {
		t.Errorf("body = %q, want %q", rec.Body.String(), body)
	}
}

func TestDownloadTCXRejectsPath(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	store.exports[0].FileName = "../etc/passwd"
	if rec := do(s, "/api/v1/exports/a1/tcx", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(s, "/api/v1/runs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var runs []models.ConversionRun
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "success" {
		t.Errorf("runs = %+v", runs)
	}
}

// TestAPIKeyRequired verifies the API is guarded when a key is configured.
func TestAPIKeyRequired(t *testing.T) {
	s, _, _ := newTestServer(t, "k1")

	if rec := do(s, "/api/v1/exports", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
	if rec := do(s, "/api/v1/exports", map[string]string{"X-API-Key": "k1"}); rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}
}
