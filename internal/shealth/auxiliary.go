package shealth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// AuxiliaryDir is the export subdirectory holding per-activity JSON files,
// bucketed by the first character of the activity id.
const AuxiliaryDir = "jsons/com.samsung.shealth.exercise"

// findJSON returns the first file matching {id}*.{suffix}.json in the
// activity's bucket, or "" when there is none.
func (e *Export) findJSON(id, suffix string) (string, error) {
	if id == "" {
		return "", nil
	}
	base := filepath.Join(e.dir, filepath.FromSlash(AuxiliaryDir), id[:1])
	if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
		return "", nil
	}
	matches, err := filepath.Glob(filepath.Join(base, id+"*."+suffix+".json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

func readJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// LocationSamples returns the GPS fixes recorded for an activity. A missing
// file yields an empty slice and no error.
func (e *Export) LocationSamples(id string) ([]models.LocationSample, error) {
	path, err := e.findJSON(id, models.LocationDataSuffix)
	if err != nil || path == "" {
		return nil, err
	}
	records, err := readJSON[models.LocationDataRecord](path)
	if err != nil {
		return nil, err
	}
	samples := make([]models.LocationSample, len(records))
	for i, r := range records {
		samples[i] = r.Sample()
	}
	return samples, nil
}

// LiveSamples returns the live sensor samples recorded for an activity. A
// missing file yields an empty slice and no error.
func (e *Export) LiveSamples(id string) ([]models.LiveSample, error) {
	path, err := e.findJSON(id, models.LiveDataSuffix)
	if err != nil || path == "" {
		return nil, err
	}
	records, err := readJSON[models.LiveDataRecord](path)
	if err != nil {
		return nil, err
	}
	samples := make([]models.LiveSample, len(records))
	for i, r := range records {
		samples[i] = r.Sample()
	}
	return samples, nil
}
