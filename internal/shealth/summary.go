// Package shealth reads Samsung Health data exports: the exercise summary CSV
// and the per-activity live_data / location_data JSON files.
package shealth

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// SummaryGlob matches the exercise summary CSV inside an export directory.
const SummaryGlob = "com.samsung.shealth.exercise.*.csv"

// ErrNoSummaryFile is returned when the export has no exercise summary CSV.
var ErrNoSummaryFile = errors.New("no exercise CSV found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FindSummaryFile returns the exercise summary CSV in dir. When several
// match, the lexically first is used.
func FindSummaryFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, SummaryGlob))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoSummaryFile, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// ParseSummaries reads an exercise summary CSV. The first line is export
// metadata and is skipped; the second is the header. Columns that are
// missing from a row read as empty strings.
func ParseSummaries(r io.Reader) ([]models.ActivitySummary, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		br.Discard(len(utf8BOM)) //nolint:errcheck
	}

	if _, err := br.ReadString('\n'); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading metadata line: %w", err)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	var summaries []models.ActivitySummary
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(summaries)+1, err)
		}

		row := make(map[string]string, len(models.SummaryFields))
		for _, field := range models.SummaryFields {
			i, ok := index[models.SummaryColumn(field)]
			if !ok || i >= len(rec) {
				continue
			}
			row[field] = rec[i]
		}
		summaries = append(summaries, models.SummaryFromRow(row))
	}
	return summaries, nil
}

// Export reads a Samsung Health export directory.
type Export struct {
	dir string
}

// NewExport returns a reader for the export rooted at dir.
func NewExport(dir string) *Export {
	return &Export{dir: dir}
}

// Dir returns the export root.
func (e *Export) Dir() string {
	return e.dir
}

// SummaryFile returns the path of the exercise summary CSV.
func (e *Export) SummaryFile() (string, error) {
	return FindSummaryFile(e.dir)
}

// Summaries reads every row of the exercise summary CSV.
func (e *Export) Summaries() ([]models.ActivitySummary, error) {
	path, err := e.SummaryFile()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	summaries, err := ParseSummaries(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return summaries, nil
}
