package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExerciseTypeRunning is the Samsung Health exercise type code for running.
const ExerciseTypeRunning = "1002"

// ExerciseTypeCycling is the Samsung Health exercise type code for outdoor cycling.
const ExerciseTypeCycling = "11007"

// StartTimeLayouts are the layouts Samsung Health uses for the summary start_time column.
var StartTimeLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

// Decimal is a numeric export value kept in its exported text form: a summary
// CSV cell or a JSON number literal. Some values are echoed verbatim into the
// output document, so the original spelling is preserved rather than
// reformatted.
type Decimal string

// Present reports whether the field carries a usable value. Empty strings and
// zero values ("0", "0.0") count as absent.
func (d Decimal) Present() bool {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		return false
	}
	return true
}

// Empty reports whether the field is blank.
func (d Decimal) Empty() bool {
	return strings.TrimSpace(string(d)) == ""
}

// Float parses the field as a float64.
func (d Decimal) Float() (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(d)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing decimal %q: %w", string(d), err)
	}
	return f, nil
}

// Int parses the field as an integer, rejecting fractional spellings.
func (d Decimal) Int() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(d)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing integer %q: %w", string(d), err)
	}
	return n, nil
}

// String returns the raw text.
func (d Decimal) String() string {
	return strings.TrimSpace(string(d))
}

// ActivitySummary is one row of the exercise summary CSV.
type ActivitySummary struct {
	ID            string
	StartTime     string // "2006-01-02 15:04:05.000", as exported
	Duration      Decimal
	TotalCalories Decimal
	ExerciseType  string

	MeanHeartRate Decimal
	MaxHeartRate  Decimal
	MeanSpeed     Decimal
	MaxSpeed      Decimal
	MeanCadence   Decimal
	MaxCadence    Decimal
	Distance      Decimal

	HasLocationData bool
	HasLiveData     bool
}

// ParseStartTime parses StartTime. The export has no zone; values are UTC.
func (s ActivitySummary) ParseStartTime() (time.Time, error) {
	raw := strings.TrimSpace(s.StartTime)
	for _, layout := range StartTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse start time %q", s.StartTime)
}

// StartTimeISO returns the start time in the form used by Lap StartTime and
// Activity Id: spaces replaced by "T" and a trailing "Z".
func (s ActivitySummary) StartTimeISO() (string, error) {
	if _, err := s.ParseStartTime(); err != nil {
		return "", err
	}
	return strings.ReplaceAll(strings.TrimSpace(s.StartTime), " ", "T") + "Z", nil
}

// Date returns the first 10 characters of StartTime (YYYY-MM-DD).
func (s ActivitySummary) Date() string {
	raw := strings.TrimSpace(s.StartTime)
	if len(raw) < 10 {
		return raw
	}
	return raw[:10]
}

// LocationSample is a single GPS fix from a location_data JSON file.
// Timestamp is epoch milliseconds.
type LocationSample struct {
	Timestamp int64
	Latitude  *Decimal
	Longitude *Decimal
}

// HasPosition reports whether both coordinates are set.
func (l LocationSample) HasPosition() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// LiveSample is a single sensor sample from a live_data JSON file.
// Timestamp is epoch milliseconds.
type LiveSample struct {
	Timestamp int64
	HeartRate *int
	Cadence   *Decimal
}

// MergedSample is one entry of the merged timeline.
type MergedSample struct {
	Timestamp int64
	Time      string // UTC, "2006-01-02T15:04:05.000Z" with the millisecond part zeroed
	Latitude  *Decimal
	Longitude *Decimal
	HeartRate *int
	Cadence   *Decimal
}

// HasPosition reports whether both coordinates are set.
func (m MergedSample) HasPosition() bool {
	return m.Latitude != nil && m.Longitude != nil
}
