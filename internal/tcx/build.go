package tcx

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// Sport is the Activity Sport attribute.
type Sport string

// Sports written for the supported exercise types.
const (
	SportRunning Sport = "Running"
	SportBiking  Sport = "Biking"
	SportOther   Sport = "Other"
)

// SportFromExerciseType maps a Samsung Health exercise type code to a TCX sport.
func SportFromExerciseType(code string) Sport {
	switch code {
	case models.ExerciseTypeRunning:
		return SportRunning
	case models.ExerciseTypeCycling:
		return SportBiking
	default:
		return SportOther
	}
}

const (
	intensityActive     = "Active"
	triggerMethodManual = "Manual"
)

// BuildLap builds the single lap of an activity from its summary row.
//
// Duration is converted from milliseconds to seconds without rounding.
// Calories and heart rates are truncated to whole numbers. Heart rate, speed
// and cadence are included only when non-empty and non-zero; speed and
// cadence are echoed verbatim into the ns3:LX extension block, which is
// omitted when neither is present.
func BuildLap(s models.ActivitySummary) (Lap, error) {
	start, err := s.StartTimeISO()
	if err != nil {
		return Lap{}, err
	}

	lap := Lap{
		StartTime:     start,
		Intensity:     intensityActive,
		TriggerMethod: triggerMethodManual,
	}

	if !s.Duration.Empty() {
		ms, err := s.Duration.Int()
		if err != nil {
			return Lap{}, fmt.Errorf("duration: %w", err)
		}
		secs := Number(float64(ms) / 1000)
		lap.TotalTimeSeconds = &secs
	}

	if !s.Distance.Empty() {
		lap.DistanceMeters = s.Distance.String()
	}

	if !s.TotalCalories.Empty() {
		f, err := s.TotalCalories.Float()
		if err != nil {
			return Lap{}, fmt.Errorf("calories: %w", err)
		}
		kcal := int(f)
		lap.Calories = &kcal
	}

	if lap.AverageHeartRateBpm, err = heartRate(s.MeanHeartRate); err != nil {
		return Lap{}, fmt.Errorf("mean heart rate: %w", err)
	}
	if lap.MaximumHeartRateBpm, err = heartRate(s.MaxHeartRate); err != nil {
		return Lap{}, fmt.Errorf("max heart rate: %w", err)
	}

	var ext LapExtension
	if s.MeanSpeed.Present() {
		ext.AvgSpeed = s.MeanSpeed.String()
	}
	if s.MeanCadence.Present() {
		ext.AvgRunCadence = s.MeanCadence.String()
	}
	if ext.AvgSpeed != "" || ext.AvgRunCadence != "" {
		lap.Extensions = &LapExtensions{LX: ext}
	}

	return lap, nil
}

func heartRate(d models.Decimal) (*HeartRateBpm, error) {
	if !d.Present() {
		return nil, nil
	}
	f, err := d.Float()
	if err != nil {
		return nil, err
	}
	return &HeartRateBpm{Value: int(f)}, nil
}

// BuildTrackpoint converts a merged sample to a trackpoint. It returns nil
// when the only field present would be the time.
func BuildTrackpoint(s models.MergedSample) *Trackpoint {
	tp := &Trackpoint{Time: s.Time}
	fields := 1

	if s.HasPosition() {
		tp.Position = &Position{
			LatitudeDegrees:  LiteralOf(*s.Latitude),
			LongitudeDegrees: LiteralOf(*s.Longitude),
		}
		fields++
	}
	if s.HeartRate != nil {
		tp.HeartRateBpm = &HeartRateBpm{Value: *s.HeartRate}
		fields++
	}
	if s.Cadence != nil {
		c := LiteralOf(*s.Cadence)
		tp.Cadence = &c
		fields++
	}

	if fields < 2 {
		return nil
	}
	return tp
}

// BuildTrackpoints converts merged samples in order, dropping nil trackpoints.
func BuildTrackpoints(samples []models.MergedSample) []*Trackpoint {
	var out []*Trackpoint
	for _, s := range samples {
		if tp := BuildTrackpoint(s); tp != nil {
			out = append(out, tp)
		}
	}
	return out
}

// Builder assembles documents against a fixed namespace table.
type Builder struct {
	ns *Namespaces
}

// NewBuilder creates a Builder. ns is shared, not copied.
func NewBuilder(ns *Namespaces) *Builder {
	return &Builder{ns: ns}
}

// BuildDocument assembles a document holding one activity with one lap.
// Nil trackpoints are skipped; the Track element is attached to the lap only
// when at least one trackpoint remains.
func (b *Builder) BuildDocument(activityID string, sport Sport, lap Lap, trackpoints []*Trackpoint) *TrainingCenterDatabase {
	var track Track
	for _, tp := range trackpoints {
		if tp != nil {
			track.Trackpoints = append(track.Trackpoints, tp)
		}
	}
	lap.Track = nil
	if len(track.Trackpoints) > 0 {
		lap.Track = &track
	}

	return &TrainingCenterDatabase{
		Xmlns:          b.ns.Default,
		XmlnsNs2:       b.ns.UserProfile,
		XmlnsNs3:       b.ns.ActivityExtension,
		XmlnsNs4:       b.ns.ProfileExtension,
		XmlnsNs5:       b.ns.ActivityGoals,
		XmlnsXsi:       b.ns.SchemaInstance,
		SchemaLocation: b.ns.SchemaLocation,
		Version:        SchemaVersion,
		Activities: Activities{
			Activity: []Activity{{
				Sport: sport,
				ID:    activityID,
				Lap:   lap,
			}},
		},
	}
}

// Marshal serializes a document as indented UTF-8 XML with a declaration.
func Marshal(doc *TrainingCenterDatabase) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding tcx: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
