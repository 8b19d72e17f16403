// Package convert turns Samsung Health exercise activities into TCX files.
package convert

import (
	"fmt"
	"log/slog"

	"github.com/meltforce/shealth2tcx/internal/models"
	"github.com/meltforce/shealth2tcx/internal/tcx"
	"github.com/meltforce/shealth2tcx/internal/timeline"
)

// SummaryProvider yields the activity summaries of an export.
type SummaryProvider interface {
	SummaryFile() (string, error)
	Summaries() ([]models.ActivitySummary, error)
}

// AuxiliaryProvider yields per-activity sample data. A missing file must
// produce an empty slice, not an error.
type AuxiliaryProvider interface {
	LocationSamples(id string) ([]models.LocationSample, error)
	LiveSamples(id string) ([]models.LiveSample, error)
}

// Source is a complete export. *shealth.Export satisfies it.
type Source interface {
	SummaryProvider
	AuxiliaryProvider
}

// Result is the outcome of converting one activity. Exactly one of Document
// and Err is set.
type Result struct {
	ActivityID   string
	ExerciseType string
	FileName     string
	Sport        tcx.Sport
	Document     []byte
	Trackpoints  int
	Timeline     *timeline.Timeline
	Err          error
}

// FileName returns the output file name for an activity:
// {exercise_type}_{YYYY-MM-DD}_{activity_id}.tcx.
func FileName(s models.ActivitySummary) string {
	return fmt.Sprintf("%s_%s_%s.tcx", s.ExerciseType, s.Date(), s.ID)
}

// Converter builds TCX documents for the activities of one export.
type Converter struct {
	src     Source
	builder *tcx.Builder
	ledger  Ledger
	opts    Options
	log     *slog.Logger
}

// New creates a Converter. ledger may be nil, in which case nothing is
// recorded and every activity is written.
func New(src Source, builder *tcx.Builder, ledger Ledger, opts Options, log *slog.Logger) *Converter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.ExerciseTypes) == 0 {
		opts.ExerciseTypes = []string{models.ExerciseTypeRunning}
	}
	return &Converter{
		src:     src,
		builder: builder,
		ledger:  ledger,
		opts:    opts,
		log:     log,
	}
}

// ConvertActivity builds the document for a single activity entirely in
// memory. It performs no writes.
func (c *Converter) ConvertActivity(s models.ActivitySummary) Result {
	res := Result{
		ActivityID:   s.ID,
		ExerciseType: s.ExerciseType,
		FileName:     FileName(s),
		Sport:        tcx.SportFromExerciseType(s.ExerciseType),
	}

	lap, err := tcx.BuildLap(s)
	if err != nil {
		res.Err = fmt.Errorf("building lap: %w", err)
		return res
	}

	var (
		locations []models.LocationSample
		live      []models.LiveSample
	)
	if s.HasLocationData {
		if locations, err = c.src.LocationSamples(s.ID); err != nil {
			res.Err = fmt.Errorf("reading location data: %w", err)
			return res
		}
	}
	if s.HasLiveData {
		if live, err = c.src.LiveSamples(s.ID); err != nil {
			res.Err = fmt.Errorf("reading live data: %w", err)
			return res
		}
	}

	tl := timeline.Merge(locations, live)
	trackpoints := tcx.BuildTrackpoints(tl.Samples())

	doc := c.builder.BuildDocument(lap.StartTime, res.Sport, lap, trackpoints)
	data, err := tcx.Marshal(doc)
	if err != nil {
		res.Err = err
		return res
	}

	res.Document = data
	res.Trackpoints = len(trackpoints)
	res.Timeline = tl
	return res
}
