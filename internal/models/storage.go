package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportRecord is a row of the exports table: one converted activity.
type ExportRecord struct {
	ActivityID   string    `json:"activity_id"`
	RunID        uuid.UUID `json:"run_id"`
	FileName     string    `json:"file_name"`
	ExerciseType string    `json:"exercise_type"`
	Sport        string    `json:"sport"`
	StartTime    string    `json:"start_time"`
	Trackpoints  int       `json:"trackpoints"`
	SizeBytes    int64     `json:"size_bytes"`
	Hash         string    `json:"hash"`
	ExportedAt   time.Time `json:"exported_at"`
}

// ConversionRun is a row of the conversion_runs table: one batch invocation.
type ConversionRun struct {
	ID                 uuid.UUID  `json:"id"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	Status             string     `json:"status"`
	SourceFile         string     `json:"source_file"`
	ActivitiesTotal    int        `json:"activities_total"`
	ActivitiesExported int        `json:"activities_exported"`
	ActivitiesSkipped  int        `json:"activities_skipped"`
	ActivitiesErrored  int        `json:"activities_errored"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
}
