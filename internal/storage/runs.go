package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/shealth2tcx/internal/models"
)

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// InsertRun records the start of a conversion run.
func (db *DB) InsertRun(ctx context.Context, run models.ConversionRun) error {
	_, err := db.db.ExecContext(ctx,
		`INSERT INTO conversion_runs (id, started_at, status, source_file) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.StartedAt.UTC().Format(timeLayout), run.Status, run.SourceFile,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the outcome of a run (typically from "running" to "success" or "error").
func (db *DB) FinishRun(ctx context.Context, run models.ConversionRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	_, err := db.db.ExecContext(ctx,
		`UPDATE conversion_runs SET
		 finished_at = ?, status = ?, source_file = ?, activities_total = ?,
		 activities_exported = ?, activities_skipped = ?, activities_errored = ?, error_message = ?
		 WHERE id = ?`,
		finished.Format(timeLayout), run.Status, run.SourceFile, run.ActivitiesTotal,
		run.ActivitiesExported, run.ActivitiesSkipped, run.ActivitiesErrored, run.ErrorMessage,
		run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]models.ConversionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, source_file, activities_total,
		 activities_exported, activities_skipped, activities_errored, error_message
		 FROM conversion_runs
		 ORDER BY started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var result []models.ConversionRun
	for rows.Next() {
		var (
			r         models.ConversionRun
			id        string
			startedAt string
			finished  sql.NullString
			errMsg    sql.NullString
		)
		if err := rows.Scan(&id, &startedAt, &finished, &r.Status, &r.SourceFile,
			&r.ActivitiesTotal, &r.ActivitiesExported, &r.ActivitiesSkipped, &r.ActivitiesErrored,
			&errMsg); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing run id %q: %w", id, err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parsing finished_at %q: %w", finished.String, err)
			}
			r.FinishedAt = &t
		}
		if errMsg.Valid {
			msg := errMsg.String
			r.ErrorMessage = &msg
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
