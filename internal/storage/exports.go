package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/shealth2tcx/internal/models"
)

const timeLayout = time.RFC3339Nano

// MarkExported records a converted activity, replacing any earlier record
// for the same activity id.
func (db *DB) MarkExported(ctx context.Context, rec models.ExportRecord) error {
	_, err := db.db.ExecContext(ctx,
		`INSERT INTO exports (activity_id, run_id, file_name, exercise_type, sport, start_time,
		 trackpoints, size_bytes, hash, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (activity_id) DO UPDATE SET
		 run_id = excluded.run_id, file_name = excluded.file_name,
		 exercise_type = excluded.exercise_type, sport = excluded.sport,
		 start_time = excluded.start_time, trackpoints = excluded.trackpoints,
		 size_bytes = excluded.size_bytes, hash = excluded.hash, exported_at = excluded.exported_at`,
		rec.ActivityID, rec.RunID.String(), rec.FileName, rec.ExerciseType, rec.Sport, rec.StartTime,
		rec.Trackpoints, rec.SizeBytes, rec.Hash, rec.ExportedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting export %s: %w", rec.ActivityID, err)
	}
	return nil
}

// IsExported reports whether the activity was already exported with the
// same document hash.
func (db *DB) IsExported(ctx context.Context, activityID, hash string) (bool, error) {
	var count int
	err := db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exports WHERE activity_id = ? AND hash = ?`,
		activityID, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking export %s: %w", activityID, err)
	}
	return count > 0, nil
}

// GetExport returns the record for an activity, or nil if it was never exported.
func (db *DB) GetExport(ctx context.Context, activityID string) (*models.ExportRecord, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT activity_id, run_id, file_name, exercise_type, sport, start_time,
		 trackpoints, size_bytes, hash, exported_at
		 FROM exports WHERE activity_id = ?`, activityID)

	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting export %s: %w", activityID, err)
	}
	return rec, nil
}

// ListExports returns exports ordered by activity start time, newest first.
// A limit <= 0 returns all rows.
func (db *DB) ListExports(ctx context.Context, limit int) ([]models.ExportRecord, error) {
	query := `SELECT activity_id, run_id, file_name, exercise_type, sport, start_time,
		 trackpoints, size_bytes, hash, exported_at
		 FROM exports ORDER BY start_time DESC, activity_id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer rows.Close()

	var result []models.ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*models.ExportRecord, error) {
	var (
		rec        models.ExportRecord
		runID      string
		exportedAt string
	)
	if err := s.Scan(&rec.ActivityID, &runID, &rec.FileName, &rec.ExerciseType, &rec.Sport,
		&rec.StartTime, &rec.Trackpoints, &rec.SizeBytes, &rec.Hash, &exportedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parsing run id %q: %w", runID, err)
	}
	rec.RunID = id
	if rec.ExportedAt, err = time.Parse(timeLayout, exportedAt); err != nil {
		return nil, fmt.Errorf("parsing exported_at %q: %w", exportedAt, err)
	}
	return &rec, nil
}
