package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/shealth2tcx/internal/models"
	"github.com/meltforce/shealth2tcx/internal/storage"
	"github.com/meltforce/shealth2tcx/internal/timeline"
	"golang.org/x/sync/errgroup"
)

// Options control a batch run.
type Options struct {
	OutDir        string
	ExerciseTypes []string
	Workers       int
	DumpDir       string // parquet timeline dumps; empty disables
	DryRun        bool
	Overwrite     bool
}

// Ledger records what has been exported. *storage.DB satisfies it.
type Ledger interface {
	IsExported(ctx context.Context, activityID, hash string) (bool, error)
	MarkExported(ctx context.Context, rec models.ExportRecord) error
	InsertRun(ctx context.Context, run models.ConversionRun) error
	FinishRun(ctx context.Context, run models.ConversionRun) error
}

// Stats tracks batch progress.
type Stats struct {
	RunID uuid.UUID

	ActivitiesTotal     int
	ActivitiesFiltered  int
	ActivitiesExported  int
	ActivitiesUnchanged int
	ActivitiesErrored   int

	TrackpointsWritten int
	BytesWritten       int64

	FailedActivities []string
}

// Run converts every activity of the export whose exercise type is
// selected. A missing summary file aborts the run; failures of individual
// activities are logged, counted and skipped.
func (c *Converter) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{RunID: uuid.New()}

	summaryFile, err := c.src.SummaryFile()
	if err != nil {
		return stats, err
	}
	summaries, err := c.src.Summaries()
	if err != nil {
		return stats, fmt.Errorf("reading summaries: %w", err)
	}
	c.log.Info("loaded summaries", "file", filepath.Base(summaryFile), "activities", len(summaries))

	if !c.opts.DryRun {
		if err := os.MkdirAll(c.opts.OutDir, 0o755); err != nil {
			return stats, fmt.Errorf("creating output dir %s: %w", c.opts.OutDir, err)
		}
		if c.opts.DumpDir != "" {
			if err := os.MkdirAll(c.opts.DumpDir, 0o755); err != nil {
				return stats, fmt.Errorf("creating dump dir %s: %w", c.opts.DumpDir, err)
			}
		}
	}

	run := models.ConversionRun{
		ID:         stats.RunID,
		StartedAt:  time.Now().UTC(),
		Status:     storage.RunStatusRunning,
		SourceFile: filepath.Base(summaryFile),
	}
	recording := c.ledger != nil && !c.opts.DryRun
	if recording {
		if err := c.ledger.InsertRun(ctx, run); err != nil {
			return stats, fmt.Errorf("recording run: %w", err)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for _, s := range summaries {
		stats.ActivitiesTotal++
		if !slices.Contains(c.opts.ExerciseTypes, s.ExerciseType) {
			stats.ActivitiesFiltered++
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := c.process(gctx, stats.RunID, s)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case out.err != nil:
				c.log.Warn("activity failed", "activity", s.ID, "error", out.err)
				stats.ActivitiesErrored++
				stats.FailedActivities = append(stats.FailedActivities, s.ID)
			case out.unchanged:
				stats.ActivitiesUnchanged++
			default:
				stats.ActivitiesExported++
				stats.TrackpointsWritten += out.trackpoints
				stats.BytesWritten += out.size
			}
			return nil
		})
	}
	waitErr := g.Wait()
	slices.Sort(stats.FailedActivities)

	if recording {
		run.Status = storage.RunStatusSuccess
		if waitErr != nil {
			run.Status = storage.RunStatusError
			msg := waitErr.Error()
			run.ErrorMessage = &msg
		}
		run.ActivitiesTotal = stats.ActivitiesTotal
		run.ActivitiesExported = stats.ActivitiesExported
		run.ActivitiesSkipped = stats.ActivitiesFiltered + stats.ActivitiesUnchanged
		run.ActivitiesErrored = stats.ActivitiesErrored
		// The parent context may already be cancelled; still record the outcome.
		if err := c.ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			c.log.Warn("recording run outcome failed", "run", run.ID, "error", err)
		}
	}

	if waitErr != nil {
		return stats, fmt.Errorf("conversion interrupted: %w", waitErr)
	}
	return stats, nil
}

type outcome struct {
	unchanged   bool
	trackpoints int
	size        int64
	err         error
}

// process converts one activity and writes it, consulting the ledger to skip
// documents that are already on disk unchanged.
func (c *Converter) process(ctx context.Context, runID uuid.UUID, s models.ActivitySummary) outcome {
	res := c.ConvertActivity(s)
	if res.Err != nil {
		return outcome{err: res.Err}
	}
	hash := HashDocument(res.Document)
	path := filepath.Join(c.opts.OutDir, res.FileName)

	if c.ledger != nil && !c.opts.Overwrite {
		done, err := c.ledger.IsExported(ctx, res.ActivityID, hash)
		if err != nil {
			return outcome{err: err}
		}
		if done && fileExists(path) {
			c.log.Debug("unchanged", "activity", res.ActivityID, "file", res.FileName)
			return outcome{unchanged: true}
		}
	}

	if c.opts.DryRun {
		c.log.Info("dry-run: would write", "activity", res.ActivityID, "file", res.FileName,
			"trackpoints", res.Trackpoints, "bytes", len(res.Document))
		return outcome{trackpoints: res.Trackpoints, size: int64(len(res.Document))}
	}

	if err := WriteFileAtomic(path, res.Document); err != nil {
		return outcome{err: err}
	}
	c.log.Info("exported", "activity", res.ActivityID, "file", res.FileName, "trackpoints", res.Trackpoints)

	if c.opts.DumpDir != "" {
		dump := filepath.Join(c.opts.DumpDir, strings.TrimSuffix(res.FileName, ".tcx")+".parquet")
		if err := timeline.WriteParquet(dump, res.Timeline); err != nil {
			c.log.Warn("timeline dump failed", "activity", res.ActivityID, "error", err)
		}
	}

	if c.ledger != nil {
		rec := models.ExportRecord{
			ActivityID:   res.ActivityID,
			RunID:        runID,
			FileName:     res.FileName,
			ExerciseType: res.ExerciseType,
			Sport:        string(res.Sport),
			StartTime:    s.StartTime,
			Trackpoints:  res.Trackpoints,
			SizeBytes:    int64(len(res.Document)),
			Hash:         hash,
			ExportedAt:   time.Now().UTC(),
		}
		if err := c.ledger.MarkExported(ctx, rec); err != nil {
			return outcome{err: err}
		}
	}

	return outcome{trackpoints: res.Trackpoints, size: int64(len(res.Document))}
}

// HashDocument computes the SHA-256 hash of a serialized document.
func HashDocument(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never see a partial document.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
