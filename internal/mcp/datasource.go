package mcp

import (
	"context"

	"github.com/meltforce/shealth2tcx/internal/models"
	"github.com/meltforce/shealth2tcx/internal/storage"
)

// DataSource abstracts the export ledger for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExports(ctx context.Context, limit int) ([]models.ExportRecord, error)
	GetExport(ctx context.Context, activityID string) (*models.ExportRecord, error)
	ListRuns(ctx context.Context, limit int) ([]models.ConversionRun, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
