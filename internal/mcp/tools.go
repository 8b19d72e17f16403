package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/shealth2tcx/internal/models"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// filterExports keeps records matching sport (case-insensitive, empty
// matches all) whose activity started on or after since.
func filterExports(recs []models.ExportRecord, sport string, since time.Time) []models.ExportRecord {
	out := []models.ExportRecord{}
	for _, r := range recs {
		if sport != "" && !strings.EqualFold(r.Sport, sport) {
			continue
		}
		if !since.IsZero() {
			start, err := (models.ActivitySummary{StartTime: r.StartTime}).ParseStartTime()
			if err != nil || start.Before(since) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// --- Tool definitions ---

var toolListExports = mcp.NewTool("list_exports",
	mcp.WithDescription("List activities converted to TCX, newest first. Each entry has the activity id, sport, start time, trackpoint count and output file name."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of exports to return. Defaults to 50.")),
	mcp.WithString("sport", mcp.Description("Filter by TCX sport."), mcp.Enum("Running", "Biking", "Other")),
	mcp.WithString("since", mcp.Description("Only activities started on or after this date (ISO 8601 or YYYY-MM-DD).")),
)

var toolGetExport = mcp.NewTool("get_export",
	mcp.WithDescription("Get the export record of a single activity by its Samsung Health activity id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Activity id (datauuid)")),
)

var toolListRuns = mcp.NewTool("list_runs",
	mcp.WithDescription("List recent conversion runs with how many activities each exported, skipped and failed."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return. Defaults to 20.")),
)

// --- Tool handlers ---

func (h *handlers) listExports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var since time.Time
	if s := req.GetString("since", ""); s != "" {
		t, err := parseFlexTime(s)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		since = t
	}
	limit := req.GetInt("limit", 50)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	// Filters apply after the query, so fetch everything when filtering.
	fetch := limit
	sport := req.GetString("sport", "")
	if sport != "" || !since.IsZero() {
		fetch = 0
	}

	recs, err := h.ds.ListExports(ctx, fetch)
	if err != nil {
		h.log.Error("mcp list_exports", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	recs = filterExports(recs, sport, since)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"count":   len(recs),
		"exports": recs,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	rec, err := h.ds.GetExport(ctx, id)
	if err != nil {
		h.log.Error("mcp get_export", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if rec == nil {
		return mcp.NewToolResultError("no export for activity " + id), nil
	}

	result, err := mcp.NewToolResultJSON(rec)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	runs, err := h.ds.ListRuns(ctx, limit)
	if err != nil {
		h.log.Error("mcp list_runs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if runs == nil {
		runs = []models.ConversionRun{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
