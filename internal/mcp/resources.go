package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const recentLimit = 50

func (h *handlers) recentExports(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	recs, err := h.ds.ListExports(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, recs)
}

func (h *handlers) recentRuns(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	runs, err := h.ds.ListRuns(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, runs)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
