package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("shealth2tcx", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Samsung Health to TCX converter. Lists activities that were exported as Garmin TCX files and the conversion runs that produced them."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListExports, Handler: h.listExports},
		server.ServerTool{Tool: toolGetExport, Handler: h.getExport},
		server.ServerTool{Tool: toolListRuns, Handler: h.listRuns},
	)

	s.AddResources(
		server.ServerResource{Resource: resExports, Handler: h.recentExports},
		server.ServerResource{Resource: resRuns, Handler: h.recentRuns},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resExports = mcp.NewResource(
	"shealth2tcx://exports",
	"Recent Exports",
	mcp.WithResourceDescription("The most recently started activities that were exported to TCX"),
	mcp.WithMIMEType("application/json"),
)

var resRuns = mcp.NewResource(
	"shealth2tcx://runs",
	"Conversion Runs",
	mcp.WithResourceDescription("Recent conversion runs with per-run activity counts"),
	mcp.WithMIMEType("application/json"),
)
