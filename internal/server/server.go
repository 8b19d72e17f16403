package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/shealth2tcx/internal/models"
)

// ExportStore is the read side of the export ledger. *storage.DB satisfies it.
type ExportStore interface {
	ListExports(ctx context.Context, limit int) ([]models.ExportRecord, error)
	GetExport(ctx context.Context, activityID string) (*models.ExportRecord, error)
	ListRuns(ctx context.Context, limit int) ([]models.ConversionRun, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  ExportStore
	outDir string
	log    *slog.Logger
	apiKey string
	whois  WhoIsClient
	router chi.Router
}

// New creates a new Server with all routes configured. outDir is where the
// converter wrote the TCX files; apiKey may be empty to disable key checks.
func New(store ExportStore, outDir, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		outDir: outDir,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the local dev user to the
// tailnet peer reported by lc.
func (s *Server) SetTailscale(lc WhoIsClient) {
	s.whois = lc
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Get("/me", s.handleMe)
		r.Get("/exports", s.handleListExports)
		r.Get("/exports/{id}", s.handleGetExport)
		r.Get("/exports/{id}/tcx", s.handleDownloadTCX)
		r.Get("/runs", s.handleListRuns)
	})
}

func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois != nil {
			TailscaleIdentity(s.whois, s.log)(next).ServeHTTP(w, r)
			return
		}
		dev.ServeHTTP(w, r)
	})
}
