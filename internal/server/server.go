// Package server exposes content generation and stored content over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/p-n-ai/koulutus-bot/internal/content"
	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/generation"
)

// UserIDHeader carries the caller identity set by the auth proxy.
const UserIDHeader = "X-User-ID"

const (
	maxBodyBytes = 2 << 20
	readyTimeout = 2 * time.Second
)

// HealthChecker is anything /readyz should ping, such as the database or
// the cache.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the server.
type Config struct {
	Generator  *generation.Service
	Repository content.Repository
	Ledger     credits.Ledger
	Checks     map[string]HealthChecker
}

// Server routes HTTP requests to the generation service and the content
// repository.
type Server struct {
	gen     *generation.Service
	repo    content.Repository
	ledger  credits.Ledger
	checks  map[string]HealthChecker
	schemas schemaSet
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Generator == nil || cfg.Repository == nil || cfg.Ledger == nil {
		return nil, fmt.Errorf("generator, repository and ledger are required")
	}
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	return &Server{
		gen:     cfg.Generator,
		repo:    cfg.Repository,
		ledger:  cfg.Ledger,
		checks:  cfg.Checks,
		schemas: schemas,
	}, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/education/content-types", s.handleContentTypes)
	mux.HandleFunc("POST /api/generate-educational-content", s.withUser(s.handleGenerateSSE))
	mux.HandleFunc("GET /api/generate-educational-content/ws", s.withUser(s.handleGenerateWS))
	mux.HandleFunc("POST /api/education/parse", s.handleParse)

	mux.HandleFunc("GET /api/education/content", s.withUser(s.handleListContent))
	mux.HandleFunc("GET /api/education/content/{id}", s.withUser(s.handleGetContent))
	mux.HandleFunc("POST /api/education/content/{id}/grade", s.withUser(s.handleGrade))
	mux.HandleFunc("GET /api/education/content/{id}/export.xlsx", s.withUser(s.handleExport))
	mux.HandleFunc("PUT /api/education/content/{id}/sharing", s.withUser(s.handleSharing))
	mux.HandleFunc("POST /api/education/save-content", s.withUser(s.handleSaveContent))
	mux.HandleFunc("GET /api/education/credits", s.withUser(s.handleCredits))
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
