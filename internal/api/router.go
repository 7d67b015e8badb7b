package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/oselle/lookbook-api/internal/api/middleware"
	"github.com/oselle/lookbook-api/internal/api/shared"
)

// RouterConfig wires the router's handlers and policies.
type RouterConfig struct {
	Service GenerationService
	Auth    *middleware.APIKeyAuth

	// FileDir, when set, is served under /files/ for the local storage
	// backend.
	FileDir string

	Logger *slog.Logger
}

// NewRouter builds the HTTP routing tree. Health and file serving are open;
// everything under /api/v1 requires an API key.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithJSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.FileDir != "" {
		fs := http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.FileDir)))
		r.Get("/files/*", fs.ServeHTTP)
	}

	generate := NewGenerateHandler(cfg.Service, cfg.Logger)
	status := NewStatusHandler(cfg.Service, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Auth.Authenticate)

		r.Post("/generate", generate.Generate)
		r.Get("/generate/{id}", status.Status)
		r.Get("/queue/status", status.QueueStatus)
	})

	return r
}
