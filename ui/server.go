package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gofinemap/adapters/rng"
	"gofinemap/app"
	"gofinemap/internal"
	"gofinemap/ports"
)

// Server exposes the fine-mapping service over HTTP
type Server struct {
	router     *chi.Mux
	fitService *app.FitService
	rng        ports.RNGPort
	logger     *internal.Logger
}

// Config holds server configuration
type Config struct {
	Port string
}

// NewServer creates the API server around a fit service
func NewServer(fitService *app.FitService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	s := &Server{
		router:     chi.NewRouter(),
		fitService: fitService,
		rng:        rng.NewAdapter(),
		logger:     logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/fits", s.handleCreateFit)
		r.Post("/fits/demo", s.handleDemoFit)
		r.Get("/fits", s.handleListFits)
		r.Get("/fits/{id}", s.handleGetFit)
		r.Get("/fits/{id}/summary", s.handleFitSummary)
		r.Get("/fits/{id}/report", s.handleFitReport)
		r.Get("/fits/{id}/export", s.handleFitExport)
	})
}

// Start runs the HTTP server on the configured port
func (s *Server) Start(cfg Config) error {
	addr := ":" + cfg.Port
	s.logger.Info("API server listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router exposes the underlying handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
