// Package api is the HTTP surface of the scoring service: a JSON API over
// one loaded model. The handlers translate requests into pipeline
// invocations and speak PipelineResult back; everything else in a
// response is decoration around that contract.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"transitvet/app"
	"transitvet/internal"
	"transitvet/ports"
)

// Server hosts the scoring API
type Server struct {
	router  *chi.Mux
	scoring *app.ScoringService
	reader  ports.TableReader
	runs    ports.RunRepository
	logger  *internal.Logger
}

// NewServer wires the scoring service and its collaborators into a
// routed handler. runs may be a no-op repository; the listing endpoint
// then serves an empty history.
func NewServer(scoring *app.ScoringService, reader ports.TableReader, runs ports.RunRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  chi.NewRouter(),
		scoring: scoring,
		reader:  reader,
		runs:    runs,
		logger:  logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the routed http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/predict", s.handlePredict)
	s.router.Post("/api/predict/batch", s.handlePredictBatch)
	s.router.Get("/api/reference", s.handleReference)
	s.router.Get("/api/runs", s.handleListRuns)
}
