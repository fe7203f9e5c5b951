// Package api provides the HTTP API server and handlers for the Booksky server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookskyapp/booksky-server/internal/http/response"
	"github.com/bookskyapp/booksky-server/internal/ratelimit"
	"github.com/bookskyapp/booksky-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ingestService  *service.IngestService
	catalogService *service.CatalogService
	ingestLimiter  *ratelimit.KeyedRateLimiter
	router         *chi.Mux
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(ingestService *service.IngestService, catalogService *service.CatalogService, ingestLimiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		ingestService:  ingestService,
		catalogService: catalogService,
		ingestLimiter:  ingestLimiter,
		router:         chi.NewRouter(),
		logger:         logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Ingestion (rate limited per client).
		r.Route("/skeets", func(r chi.Router) {
			r.With(RateLimitMiddleware(s.ingestLimiter, s.logger)).
				Post("/classify", s.handleClassifySkeet)
			r.With(RateLimitMiddleware(s.ingestLimiter, s.logger)).
				Post("/ingest", s.handleIngestBatch)
			r.Get("/", s.handleListPosts)
		})

		// Catalog reads.
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
		})
		r.Get("/genres", s.handleListGenres)
		r.Get("/shelf", s.handleGetShelf)
		r.Get("/search", s.handleSearchBooks)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
