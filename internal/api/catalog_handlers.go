package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookskyapp/booksky-server/internal/http/response"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// handleListBooks returns all catalogued books.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	books, err := s.catalogService.ListBooks(ctx)
	if err != nil {
		s.logger.Error("Failed to list books", "error", err)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, books, s.logger)
}

// handleGetBook returns a single book by ID.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, err := s.catalogService.GetBook(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			response.NotFound(w, "Book not found", s.logger)
			return
		}
		s.logger.Error("Failed to get book", "error", err, "id", id)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleListGenres returns the genre taxonomy in priority order.
func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	genres, err := s.catalogService.ListGenres(ctx)
	if err != nil {
		s.logger.Error("Failed to list genres", "error", err)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, genres, s.logger)
}

// handleGetShelf returns every linked skeet joined with its book and genre.
func (s *Server) handleGetShelf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shelf, err := s.catalogService.Shelf(ctx)
	if err != nil {
		s.logger.Error("Failed to load shelf", "error", err)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, shelf, s.logger)
}

// handleSearchBooks runs a free-text title search.
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "Query parameter 'q' is required", s.logger)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	candidates, err := s.catalogService.SearchBooks(ctx, query, limit)
	if err != nil {
		s.logger.Error("Failed to search books", "error", err, "query", query)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, candidates, s.logger)
}
