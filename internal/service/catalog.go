package service

import (
	"context"
	"log/slog"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/search"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// CatalogService answers read queries over books, genres, posts, and the
// shelf, and exposes title search over the index.
type CatalogService struct {
	store  store.Store
	index  *search.BookIndex
	logger *slog.Logger
}

// NewCatalogService creates the catalog query service.
func NewCatalogService(st store.Store, index *search.BookIndex, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{store: st, index: index, logger: logger}
}

// ListBooks returns every catalogued book.
func (s *CatalogService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// GetBook returns one book by ID.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.store.GetBook(ctx, id)
}

// ListGenres returns the taxonomy in priority order.
func (s *CatalogService) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	return s.store.ListGenres(ctx)
}

// ListPosts returns recently ingested posts.
func (s *CatalogService) ListPosts(ctx context.Context, limit int) ([]*domain.Post, error) {
	return s.store.ListPosts(ctx, limit)
}

// Shelf returns every linkage joined with its book and genre.
func (s *CatalogService) Shelf(ctx context.Context) ([]*store.ShelfEntry, error) {
	return s.store.ListShelf(ctx)
}

// SearchBooks runs a free-text title search over the index.
func (s *CatalogService) SearchBooks(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	return s.index.Candidates(ctx, query, limit)
}

// RebuildIndex reindexes every catalogued book. Called at startup so an
// in-memory index reflects the store.
func (s *CatalogService) RebuildIndex(ctx context.Context) error {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return err
	}
	if err := s.index.IndexBooks(books); err != nil {
		return err
	}
	s.logger.Info("title index rebuilt", "books", len(books))
	return nil
}
