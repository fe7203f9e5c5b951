// Package store defines the persistence capability interfaces the pipeline
// consumes, along with the sentinel errors all backends must return. The
// core never manages connections or migrations; it only calls these.
package store

import (
	"context"

	"github.com/bookskyapp/booksky-server/internal/domain"
)

// BookCatalog provides lookup and conditional-write access to canonical books.
type BookCatalog interface {
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	// GetBookByTitleKey looks up a book by its normalized title key.
	GetBookByTitleKey(ctx context.Context, key string) (*domain.Book, error)
	// GetBookByAlias looks up a book by any of its known alias keys.
	GetBookByAlias(ctx context.Context, alias string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	// CreateBook inserts a new book. Returns ErrAlreadyExists if the title
	// key is already taken; callers must treat that as "refetch and reuse",
	// never as a duplicate insert opportunity.
	CreateBook(ctx context.Context, b *domain.Book) error
	// AddBookAlias records an alternate title rendering for a book.
	// Adding an alias that already exists is a no-op.
	AddBookAlias(ctx context.Context, bookID, alias string) error
}

// GenreCatalog provides access to the fixed genre taxonomy.
// The pipeline only reads it; CreateGenre exists for seeding.
type GenreCatalog interface {
	GetGenre(ctx context.Context, id string) (*domain.Genre, error)
	GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error)
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	CreateGenre(ctx context.Context, g *domain.Genre) error
}

// PostLog records ingested posts.
type PostLog interface {
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	GetPostByURI(ctx context.Context, uri string) (*domain.Post, error)
	CreatePost(ctx context.Context, p *domain.Post) error
	ListPosts(ctx context.Context, limit int) ([]*domain.Post, error)
}

// SkeetLinker persists the post-book-genre linkage records.
type SkeetLinker interface {
	// CreateSavedSkeet appends one linkage row. The referenced book and
	// genre must exist and not be soft-deleted at the transaction boundary,
	// otherwise ErrNotFound is returned and nothing is written.
	CreateSavedSkeet(ctx context.Context, s *domain.SavedSkeet) error
	// CreateBookWithSkeet inserts a new book and its first linkage as one
	// transaction. On a title-key conflict the whole transaction rolls back
	// and ErrAlreadyExists is returned; no partial state remains.
	CreateBookWithSkeet(ctx context.Context, b *domain.Book, s *domain.SavedSkeet) error
	GetSavedSkeetByPost(ctx context.Context, postID string) (*domain.SavedSkeet, error)
	// ListShelf returns all linkages joined with their book and genre.
	ListShelf(ctx context.Context) ([]*ShelfEntry, error)
}

// ShelfEntry is a read model joining a linkage with its book and genre.
type ShelfEntry struct {
	Skeet *domain.SavedSkeet `json:"skeet"`
	Book  *domain.Book       `json:"book"`
	Genre *domain.Genre      `json:"genre"`
}

// Store is the full persistence surface.
type Store interface {
	BookCatalog
	GenreCatalog
	PostLog
	SkeetLinker
	Close() error
}
