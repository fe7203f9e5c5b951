package sqlite

import (
	"context"
	"database/sql"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// genreColumns is the ordered list of columns selected in genre queries.
// Must match the scan order in scanGenre.
const genreColumns = `id, created_at, updated_at, deleted_at, name, slug, description, priority, fallback`

// scanGenre scans a sql.Row (or sql.Rows via its Scan method) into a domain.Genre.
func scanGenre(scanner interface{ Scan(dest ...any) error }) (*domain.Genre, error) {
	var g domain.Genre

	var (
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
		description sql.NullString
		fallback    int
	)

	err := scanner.Scan(
		&g.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&g.Name,
		&g.Slug,
		&description,
		&g.Priority,
		&fallback,
	)
	if err != nil {
		return nil, err
	}

	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	g.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	g.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		g.Description = description.String
	}
	g.Fallback = fallback != 0

	return &g, nil
}

// CreateGenre inserts a new genre into the database.
// Returns store.ErrAlreadyExists if the genre ID or slug already exists.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO genres (
			id, created_at, updated_at, deleted_at, name, slug, description, priority, fallback
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
		nil,
		g.Name,
		g.Slug,
		nullString(g.Description),
		g.Priority,
		boolToInt(g.Fallback),
	)
	return mapError(err)
}

// GetGenre retrieves a genre by ID, excluding soft-deleted records.
// Returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE id = ? AND deleted_at IS NULL`, id)

	g, err := scanGenre(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return g, nil
}

// GetGenreBySlug retrieves a genre by slug, excluding soft-deleted records.
// Returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE slug = ? AND deleted_at IS NULL`, slug)

	g, err := scanGenre(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return g, nil
}

// ListGenres returns all non-deleted genres ordered by priority.
func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE deleted_at IS NULL ORDER BY priority ASC, slug ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var genres []*domain.Genre
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return genres, nil
}
