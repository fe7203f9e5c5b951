package sqlite

import (
	"context"
	"database/sql"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// postColumns is the ordered list of columns selected in post queries.
// Must match the scan order in scanPost.
const postColumns = `id, created_at, updated_at, deleted_at, handle, display_name, text, uri, like_count, posted_at`

func scanPost(scanner interface{ Scan(dest ...any) error }) (*domain.Post, error) {
	var p domain.Post

	var (
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
		handle      sql.NullString
		displayName sql.NullString
		postedAt    string
	)

	err := scanner.Scan(
		&p.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&handle,
		&displayName,
		&p.Text,
		&p.URI,
		&p.LikeCount,
		&postedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	p.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}
	p.PostedAt, err = parseTime(postedAt)
	if err != nil {
		return nil, err
	}

	if handle.Valid {
		p.Handle = handle.String
	}
	if displayName.Valid {
		p.DisplayName = displayName.String
	}

	return &p, nil
}

// CreatePost inserts a new post.
// Returns store.ErrAlreadyExists if a post with the same URI exists.
func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, created_at, updated_at, deleted_at, handle, display_name, text, uri, like_count, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		nil,
		nullString(p.Handle),
		nullString(p.DisplayName),
		p.Text,
		p.URI,
		p.LikeCount,
		formatTime(p.PostedAt),
	)
	return mapError(err)
}

// GetPost retrieves a post by ID.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ? AND deleted_at IS NULL`, id)

	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// GetPostByURI retrieves a post by its source URI.
func (s *Store) GetPostByURI(ctx context.Context, uri string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE uri = ? AND deleted_at IS NULL`, uri)

	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// ListPosts returns the most recently ingested posts, newest first.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE deleted_at IS NULL ORDER BY posted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return posts, nil
}
