package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/store"
)

const skeetColumns = `id, created_at, updated_at, deleted_at, post_id, book_id, genre_id`

func scanSkeet(scanner interface{ Scan(dest ...any) error }) (*domain.SavedSkeet, error) {
	var sk domain.SavedSkeet

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	err := scanner.Scan(
		&sk.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&sk.PostID,
		&sk.BookID,
		&sk.GenreID,
	)
	if err != nil {
		return nil, err
	}

	sk.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sk.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	sk.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	return &sk, nil
}

// CreateSavedSkeet inserts one linkage row. The referenced book and genre
// must both exist and not be soft-deleted at the transaction boundary;
// otherwise nothing is written and ErrNotFound is returned.
func (s *Store) CreateSavedSkeet(ctx context.Context, sk *domain.SavedSkeet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback()

	if err := requireLiveRow(ctx, tx, "books", sk.BookID); err != nil {
		return err
	}
	if err := requireLiveRow(ctx, tx, "genres", sk.GenreID); err != nil {
		return err
	}
	if err := insertSkeetTx(ctx, tx, sk); err != nil {
		return err
	}

	return mapError(tx.Commit())
}

// CreateBookWithSkeet inserts a new book and its first linkage as a single
// transaction. A title-key conflict rolls everything back and surfaces
// ErrAlreadyExists so the caller can refetch the winning book and link
// against it instead.
func (s *Store) CreateBookWithSkeet(ctx context.Context, b *domain.Book, sk *domain.SavedSkeet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback()

	if err := requireLiveRow(ctx, tx, "genres", sk.GenreID); err != nil {
		return err
	}
	if err := insertBookTx(ctx, tx, b); err != nil {
		return err
	}
	sk.BookID = b.ID
	if err := insertSkeetTx(ctx, tx, sk); err != nil {
		return err
	}

	return mapError(tx.Commit())
}

func insertSkeetTx(ctx context.Context, tx *sql.Tx, sk *domain.SavedSkeet) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO saved_skeets (id, created_at, updated_at, deleted_at, post_id, book_id, genre_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sk.ID,
		formatTime(sk.CreatedAt),
		formatTime(sk.UpdatedAt),
		nil,
		sk.PostID,
		sk.BookID,
		sk.GenreID,
	)
	return mapError(err)
}

// requireLiveRow verifies a row exists in table and is not soft-deleted.
func requireLiveRow(ctx context.Context, tx *sql.Tx, table, id string) error {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id = ? AND deleted_at IS NULL`, id).Scan(&n)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("%s row %s not found", table, id))
	}
	return nil
}

// GetSavedSkeetByPost retrieves the linkage for a post, if one exists.
func (s *Store) GetSavedSkeetByPost(ctx context.Context, postID string) (*domain.SavedSkeet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+skeetColumns+` FROM saved_skeets WHERE post_id = ? AND deleted_at IS NULL`, postID)

	sk, err := scanSkeet(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return sk, nil
}

// ListShelf returns every linkage joined with its book and genre,
// newest first.
func (s *Store) ListShelf(ctx context.Context) ([]*store.ShelfEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id, s.created_at, s.updated_at, s.deleted_at, s.post_id, s.book_id, s.genre_id,
			`+prefixedBookColumns("b")+`,
			g.id, g.created_at, g.updated_at, g.deleted_at, g.name, g.slug, g.description, g.priority, g.fallback
		FROM saved_skeets s
		JOIN books b ON b.id = s.book_id
		JOIN genres g ON g.id = s.genre_id
		WHERE s.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []*store.ShelfEntry
	for rows.Next() {
		entry, err := scanShelfEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for _, e := range entries {
		if e.Book.Aliases, err = s.bookAliases(ctx, e.Book.ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func scanShelfEntry(rows *sql.Rows) (*store.ShelfEntry, error) {
	var (
		sk domain.SavedSkeet
		b  domain.Book
		g  domain.Genre

		skCreated, skUpdated string
		skDeleted            sql.NullString
		bCreated, bUpdated   string
		bDeleted             sql.NullString
		bAuthor              sql.NullString
		gCreated, gUpdated   string
		gDeleted             sql.NullString
		gDescription         sql.NullString
		gFallback            int
	)

	err := rows.Scan(
		&sk.ID, &skCreated, &skUpdated, &skDeleted, &sk.PostID, &sk.BookID, &sk.GenreID,
		&b.ID, &bCreated, &bUpdated, &bDeleted, &b.Title, &b.TitleKey, &bAuthor,
		&g.ID, &gCreated, &gUpdated, &gDeleted, &g.Name, &g.Slug, &gDescription, &g.Priority, &gFallback,
	)
	if err != nil {
		return nil, err
	}

	if sk.CreatedAt, err = parseTime(skCreated); err != nil {
		return nil, err
	}
	if sk.UpdatedAt, err = parseTime(skUpdated); err != nil {
		return nil, err
	}
	if sk.DeletedAt, err = parseNullableTime(skDeleted); err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(bCreated); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(bUpdated); err != nil {
		return nil, err
	}
	if b.DeletedAt, err = parseNullableTime(bDeleted); err != nil {
		return nil, err
	}
	if bAuthor.Valid {
		b.Author = bAuthor.String
	}

	if g.CreatedAt, err = parseTime(gCreated); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(gUpdated); err != nil {
		return nil, err
	}
	if g.DeletedAt, err = parseNullableTime(gDeleted); err != nil {
		return nil, err
	}
	if gDescription.Valid {
		g.Description = gDescription.String
	}
	g.Fallback = gFallback != 0

	return &store.ShelfEntry{Skeet: &sk, Book: &b, Genre: &g}, nil
}
