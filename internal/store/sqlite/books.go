package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, deleted_at, title, title_key, author`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Aliases are loaded separately.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
		author    sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&b.Title,
		&b.TitleKey,
		&author,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	b.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	if author.Valid {
		b.Author = author.String
	}

	return &b, nil
}

// CreateBook inserts a new book with its aliases.
// Returns store.ErrAlreadyExists if the title key is already taken.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback()

	if err := insertBookTx(ctx, tx, b); err != nil {
		return err
	}

	return mapError(tx.Commit())
}

// insertBookTx inserts a book row plus alias rows inside an open transaction.
func insertBookTx(ctx context.Context, tx *sql.Tx, b *domain.Book) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO books (id, created_at, updated_at, deleted_at, title, title_key, author)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
		nil,
		b.Title,
		b.TitleKey,
		nullString(b.Author),
	)
	if err != nil {
		return mapError(err)
	}

	for _, alias := range b.Aliases {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO book_aliases (alias, book_id) VALUES (?, ?)`,
			alias, b.ID,
		); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// GetBook retrieves a book by ID, excluding soft-deleted records.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND deleted_at IS NULL`, id)
	return s.finishBook(ctx, row)
}

// GetBookByTitleKey retrieves a book by its normalized title key.
func (s *Store) GetBookByTitleKey(ctx context.Context, key string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title_key = ? AND deleted_at IS NULL`, key)
	return s.finishBook(ctx, row)
}

// GetBookByAlias retrieves a book by one of its alias keys.
func (s *Store) GetBookByAlias(ctx context.Context, alias string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+prefixedBookColumns("b")+`
		FROM books b
		JOIN book_aliases a ON a.book_id = b.id
		WHERE a.alias = ? AND b.deleted_at IS NULL`, alias)
	return s.finishBook(ctx, row)
}

func (s *Store) finishBook(ctx context.Context, row *sql.Row) (*domain.Book, error) {
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	if b.Aliases, err = s.bookAliases(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns all non-deleted books ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE deleted_at IS NULL ORDER BY title_key ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for _, b := range books {
		if b.Aliases, err = s.bookAliases(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return books, nil
}

// AddBookAlias records an alternate title rendering for a book.
// Re-adding a known alias is a no-op.
func (s *Store) AddBookAlias(ctx context.Context, bookID, alias string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO book_aliases (alias, book_id)
		SELECT ?, id FROM books WHERE id = ? AND deleted_at IS NULL`,
		alias, bookID)
	if err != nil {
		return mapError(err)
	}

	// Distinguish "already there" (fine) from "no such book".
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM book_aliases WHERE alias = ?`, alias).Scan(&exists)
		if err != nil {
			return mapError(err)
		}
		if exists == 0 {
			return store.ErrNotFound.WithMessage(fmt.Sprintf("book %s not found", bookID))
		}
	}
	return nil
}

// bookAliases loads all alias keys for a book.
func (s *Store) bookAliases(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT alias FROM book_aliases WHERE book_id = ? ORDER BY alias ASC`, bookID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// prefixedBookColumns qualifies bookColumns with a table alias for joins.
func prefixedBookColumns(prefix string) string {
	return prefix + ".id, " + prefix + ".created_at, " + prefix + ".updated_at, " +
		prefix + ".deleted_at, " + prefix + ".title, " + prefix + ".title_key, " + prefix + ".author"
}
