package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// seedLinkFixtures creates one post, one book, and one genre for linkage tests.
func seedLinkFixtures(t *testing.T, s *Store) (*domain.Post, *domain.Book, *domain.Genre) {
	t.Helper()
	ctx := context.Background()

	p := newTestPost("at://did:plc:abc/app.bsky.feed.post/fix", "reading something")
	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	b := newTestBook("Project Hail Mary", "project hail mary")
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	g := newTestGenre("Science Fiction", "science-fiction", 1)
	if err := s.CreateGenre(ctx, g); err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}
	return p, b, g
}

func TestCreateSavedSkeet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, b, g := seedLinkFixtures(t, s)

	sk := newTestSkeet(p.ID, b.ID, g.ID)
	if err := s.CreateSavedSkeet(ctx, sk); err != nil {
		t.Fatalf("CreateSavedSkeet: %v", err)
	}

	got, err := s.GetSavedSkeetByPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetSavedSkeetByPost: %v", err)
	}
	if got.BookID != b.ID || got.GenreID != g.ID {
		t.Errorf("linkage = %s/%s, want %s/%s", got.BookID, got.GenreID, b.ID, g.ID)
	}
}

func TestCreateSavedSkeetMissingBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, _, g := seedLinkFixtures(t, s)

	sk := newTestSkeet(p.ID, "book-missing", g.ID)
	err := s.CreateSavedSkeet(ctx, sk)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing book, got %v", err)
	}

	// Nothing was written.
	if _, err := s.GetSavedSkeetByPost(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no linkage row, got %v", err)
	}
}

func TestCreateSavedSkeetMissingGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, b, _ := seedLinkFixtures(t, s)

	sk := newTestSkeet(p.ID, b.ID, "genre-missing")
	err := s.CreateSavedSkeet(ctx, sk)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing genre, got %v", err)
	}
}

func TestCreateSavedSkeetDuplicatePost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, b, g := seedLinkFixtures(t, s)

	if err := s.CreateSavedSkeet(ctx, newTestSkeet(p.ID, b.ID, g.ID)); err != nil {
		t.Fatalf("first CreateSavedSkeet: %v", err)
	}

	err := s.CreateSavedSkeet(ctx, newTestSkeet(p.ID, b.ID, g.ID))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for second linkage on same post, got %v", err)
	}
}

func TestCreateBookWithSkeet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, _, g := seedLinkFixtures(t, s)

	b := newTestBook("The Fifth Season", "fifth season")
	sk := newTestSkeet(p.ID, "", g.ID)
	if err := s.CreateBookWithSkeet(ctx, b, sk); err != nil {
		t.Fatalf("CreateBookWithSkeet: %v", err)
	}

	if sk.BookID != b.ID {
		t.Errorf("skeet book_id = %q, want %q", sk.BookID, b.ID)
	}
	if _, err := s.GetBookByTitleKey(ctx, "fifth season"); err != nil {
		t.Fatalf("book not persisted: %v", err)
	}
	got, err := s.GetSavedSkeetByPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("linkage not persisted: %v", err)
	}
	if got.BookID != b.ID {
		t.Errorf("linkage book = %s, want %s", got.BookID, b.ID)
	}
}

func TestCreateBookWithSkeetTitleConflictRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, b, g := seedLinkFixtures(t, s)

	// Same title key as the fixture book.
	dup := newTestBook("Project Hail Mary!", b.TitleKey)
	sk := newTestSkeet(p.ID, "", g.ID)

	err := s.CreateBookWithSkeet(ctx, dup, sk)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The whole transaction rolled back: no linkage row either.
	if _, err := s.GetSavedSkeetByPost(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no linkage after rollback, got %v", err)
	}
	if _, err := s.GetBook(ctx, dup.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected losing book absent after rollback, got %v", err)
	}
}

// Concurrent insert-or-get: many posts naming the same new title must end
// with exactly one book row, every loser seeing ErrAlreadyExists.
func TestCreateBookWithSkeetConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, _, g := seedLinkFixtures(t, s)

	const n = 8
	posts := make([]*domain.Post, n)
	for i := range posts {
		posts[i] = newTestPost(fmt.Sprintf("at://did:plc:abc/app.bsky.feed.post/c%d", i), "reading Piranesi")
		if err := s.CreatePost(ctx, posts[i]); err != nil {
			t.Fatalf("CreatePost %d: %v", i, err)
		}
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newTestBook("Piranesi", "piranesi")
			sk := newTestSkeet(posts[i].ID, "", g.ID)
			err := s.CreateBookWithSkeet(ctx, b, sk)
			if errors.Is(err, store.ErrAlreadyExists) {
				// Lost the race: link against the winner.
				winner, gerr := s.GetBookByTitleKey(ctx, "piranesi")
				if gerr != nil {
					results[i] = gerr
					return
				}
				sk.BookID = winner.ID
				err = s.CreateSavedSkeet(ctx, sk)
			}
			results[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	count := 0
	for _, b := range books {
		if b.TitleKey == "piranesi" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one Piranesi row, got %d", count)
	}

	shelf, err := s.ListShelf(ctx)
	if err != nil {
		t.Fatalf("ListShelf: %v", err)
	}
	if len(shelf) != n {
		t.Errorf("expected %d linkages, got %d", n, len(shelf))
	}
}

func TestListShelf(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, b, g := seedLinkFixtures(t, s)

	if err := s.CreateSavedSkeet(ctx, newTestSkeet(p.ID, b.ID, g.ID)); err != nil {
		t.Fatalf("CreateSavedSkeet: %v", err)
	}

	shelf, err := s.ListShelf(ctx)
	if err != nil {
		t.Fatalf("ListShelf: %v", err)
	}
	if len(shelf) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(shelf))
	}
	entry := shelf[0]
	if entry.Skeet.PostID != p.ID {
		t.Errorf("entry post = %s, want %s", entry.Skeet.PostID, p.ID)
	}
	if entry.Book == nil || entry.Book.Title != b.Title {
		t.Errorf("entry book = %+v, want title %q", entry.Book, b.Title)
	}
	if entry.Genre == nil || entry.Genre.Slug != g.Slug {
		t.Errorf("entry genre = %+v, want slug %q", entry.Genre, g.Slug)
	}
}
