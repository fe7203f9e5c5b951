package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/id"
	"github.com/bookskyapp/booksky-server/internal/store"
)

// newTestStore creates a store backed by a fresh on-disk database in a
// temp directory that is cleaned up with the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, slog.Default())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func newTestBook(title, titleKey string) *domain.Book {
	b := &domain.Book{
		Title:    title,
		TitleKey: titleKey,
	}
	b.ID = id.MustGenerate("book")
	b.InitTimestamps()
	return b
}

func newTestGenre(name, slug string, priority int) *domain.Genre {
	g := &domain.Genre{
		Name:     name,
		Slug:     slug,
		Priority: priority,
	}
	g.ID = id.MustGenerate("genre")
	g.InitTimestamps()
	return g
}

func newTestPost(uri, text string) *domain.Post {
	p := &domain.Post{
		Handle:   "reader.bsky.social",
		Text:     text,
		URI:      uri,
		PostedAt: time.Now(),
	}
	p.ID = id.MustGenerate("post")
	p.InitTimestamps()
	return p
}

func newTestSkeet(postID, bookID, genreID string) *domain.SavedSkeet {
	sk := &domain.SavedSkeet{
		PostID:  postID,
		BookID:  bookID,
		GenreID: genreID,
	}
	sk.ID = id.MustGenerate("skeet")
	sk.InitTimestamps()
	return sk
}

func TestOpenRunsSchema(t *testing.T) {
	s := newTestStore(t)

	// Schema should be queryable immediately after Open.
	genres, err := s.ListGenres(context.Background())
	if err != nil {
		t.Fatalf("ListGenres on fresh store: %v", err)
	}
	if len(genres) != 0 {
		t.Errorf("expected empty genre table, got %d rows", len(genres))
	}
}

func TestPostRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newTestPost("at://did:plc:abc/app.bsky.feed.post/1", "Just finished 'Project Hail Mary'")
	p.DisplayName = "A Reader"
	p.LikeCount = 7

	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Text != p.Text {
		t.Errorf("text = %q, want %q", got.Text, p.Text)
	}
	if got.Handle != p.Handle || got.DisplayName != p.DisplayName {
		t.Errorf("provenance fields lost: got %q/%q", got.Handle, got.DisplayName)
	}
	if got.LikeCount != 7 {
		t.Errorf("like_count = %d, want 7", got.LikeCount)
	}

	byURI, err := s.GetPostByURI(ctx, p.URI)
	if err != nil {
		t.Fatalf("GetPostByURI: %v", err)
	}
	if byURI.ID != p.ID {
		t.Errorf("GetPostByURI returned %s, want %s", byURI.ID, p.ID)
	}
}

func TestCreatePostDuplicateURI(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	uri := "at://did:plc:abc/app.bsky.feed.post/dup"
	if err := s.CreatePost(ctx, newTestPost(uri, "first")); err != nil {
		t.Fatalf("first CreatePost: %v", err)
	}

	err := s.CreatePost(ctx, newTestPost(uri, "second"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate URI, got %v", err)
	}
}
