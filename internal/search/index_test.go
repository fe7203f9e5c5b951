package search

import (
	"context"
	"testing"

	"github.com/bookskyapp/booksky-server/internal/domain"
)

func newTestIndex(t *testing.T) *BookIndex {
	t.Helper()
	bi, err := NewBookIndex(Options{})
	if err != nil {
		t.Fatalf("NewBookIndex: %v", err)
	}
	t.Cleanup(func() {
		bi.Close()
	})
	return bi
}

func indexBook(t *testing.T, bi *BookIndex, id, title, key string, aliases ...string) {
	t.Helper()
	b := &domain.Book{Title: title, TitleKey: key, Aliases: aliases}
	b.ID = id
	if err := bi.IndexBook(b); err != nil {
		t.Fatalf("IndexBook %s: %v", title, err)
	}
}

func TestCandidatesExactTitle(t *testing.T) {
	bi := newTestIndex(t)
	indexBook(t, bi, "book-1", "Project Hail Mary", "project hail mary")
	indexBook(t, bi, "book-2", "The Martian", "martian")

	cands, err := bi.Candidates(context.Background(), "Project Hail Mary", 5)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if cands[0].BookID != "book-1" {
		t.Errorf("top candidate = %s, want book-1", cands[0].BookID)
	}
	if cands[0].TitleKey != "project hail mary" {
		t.Errorf("title_key = %q, want %q", cands[0].TitleKey, "project hail mary")
	}
}

func TestCandidatesPartialTitle(t *testing.T) {
	bi := newTestIndex(t)
	indexBook(t, bi, "book-1", "A Wizard of Earthsea", "wizard of earthsea")
	indexBook(t, bi, "book-2", "The Fifth Season", "fifth season")

	cands, err := bi.Candidates(context.Background(), "wizard earthsea", 5)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected a candidate for partial title")
	}
	if cands[0].BookID != "book-1" {
		t.Errorf("top candidate = %s, want book-1", cands[0].BookID)
	}
}

func TestCandidatesMatchAlias(t *testing.T) {
	bi := newTestIndex(t)
	indexBook(t, bi, "book-1", "The Lord of the Rings", "lord of the rings", "lotr fellowship")

	cands, err := bi.Candidates(context.Background(), "lotr fellowship", 5)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(cands) == 0 || cands[0].BookID != "book-1" {
		t.Fatalf("alias lookup failed: %+v", cands)
	}
}

func TestCandidatesEmptyQuery(t *testing.T) {
	bi := newTestIndex(t)
	indexBook(t, bi, "book-1", "Dune", "dune")

	cands, err := bi.Candidates(context.Background(), "", 5)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("empty query should match nothing, got %d candidates", len(cands))
	}
}

func TestIndexBooksAndCount(t *testing.T) {
	bi := newTestIndex(t)

	books := []*domain.Book{
		{Title: "Dune", TitleKey: "dune"},
		{Title: "Hyperion", TitleKey: "hyperion"},
		{Title: "Piranesi", TitleKey: "piranesi"},
	}
	for i, b := range books {
		b.ID = string(rune('a' + i))
	}
	if err := bi.IndexBooks(books); err != nil {
		t.Fatalf("IndexBooks: %v", err)
	}

	n, err := bi.DocumentCount()
	if err != nil {
		t.Fatalf("DocumentCount: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	if err := bi.DeleteBook("a"); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	n, err = bi.DocumentCount()
	if err != nil {
		t.Fatalf("DocumentCount: %v", err)
	}
	if n != 2 {
		t.Errorf("count after delete = %d, want 2", n)
	}
}
