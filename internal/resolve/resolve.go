// Package resolve maps an extracted candidate title onto the book catalog.
// It decides whether the candidate names an existing book, warrants a new
// catalog entry, or should be dropped; it never writes to the store itself.
package resolve

import (
	"context"
	"log/slog"

	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/search"
	"github.com/bookskyapp/booksky-server/internal/store"
	"github.com/bookskyapp/booksky-server/internal/taxonomy"
)

// Outcome is the resolver's verdict for one candidate.
type Outcome int

const (
	// OutcomeReject means the candidate matched nothing and is not
	// confident enough to create a new book.
	OutcomeReject Outcome = iota
	// OutcomeReuse means an existing book should be linked.
	OutcomeReuse
	// OutcomeCreate means a new book should be created for this title.
	OutcomeCreate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReuse:
		return "reuse"
	case OutcomeCreate:
		return "create"
	default:
		return "reject"
	}
}

// Decision is the result of resolving one candidate span.
type Decision struct {
	Outcome Outcome

	// Book is the existing catalog entry for OutcomeReuse, or the proposed
	// (not yet persisted, no ID) entry for OutcomeCreate. Nil on reject.
	Book *domain.Book

	// NewAlias is set on a fuzzy reuse: the candidate's normalized key,
	// which the caller should record so the next identical rendering
	// resolves exactly.
	NewAlias string

	// Similarity is the title similarity that produced a fuzzy reuse,
	// 1.0 for exact and alias matches.
	Similarity float64

	Reason string
}

// Resolver matches candidate titles against the catalog.
type Resolver struct {
	catalog store.BookCatalog
	index   *search.BookIndex
	logger  *slog.Logger

	fuzzyThreshold    float64
	creationThreshold float64
}

// Options configures resolution thresholds.
type Options struct {
	// FuzzyThreshold is the minimum title similarity for a fuzzy match
	// to reuse an existing book.
	FuzzyThreshold float64
	// CreationThreshold is the minimum extraction confidence required to
	// mint a new book when nothing in the catalog matches.
	CreationThreshold float64
}

// New creates a resolver over the given catalog and title index.
func New(catalog store.BookCatalog, index *search.BookIndex, logger *slog.Logger, opts Options) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog:           catalog,
		index:             index,
		logger:            logger,
		fuzzyThreshold:    opts.FuzzyThreshold,
		creationThreshold: opts.CreationThreshold,
	}
}

// maxFuzzyCandidates bounds how many index hits are scored per lookup.
const maxFuzzyCandidates = 10

// Resolve decides what to do with one candidate span.
//
// Matching runs in strictness order: exact key, then alias, then fuzzy
// similarity over index candidates. Only when all three miss does the
// candidate's own confidence decide between creating a book and rejecting.
func (r *Resolver) Resolve(ctx context.Context, span domain.CandidateSpan) (Decision, error) {
	key := taxonomy.TitleKey(span.Text)
	if key == "" {
		return Decision{Outcome: OutcomeReject, Reason: "empty title after normalization"}, nil
	}

	// 1. Exact key match.
	book, err := r.catalog.GetBookByTitleKey(ctx, key)
	if err == nil {
		return Decision{
			Outcome:    OutcomeReuse,
			Book:       book,
			Similarity: 1.0,
			Reason:     "exact title match",
		}, nil
	}
	if !store.IsNotFound(err) {
		return Decision{}, err
	}

	// 2. Alias match.
	book, err = r.catalog.GetBookByAlias(ctx, key)
	if err == nil {
		return Decision{
			Outcome:    OutcomeReuse,
			Book:       book,
			Similarity: 1.0,
			Reason:     "alias match",
		}, nil
	}
	if !store.IsNotFound(err) {
		return Decision{}, err
	}

	// 3. Fuzzy match over index candidates.
	decision, err := r.fuzzyResolve(ctx, span, key)
	if err != nil {
		return Decision{}, err
	}
	if decision != nil {
		return *decision, nil
	}

	// 4. Nothing matched. Create only on a confident extraction.
	if span.Confidence >= r.creationThreshold {
		proposed := &domain.Book{
			Title:    span.Text,
			TitleKey: key,
			Author:   span.AuthorHint,
		}
		return Decision{
			Outcome: OutcomeCreate,
			Book:    proposed,
			Reason:  "no catalog match, confident extraction",
		}, nil
	}

	return Decision{Outcome: OutcomeReject, Reason: "no catalog match, low confidence"}, nil
}

// fuzzyResolve scores index candidates against the normalized key and
// returns a reuse decision for the best one above threshold, or nil.
func (r *Resolver) fuzzyResolve(ctx context.Context, span domain.CandidateSpan, key string) (*Decision, error) {
	candidates, err := r.index.Candidates(ctx, span.Text, maxFuzzyCandidates)
	if err != nil {
		// The index is advisory; a search failure degrades to exact-only
		// matching rather than dropping the post.
		r.logger.Warn("title index lookup failed", "title", span.Text, "error", err)
		return nil, nil
	}

	var (
		best    *search.Candidate
		bestSim float64
	)
	for i := range candidates {
		sim := stringSimilarity(key, candidates[i].TitleKey)
		if sim >= r.fuzzyThreshold && sim > bestSim {
			best = &candidates[i]
			bestSim = sim
		}
	}
	if best == nil {
		return nil, nil
	}

	book, err := r.catalog.GetBook(ctx, best.BookID)
	if err != nil {
		if store.IsNotFound(err) {
			// Index is stale; treat as no match.
			r.logger.Warn("title index references missing book", "book_id", best.BookID)
			return nil, nil
		}
		return nil, err
	}

	d := Decision{
		Outcome:    OutcomeReuse,
		Book:       book,
		Similarity: bestSim,
		Reason:     "fuzzy title match",
	}
	// Record the variant spelling so the next identical post hits exactly.
	if key != book.TitleKey && !book.HasAlias(key) {
		d.NewAlias = key
	}
	return &d, nil
}
