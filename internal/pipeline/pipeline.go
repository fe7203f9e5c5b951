// Package pipeline orchestrates the classification flow for one post:
// normalize the text, extract candidate titles, resolve them against the
// catalog, pick a genre, and persist the linkage. The coordinator owns all
// catalog writes; the stages before it are pure and never touch the store.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/bookskyapp/booksky-server/internal/classify"
	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/errors"
	"github.com/bookskyapp/booksky-server/internal/extract"
	"github.com/bookskyapp/booksky-server/internal/id"
	"github.com/bookskyapp/booksky-server/internal/normalize"
	"github.com/bookskyapp/booksky-server/internal/resolve"
	"github.com/bookskyapp/booksky-server/internal/search"
	"github.com/bookskyapp/booksky-server/internal/store"
	"github.com/bookskyapp/booksky-server/internal/taxonomy"
)

// Status is the terminal state of a pipeline run.
type Status string

const (
	StatusLinked  Status = "linked"
	StatusDropped Status = "dropped"
)

// Drop reasons reported on StatusDropped results.
const (
	DropEmptyText    = "empty text after normalization"
	DropNoCandidates = "no candidate titles extracted"
	DropNoResolution = "no candidate resolved to a book"
)

// Result is the outcome of running one post through the pipeline.
// A dropped post is a normal outcome, not an error; errors are reserved
// for infrastructure failures where the post should be retried.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"` // set when dropped

	PostID       string `json:"post_id"`
	SavedSkeetID string `json:"saved_skeet_id,omitempty"`
	BookID       string `json:"book_id,omitempty"`
	BookTitle    string `json:"book_title,omitempty"`
	BookCreated  bool   `json:"book_created,omitempty"`
	GenreID      string `json:"genre_id,omitempty"`
	GenreSlug    string `json:"genre_slug,omitempty"`

	// Confidence is the extraction confidence of the winning candidate.
	Confidence float64 `json:"confidence,omitempty"`
	// GenreScore is the winning signature score, 0 for the fallback genre.
	GenreScore float64 `json:"genre_score,omitempty"`
}

// Linked reports whether the post ended up on the shelf.
func (r *Result) Linked() bool { return r.Status == StatusLinked }

// Coordinator runs posts through the pipeline stages and owns the
// insert-or-get discipline on book creation.
type Coordinator struct {
	store      store.Store
	extractor  *extract.Extractor
	resolver   *resolve.Resolver
	classifier *classify.Classifier
	index      *search.BookIndex
	logger     *slog.Logger
}

// New wires the pipeline stages together.
func New(
	st store.Store,
	extractor *extract.Extractor,
	resolver *resolve.Resolver,
	classifier *classify.Classifier,
	index *search.BookIndex,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:      st,
		extractor:  extractor,
		resolver:   resolver,
		classifier: classifier,
		index:      index,
		logger:     logger,
	}
}

// ClassifyAndLink runs one ingested post through the full pipeline.
//
// The post must already be persisted. Running the same post twice returns
// the existing linkage instead of creating a second one. A non-nil error
// means infrastructure failure (storage unavailable, taxonomy missing);
// the post was not consumed and may be retried.
func (c *Coordinator) ClassifyAndLink(ctx context.Context, post *domain.Post) (*Result, error) {
	// Idempotence: a post links at most once.
	if existing, err := c.store.GetSavedSkeetByPost(ctx, post.ID); err == nil {
		return c.existingResult(ctx, post, existing)
	} else if !store.IsNotFound(err) {
		return nil, c.storeFailure(err, "look up existing linkage")
	}

	norm := normalize.Post(post.Text)
	if norm.IsEmpty() {
		return c.dropped(post, DropEmptyText), nil
	}

	spans := c.extractor.Candidates(norm.Text)
	if len(spans) == 0 {
		return c.dropped(post, DropNoCandidates), nil
	}

	// Candidates arrive best-first; take the first that resolves.
	var (
		decision resolve.Decision
		winner   domain.CandidateSpan
		resolved bool
	)
	for _, span := range spans {
		d, err := c.resolver.Resolve(ctx, span)
		if err != nil {
			return nil, c.storeFailure(err, "resolve candidate")
		}
		if d.Outcome != resolve.OutcomeReject {
			decision, winner, resolved = d, span, true
			break
		}
	}
	if !resolved {
		return c.dropped(post, DropNoResolution), nil
	}

	verdict := c.classifier.Classify(norm.Text, decision.Book.Title)
	genre, err := c.lookupGenre(ctx, verdict.Slug)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Status:     StatusLinked,
		PostID:     post.ID,
		GenreID:    genre.ID,
		GenreSlug:  genre.Slug,
		Confidence: winner.Confidence,
		GenreScore: verdict.Score,
	}

	switch decision.Outcome {
	case resolve.OutcomeCreate:
		if err := c.linkCreating(ctx, post, decision.Book, genre, result); err != nil {
			return nil, err
		}
	default:
		if err := c.linkExisting(ctx, post, decision, genre, result); err != nil {
			return nil, err
		}
	}

	c.logger.Info("post linked",
		"post_id", post.ID,
		"book_id", result.BookID,
		"book_created", result.BookCreated,
		"genre", result.GenreSlug,
		"confidence", result.Confidence,
	)
	return result, nil
}

// linkExisting links the post to an already catalogued book.
func (c *Coordinator) linkExisting(ctx context.Context, post *domain.Post, decision resolve.Decision, genre *domain.Genre, result *Result) error {
	book := decision.Book

	sk := &domain.SavedSkeet{PostID: post.ID, BookID: book.ID, GenreID: genre.ID}
	sk.ID = id.MustGenerate("skeet")
	sk.InitTimestamps()

	err := c.store.CreateSavedSkeet(ctx, sk)
	if store.IsAlreadyExists(err) {
		// Concurrent run of the same post won; return its linkage.
		existing, gerr := c.store.GetSavedSkeetByPost(ctx, post.ID)
		if gerr != nil {
			return c.storeFailure(gerr, "refetch linkage after conflict")
		}
		sk = existing
		err = nil
	}
	if err != nil {
		return c.storeFailure(err, "create linkage")
	}

	// Record the variant rendering so the next identical post resolves
	// exactly. Losing this is harmless, so failures only log.
	if decision.NewAlias != "" {
		if aerr := c.store.AddBookAlias(ctx, book.ID, decision.NewAlias); aerr != nil {
			c.logger.Warn("failed to record title alias",
				"book_id", book.ID, "alias", decision.NewAlias, "error", aerr)
		} else {
			book.AddAlias(decision.NewAlias)
			c.reindex(book)
		}
	}

	result.SavedSkeetID = sk.ID
	result.BookID = book.ID
	result.BookTitle = book.Title
	return nil
}

// linkCreating creates a new book and its first linkage atomically. When a
// concurrent post wins the title-key race, the losing transaction rolls
// back and the post links against the winner instead.
func (c *Coordinator) linkCreating(ctx context.Context, post *domain.Post, proposed *domain.Book, genre *domain.Genre, result *Result) error {
	book := proposed
	book.ID = id.MustGenerate("book")
	book.InitTimestamps()

	sk := &domain.SavedSkeet{PostID: post.ID, GenreID: genre.ID}
	sk.ID = id.MustGenerate("skeet")
	sk.InitTimestamps()

	err := c.store.CreateBookWithSkeet(ctx, book, sk)
	switch {
	case err == nil:
		result.BookCreated = true
		c.reindex(book)

	case store.IsAlreadyExists(err):
		// Lost the insert-or-get race or the post itself raced. Either way
		// there is exactly one canonical book for this key now; link to it.
		winner, gerr := c.store.GetBookByTitleKey(ctx, book.TitleKey)
		if gerr != nil {
			return c.storeFailure(gerr, "refetch book after create conflict")
		}
		book = winner

		sk.BookID = book.ID
		cerr := c.store.CreateSavedSkeet(ctx, sk)
		if store.IsAlreadyExists(cerr) {
			existing, gerr := c.store.GetSavedSkeetByPost(ctx, post.ID)
			if gerr != nil {
				return c.storeFailure(gerr, "refetch linkage after conflict")
			}
			sk = existing
			cerr = nil
		}
		if cerr != nil {
			return c.storeFailure(cerr, "link against winning book")
		}

	default:
		return c.storeFailure(err, "create book with linkage")
	}

	result.SavedSkeetID = sk.ID
	result.BookID = book.ID
	result.BookTitle = book.Title
	return nil
}

// lookupGenre fetches the classifier's verdict from the store, falling
// back to the Unclassified row if the verdict slug is not seeded.
func (c *Coordinator) lookupGenre(ctx context.Context, slug string) (*domain.Genre, error) {
	genre, err := c.store.GetGenreBySlug(ctx, slug)
	if err == nil {
		return genre, nil
	}
	if !store.IsNotFound(err) {
		return nil, c.storeFailure(err, "look up genre")
	}

	c.logger.Warn("classifier selected unseeded genre, using fallback", "slug", slug)
	genre, err = c.store.GetGenreBySlug(ctx, taxonomy.UnclassifiedSlug)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, errors.Internal("genre taxonomy is not seeded")
		}
		return nil, c.storeFailure(err, "look up fallback genre")
	}
	return genre, nil
}

// existingResult rebuilds a linked result from a pre-existing linkage.
func (c *Coordinator) existingResult(ctx context.Context, post *domain.Post, sk *domain.SavedSkeet) (*Result, error) {
	result := &Result{
		Status:       StatusLinked,
		PostID:       post.ID,
		SavedSkeetID: sk.ID,
		BookID:       sk.BookID,
		GenreID:      sk.GenreID,
	}
	if book, err := c.store.GetBook(ctx, sk.BookID); err == nil {
		result.BookTitle = book.Title
	}
	if genre, err := c.store.GetGenre(ctx, sk.GenreID); err == nil {
		result.GenreSlug = genre.Slug
	}
	return result, nil
}

func (c *Coordinator) dropped(post *domain.Post, reason string) *Result {
	c.logger.Debug("post dropped", "post_id", post.ID, "reason", reason)
	return &Result{Status: StatusDropped, Reason: reason, PostID: post.ID}
}

// storeFailure wraps storage errors for callers: unavailability keeps its
// retryable code, everything else becomes internal.
func (c *Coordinator) storeFailure(err error, op string) error {
	if store.IsUnavailable(err) {
		return errors.Wrap(err, errors.CodeUnavailable, "storage unavailable: "+op)
	}
	return errors.Wrap(err, errors.CodeInternal, op+" failed")
}

// reindex pushes a book into the title index. Index staleness only costs
// fuzzy-match quality, so failures log instead of propagating.
func (c *Coordinator) reindex(book *domain.Book) {
	if c.index == nil {
		return
	}
	if err := c.index.IndexBook(book); err != nil {
		c.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}
