// Package search maintains a Bleve index over catalog book titles.
// The resolver queries it for fuzzy candidates when a post's extracted
// title has no exact or alias match.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/bookskyapp/booksky-server/internal/domain"
)

// BookIndex wraps a Bleve index with catalog-specific operations.
//
// Thread safety: all public methods are safe for concurrent use.
// The mutex protects against corruption during rebuild operations.
type BookIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the book index.
type Options struct {
	DataPath string       // Directory for index storage; empty means in-memory
	Logger   *slog.Logger // Logger for operations (stderr text if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup triggers an automatic rebuild.
const mappingVersion = "1"

// NewBookIndex creates or opens a title index.
// With an empty DataPath the index lives in memory and is rebuilt from the
// store on every startup.
func NewBookIndex(opts Options) (*BookIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &BookIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "books.bleve")
	versionPath := filepath.Join(opts.DataPath, "books.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("title index has no version file, will rebuild",
				"new_version", mappingVersion)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("title index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing title index, will recreate",
				"path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			logger.Warn("failed to write title index version file", "error", writeErr)
		}
		logger.Info("created new title index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing title index", "path", indexPath)
	}

	return &BookIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index and releases resources.
func (bi *BookIndex) Close() error {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.index.Close()
}

// IndexBook adds or updates one book in the index.
func (bi *BookIndex) IndexBook(b *domain.Book) error {
	bi.mu.RLock()
	defer bi.mu.RUnlock()
	return bi.index.Index(b.ID, bookDocument(b))
}

// IndexBooks indexes many books in batches. Used when rebuilding from the
// store at startup.
func (bi *BookIndex) IndexBooks(books []*domain.Book) error {
	bi.mu.RLock()
	defer bi.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(books); i += batchSize {
		end := i + batchSize
		if end > len(books) {
			end = len(books)
		}

		batch := bi.index.NewBatch()
		for _, b := range books[i:end] {
			if err := batch.Index(b.ID, bookDocument(b)); err != nil {
				return fmt.Errorf("batch index %s: %w", b.ID, err)
			}
		}
		if err := bi.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteBook removes a book from the index.
func (bi *BookIndex) DeleteBook(id string) error {
	bi.mu.RLock()
	defer bi.mu.RUnlock()
	return bi.index.Delete(id)
}

// DocumentCount returns the number of indexed books.
func (bi *BookIndex) DocumentCount() (uint64, error) {
	bi.mu.RLock()
	defer bi.mu.RUnlock()
	return bi.index.DocCount()
}

// bookDocument flattens a book into the map the mapping expects.
// Aliases are indexed into the same field as the title so a post naming
// either rendering can surface the book.
func bookDocument(b *domain.Book) map[string]any {
	return map[string]any{
		"id":        b.ID,
		"title":     b.Title,
		"title_key": b.TitleKey,
		"aliases":   b.Aliases,
		"author":    b.Author,
	}
}
