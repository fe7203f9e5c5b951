package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookskyapp/booksky-server/internal/config"
	"github.com/bookskyapp/booksky-server/internal/logger"
	"github.com/bookskyapp/booksky-server/internal/search"
	"github.com/bookskyapp/booksky-server/internal/service"
)

// BookIndexHandle wraps the title index with shutdown capability.
type BookIndexHandle struct {
	*search.BookIndex
}

// Shutdown implements do.Shutdownable.
func (h *BookIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideBookIndex provides the Bleve title index, persisted next to the
// database file.
func ProvideBookIndex(i do.Injector) (*BookIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewBookIndex(search.Options{
		DataPath: filepath.Dir(cfg.Database.Path),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Title index initialized", "documents", docCount)

	return &BookIndexHandle{BookIndex: index}, nil
}

// TriggerTitleReindexIfNeeded rebuilds the title index when it is empty but
// the catalog already has books, for example after a mapping version bump.
// Should be called after all services are wired.
func TriggerTitleReindexIfNeeded(i do.Injector) {
	catalogService := do.MustInvoke[*service.CatalogService](i)
	indexHandle := do.MustInvoke[*BookIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	books, err := storeHandle.ListBooks(ctx)
	if err != nil || len(books) == 0 {
		return
	}

	log.Info("Title index is empty but books exist, triggering reindex",
		"book_count", len(books),
	)

	go func() {
		if err := catalogService.RebuildIndex(context.Background()); err != nil {
			log.Error("Title reindex failed", "error", err)
		}
	}()
}
