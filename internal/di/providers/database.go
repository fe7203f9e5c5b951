package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookskyapp/booksky-server/internal/config"
	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/id"
	"github.com/bookskyapp/booksky-server/internal/logger"
	"github.com/bookskyapp/booksky-server/internal/store"
	"github.com/bookskyapp/booksky-server/internal/store/sqlite"
	"github.com/bookskyapp/booksky-server/internal/taxonomy"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite-backed catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path)

	return &StoreHandle{Store: db}, nil
}

// Bootstrap holds the taxonomy bootstrap result.
type Bootstrap struct {
	GenresSeeded int
}

// ProvideBootstrap ensures the genre taxonomy is present in the store.
// Missing genres are seeded from the built-in defaults; existing rows are
// left untouched so slugs stay stable across restarts.
func ProvideBootstrap(i do.Injector) (*Bootstrap, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	ctx := context.Background()
	seeded := 0

	for _, sig := range taxonomy.Defaults {
		if _, err := storeHandle.GetGenreBySlug(ctx, sig.Slug); err == nil {
			continue
		} else if !store.IsNotFound(err) {
			return nil, err
		}

		g := &domain.Genre{
			Name:        sig.Name,
			Slug:        sig.Slug,
			Description: sig.Description,
			Priority:    sig.Priority,
			Fallback:    sig.Fallback,
		}
		g.ID = id.MustGenerate("genre")
		g.InitTimestamps()

		err := storeHandle.CreateGenre(ctx, g)
		if store.IsAlreadyExists(err) {
			// Lost a seeding race with another process; the row exists.
			continue
		}
		if err != nil {
			return nil, err
		}
		seeded++
	}

	if seeded > 0 {
		log.Info("Genre taxonomy seeded", "genres", seeded)
	}

	return &Bootstrap{GenresSeeded: seeded}, nil
}
