// Package di provides dependency injection configuration for the Booksky server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookskyapp/booksky-server/internal/classify"
	"github.com/bookskyapp/booksky-server/internal/config"
	"github.com/bookskyapp/booksky-server/internal/di/providers"
	"github.com/bookskyapp/booksky-server/internal/extract"
	"github.com/bookskyapp/booksky-server/internal/logger"
	"github.com/bookskyapp/booksky-server/internal/pipeline"
	"github.com/bookskyapp/booksky-server/internal/ratelimit"
	"github.com/bookskyapp/booksky-server/internal/resolve"
	"github.com/bookskyapp/booksky-server/internal/service"
	"github.com/bookskyapp/booksky-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBootstrap)
	do.Provide(injector, providers.ProvideBookIndex)

	// Pipeline stages
	do.Provide(injector, providers.ProvideExtractor)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideClassifier)
	do.Provide(injector, providers.ProvideCoordinator)

	// Application services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideIngestService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideIngestLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.Bootstrap](injector)
	_ = do.MustInvoke[*providers.BookIndexHandle](injector)

	// Pipeline stages
	_ = do.MustInvoke[*extract.Extractor](injector)
	_ = do.MustInvoke[*resolve.Resolver](injector)
	_ = do.MustInvoke[*classify.Classifier](injector)
	_ = do.MustInvoke[*pipeline.Coordinator](injector)

	// Application services
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.IngestService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the title index if it is out of step with the catalog
	providers.TriggerTitleReindexIfNeeded(injector)

	return nil
}
