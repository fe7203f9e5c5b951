package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookskyapp/booksky-server/internal/classify"
	"github.com/bookskyapp/booksky-server/internal/config"
	"github.com/bookskyapp/booksky-server/internal/extract"
	"github.com/bookskyapp/booksky-server/internal/logger"
	"github.com/bookskyapp/booksky-server/internal/pipeline"
	"github.com/bookskyapp/booksky-server/internal/resolve"
	"github.com/bookskyapp/booksky-server/internal/taxonomy"
)

// ProvideExtractor provides the candidate title extractor.
func ProvideExtractor(i do.Injector) (*extract.Extractor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return extract.New(cfg.Pipeline.ConfidenceFloor), nil
}

// ProvideResolver provides the title resolver over the store and index.
func ProvideResolver(i do.Injector) (*resolve.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*BookIndexHandle](i)

	return resolve.New(storeHandle.Store, indexHandle.BookIndex, log.Logger, resolve.Options{
		FuzzyThreshold:    cfg.Pipeline.FuzzyThreshold,
		CreationThreshold: cfg.Pipeline.CreationThreshold,
	}), nil
}

// ProvideClassifier provides the genre classifier over the default taxonomy.
func ProvideClassifier(i do.Injector) (*classify.Classifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return classify.New(taxonomy.Defaults, cfg.Pipeline.MinGenreScore), nil
}

// ProvideCoordinator provides the pipeline coordinator.
func ProvideCoordinator(i do.Injector) (*pipeline.Coordinator, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*BookIndexHandle](i)
	extractor := do.MustInvoke[*extract.Extractor](i)
	resolver := do.MustInvoke[*resolve.Resolver](i)
	classifier := do.MustInvoke[*classify.Classifier](i)

	return pipeline.New(storeHandle.Store, extractor, resolver, classifier, indexHandle.BookIndex, log.Logger), nil
}
