package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookskyapp/booksky-server/internal/config"
	"github.com/bookskyapp/booksky-server/internal/logger"
	"github.com/bookskyapp/booksky-server/internal/pipeline"
	"github.com/bookskyapp/booksky-server/internal/ratelimit"
	"github.com/bookskyapp/booksky-server/internal/service"
	"github.com/bookskyapp/booksky-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideIngestService provides the skeet ingestion service.
func ProvideIngestService(i do.Injector) (*service.IngestService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	coordinator := do.MustInvoke[*pipeline.Coordinator](i)
	validator := do.MustInvoke[*validation.Validator](i)

	return service.NewIngestService(storeHandle.Store, coordinator, validator, cfg.Ingest.Workers, log.Logger), nil
}

// ProvideCatalogService provides the catalog query service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*BookIndexHandle](i)

	return service.NewCatalogService(storeHandle.Store, indexHandle.BookIndex, log.Logger), nil
}

// ProvideIngestLimiter provides the per-client rate limiter for the ingest
// endpoints.
func ProvideIngestLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Ingest.RateLimitRPS, cfg.Ingest.RateLimitBurst), nil
}
