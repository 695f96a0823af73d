package cli

import (
	"context"
	"fmt"
	"time"

	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/chart"
	"budget/internal/config"
	"budget/internal/controller"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/persistence"
)

// App is a fully wired budget: store, adapter, controller.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Catalog    *core.Catalog
	Backend    *backend.Result
	Adapter    *persistence.Adapter
	Controller *controller.Controller
	// ChartCache holds rendered chart images; servers sweep it.
	ChartCache *cache.LRUCache[[]byte]
}

// Bootstrap loads the catalog, opens the configured backend and restores
// the controller from it. factory may be nil.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory) (*App, error) {
	if factory == nil {
		factory = backend.NewFactory(logger)
	}

	cat := core.DefaultCatalog()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = core.LoadCatalogFile(cfg.CatalogFile); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		logger.InfoContext(ctx, "Loaded option catalog", "path", cfg.CatalogFile)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	opts := []persistence.Option{persistence.WithLogger(logger)}
	if res.Publisher != nil {
		opts = append(opts, persistence.WithPublisher(res.Publisher))
	}
	adapter := persistence.New(res.Store, opts...)

	images := cache.NewLRUCache[[]byte](32, time.Hour)
	ctrl, err := controller.New(ctx, cat, adapter, chart.New(chart.WithCache(images)), logger)
	if err != nil {
		_ = res.Close()
		return nil, err
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    cat,
		Backend:    res,
		Adapter:    adapter,
		Controller: ctrl,
		ChartCache: images,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}
