// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 4:12:08 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/services/export"
	"github.com/ternarybob/equitydb/internal/services/forecasts"
	"github.com/ternarybob/equitydb/internal/services/market"
	"github.com/ternarybob/equitydb/internal/services/pipeline"
	"github.com/ternarybob/equitydb/internal/services/prices"
	"github.com/ternarybob/equitydb/internal/services/report"
	"github.com/ternarybob/equitydb/internal/services/scheduler"
	"github.com/ternarybob/equitydb/internal/storage"
	"github.com/ternarybob/equitydb/internal/validation"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	Cache          interfaces.CacheStorage
	Provider       interfaces.MarketDataProvider
	Validator      *validation.Validator

	ForecastService  *forecasts.Service
	PriceService     *prices.Service
	PipelineService  *pipeline.Service
	ExportService    *export.Service
	ReportService    *report.Service
	SchedulerService *scheduler.Service
}

// Options select which parts of the application are built. Commands that
// only read the database skip the provider.
type Options struct {
	WithProvider bool
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger, opts Options) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Validator: validation.New(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if opts.WithProvider {
		if err := app.initProvider(); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize provider: %w", err)
		}
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("driver", cfg.Storage.SQL.Driver).
		Bool("provider", app.Provider != nil).
		Bool("cache", app.Cache != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the relational store, running migrations
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Debug().
		Str("driver", a.Config.Storage.SQL.Driver).
		Str("path", a.Config.Storage.SQL.Path).
		Msg("Storage layer initialized")
	return nil
}

// initProvider builds the market-data provider behind the response cache
func (a *App) initProvider() error {
	cache, err := storage.NewCacheStorage(a.Logger, a.Config)
	if err != nil {
		// the cache only saves provider calls, run without it
		a.Logger.Warn().Err(err).Msg("Failed to open provider cache - continuing without")
		cache = nil
	}
	a.Cache = cache

	provider, err := market.NewProvider(a.Config, cache, a.Logger)
	if err != nil {
		return err
	}
	a.Provider = provider

	if purger, ok := provider.(*market.CachedProvider); ok {
		if _, err := purger.Purge(context.Background()); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to purge provider cache")
		}
	}
	return nil
}

// initServices initializes the business services in dependency order
func (a *App) initServices() error {
	a.ForecastService = forecasts.NewService(a.StorageManager, a.Validator, a.Logger)
	a.PriceService = prices.NewService(a.StorageManager, a.Validator, a.Logger)
	a.ExportService = export.NewService(a.StorageManager, a.Config.Export.Dir, a.Logger)
	a.ReportService = report.NewService(a.StorageManager, a.Logger)
	a.SchedulerService = scheduler.NewService(a.Logger)

	// without a provider the pipeline can still forecast from stored data
	pipelineService, err := pipeline.NewService(
		a.Provider,
		a.StorageManager,
		a.ForecastService,
		a.Validator,
		a.Config,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	a.PipelineService = pipelineService
	return nil
}

// Close stops the scheduler and releases storage
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close provider cache")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
