package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/adapter/cache"
	"github.com/couchcryptid/climate-atlas/internal/adapter/geogouv"
	"github.com/couchcryptid/climate-atlas/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-atlas/internal/adapter/registry"
	"github.com/couchcryptid/climate-atlas/internal/config"
	"github.com/couchcryptid/climate-atlas/internal/observability"
	"github.com/couchcryptid/climate-atlas/internal/pipeline"
)

// registryTimeout bounds one registry download. The national files are
// several megabytes.
const registryTimeout = 5 * time.Minute

// app holds the services shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	sources pipeline.Sources

	shutdownTracing func(context.Context) error
	closers         []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFrom(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a := &app{
		cfg:             cfg,
		logger:          logger,
		metrics:         metrics,
		shutdownTracing: shutdownTracing,
	}

	store, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	meteo := openmeteo.NewClient(openmeteo.Options{
		APIKey:  cfg.MeteoAPIKey,
		Timeout: cfg.HTTPTimeout,
		Cache:   store,
		Metrics: metrics,
		Logger:  logger,
	})
	a.sources = pipeline.Sources{
		Geocoder:   meteo,
		Communes:   geogouv.NewClient(geogouv.DefaultBaseURL, cfg.HTTPTimeout, logger),
		Weather:    meteo,
		AirQuality: meteo,
		Registries: registry.NewLoader(registry.Sources{Gaspar: cfg.GasparURL, Basol: cfg.BasolURL}, registryTimeout, logger),
	}
	return a, nil
}

// openCache layers an in-memory LRU over the SQLite file cache when
// CACHE_PATH is set.
func (a *app) openCache(ctx context.Context) (cache.Store, error) {
	lru := cache.NewLRU(a.cfg.CacheSize)
	if a.cfg.CachePath == "" {
		a.logger.Info("response cache in memory only", "entries", a.cfg.CacheSize)
		return lru, nil
	}
	disk, err := cache.OpenSQLite(a.cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}
	a.closers = append(a.closers, disk.Close)
	persisted, err := disk.Len(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info("response cache opened",
		"path", a.cfg.CachePath,
		"persisted", persisted,
		"entries", a.cfg.CacheSize,
	)
	return cache.NewChain(lru, disk), nil
}

// Close flushes traces and releases the cache.
func (a *app) Close() {
	observability.ShutdownWithTimeout(context.Background(), a.shutdownTracing, a.logger)
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}
