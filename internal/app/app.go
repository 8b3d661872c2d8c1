// Package app assembles the analysis stack from configuration. Both the HTTP
// server and the CLI build on it.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/config"
	"github.com/dgnsrekt/chainsignal/internal/data"
	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/metrics"
	"github.com/dgnsrekt/chainsignal/internal/notify"
	"github.com/dgnsrekt/chainsignal/internal/pricefeed"
)

type App struct {
	Config   *config.Config
	Loader   *data.ReloadableLoader
	Gateway  *data.Gateway
	Playback *data.Playback   // nil unless playback is configured
	Index    *data.IndexCache // nil unless playback is configured
	Engine   *engine.Engine
	Store    cache.Store
	Notifier notify.Notifier
	Metrics  *metrics.Metrics

	logger *zap.Logger
}

// New loads the configured data date and wires the engine to it. The data
// date must already be resolved.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("loading data",
		zap.String("dir", cfg.Data.Directory),
		zap.String("date", cfg.Data.Date),
		zap.String("loader", cfg.Data.Loader))
	start := time.Now()

	initial, err := data.Open(cfg.Data.Loader, cfg.Data.Directory, cfg.Data.Date, logger)
	if err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}
	logger.Info("data loaded", zap.Duration("duration", time.Since(start)))

	a := &App{
		Config:  cfg,
		Loader:  data.NewReloadableLoader(initial),
		Metrics: metrics.New(),
		logger:  logger,
	}
	a.Gateway = data.NewGateway(a.Loader, logger)

	gw := engine.Gateways{Storage: a.Gateway}
	if cfg.Data.Playback != "" {
		a.Index = data.NewIndexCache(data.CacheMode(cfg.Data.Playback))
		a.Playback = data.NewPlayback(a.Gateway, a.Index)
		gw.Storage = a.Playback
	}

	if cfg.PriceFeed.Enabled {
		feed := pricefeed.NewClient(
			cfg.PriceFeed.BaseURL,
			cfg.PriceFeed.APIKey,
			cfg.PriceFeed.RatePerSecond,
			time.Duration(cfg.PriceFeed.TimeoutSec)*time.Second,
			time.Duration(cfg.PriceFeed.RetryDelay)*time.Second,
			cfg.PriceFeed.RetryCount,
			logger,
		)
		gw.PriceFeed = feed
		gw.Series = feed
	}

	a.Engine = engine.New(cfg.EngineConfig(), gw, a.Metrics, logger)

	if cfg.Redis.Enabled {
		store, err := cache.NewRedisStore(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.TTL, logger)
		if err != nil {
			a.Loader.Close()
			return nil, err
		}
		a.Store = store
	} else {
		a.Store = cache.NewMemoryStore(cfg.Redis.TTL)
	}

	a.Notifier = notify.New(&cfg.Notify, logger)
	return a, nil
}

// Close releases the loader and the signal store.
func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		a.logger.Warn("closing signal store", zap.Error(err))
	}
	return a.Loader.Close()
}
