package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/app"
	"github.com/dgnsrekt/chainsignal/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("CHAINSIGNAL_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}
	if err := cfg.ResolveDataDate(); err != nil {
		logger.Error("failed to resolve data date", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("dataDir", cfg.Data.Directory),
		zap.String("dataDate", cfg.Data.Date),
		zap.String("loader", cfg.Data.Loader),
		zap.String("playback", cfg.Data.Playback),
		zap.Bool("priceFeed", cfg.PriceFeed.Enabled),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("notify", cfg.Notify.Enabled),
		zap.Bool("wsEnabled", cfg.Stream.Enabled),
		zap.Duration("wsStreamInterval", cfg.Stream.Interval),
	)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build analysis stack", zap.Error(err))
		return 1
	}
	defer a.Close()

	// Wait for interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Serve(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}
	return 0
}
