package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/config"
	"github.com/dgnsrekt/chainsignal/internal/schedule"
	"github.com/dgnsrekt/chainsignal/internal/server"
	"github.com/dgnsrekt/chainsignal/internal/ws"
)

// Handler builds the HTTP handler and starts the websocket hub and streamer
// when streaming is enabled. Background components stop when ctx is done.
func (a *App) Handler(ctx context.Context) (http.Handler, error) {
	cfg := a.Config

	reload := server.NewReloadManager(a.Loader, a.Index, cfg.Data.Directory, cfg.Data.Loader, cfg.Data.Date, a.logger)
	opts := server.Options{
		Store:    a.Store,
		Notifier: a.Notifier,
		Reload:   reload,
		Metrics:  a.Metrics,
		Loader:   cfg.Data.Loader,
		Playback: cfg.Data.Playback,
	}

	// WebSocket components (optional)
	if cfg.Stream.Enabled {
		hub, err := ws.NewHub("signals", func(ticker string) bool { return config.ValidTickers[ticker] }, a.Metrics, a.logger)
		if err != nil {
			return nil, fmt.Errorf("creating signal hub: %w", err)
		}
		go hub.Run(ctx)

		streamOpts := ws.StreamerOptions{
			Store:    a.Store,
			Notifier: a.Notifier,
			Metrics:  a.Metrics,
		}
		if cfg.Stream.SessionOnly {
			streamOpts.Session = schedule.New("America/New_York")
		}
		streamer := ws.NewStreamer(hub, a.Engine, cfg.Stream.Interval, streamOpts, a.logger)
		go streamer.Run(ctx)

		opts.Hub = hub
		a.logger.Info("WebSocket enabled",
			zap.Duration("streamInterval", cfg.Stream.Interval),
			zap.Bool("sessionOnly", cfg.Stream.SessionOnly),
		)
	}

	srv := server.NewServer(a.Engine, opts, a.logger)
	return server.NewRouter(srv, a.logger)
}

// Serve listens on the configured port until ctx is done, then shuts the
// server down within server.shutdown_timeout.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router, err := a.Handler(ctx)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server...")

	// Stop WebSocket components before draining HTTP
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}
