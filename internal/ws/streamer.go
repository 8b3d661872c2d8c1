package ws

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/metrics"
	"github.com/dgnsrekt/chainsignal/internal/notify"
)

// Analyzer is the part of engine.Engine the streamer needs.
type Analyzer interface {
	AnalyzeTicker(ctx context.Context, ticker, expiry string) (*engine.Analysis, error)
}

// SessionClock reports whether the market is open.
type SessionClock interface {
	IsOpen(t time.Time) bool
}

// StreamerOptions are the streamer's optional collaborators. Nil fields are skipped.
type StreamerOptions struct {
	Store    cache.Store
	Notifier notify.Notifier
	Session  SessionClock
	Metrics  *metrics.Metrics
}

// Streamer recomputes the signal of every subscribed ticker each interval
// and pushes it to the ticker's subscribers.
type Streamer struct {
	hub      *Hub
	analyzer Analyzer
	opts     StreamerOptions
	interval time.Duration
	last     map[string]string // ticker -> last pushed signal
	mu       sync.Mutex
	now      func() time.Time
	logger   *zap.Logger
}

// NewStreamer creates a new Streamer.
func NewStreamer(hub *Hub, analyzer Analyzer, interval time.Duration, opts StreamerOptions, logger *zap.Logger) *Streamer {
	return &Streamer{
		hub:      hub,
		analyzer: analyzer,
		opts:     opts,
		interval: interval,
		last:     make(map[string]string),
		now:      time.Now,
		logger:   logger,
	}
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	// Align first tick to top of second for predictable timing
	now := time.Now()
	nextSecond := now.Truncate(time.Second).Add(time.Second)

	select {
	case <-ctx.Done():
		s.logger.Info("streamer cancelled during alignment")
		return
	case <-time.After(time.Until(nextSecond)):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("streamer started",
		zap.Duration("interval", s.interval),
		zap.Bool("session_gated", s.opts.Session != nil),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("streamer stopping")
			return

		case <-ticker.C:
			s.broadcastNext(ctx)
		}
	}
}

// broadcastNext analyzes and pushes every active ticker once.
func (s *Streamer) broadcastNext(ctx context.Context) {
	if s.opts.Session != nil && !s.opts.Session.IsOpen(s.now()) {
		return
	}

	for _, ticker := range s.hub.GetActiveGroups() {
		if ctx.Err() != nil {
			return
		}

		a, err := s.analyzer.AnalyzeTicker(ctx, ticker, "")
		if err != nil {
			s.logger.Debug("failed to analyze ticker",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			s.hub.Broadcast(ticker, errorMessage(ticker, err.Error()))
			continue
		}

		msg, err := signalMessage(ticker, a)
		if err != nil {
			s.opts.Metrics.RecordError("ws", "encode")
			s.logger.Warn("failed to build signal message", zap.String("ticker", ticker), zap.Error(err))
			continue
		}

		sent := s.hub.Broadcast(ticker, msg)
		s.publish(ctx, ticker, a)

		s.logger.Debug("broadcast signal",
			zap.String("ticker", ticker),
			zap.String("signal", string(a.Signal.Signal)),
			zap.Float64("score", a.Signal.Score),
			zap.Int("clients", sent),
		)
	}
}

// publish caches the signal and notifies when the ticker's signal changed
// since the last push.
func (s *Streamer) publish(ctx context.Context, ticker string, a *engine.Analysis) {
	if s.opts.Store != nil {
		entry := &cache.Entry{
			Ticker:      ticker,
			AnalysisID:  a.ID,
			GeneratedAt: a.GeneratedAt,
			Signal:      a.Signal,
		}
		if err := s.opts.Store.Put(ctx, entry); err != nil {
			s.opts.Metrics.RecordError("cache", "put")
			s.logger.Warn("failed to cache signal", zap.String("ticker", ticker), zap.Error(err))
		}
	}

	state := string(a.Signal.Signal) + "/" + string(a.Signal.Strength)
	s.mu.Lock()
	changed := s.last[ticker] != state
	s.last[ticker] = state
	s.mu.Unlock()

	if !changed || s.opts.Notifier == nil {
		return
	}
	sent, err := s.opts.Notifier.SendSignal(ctx, ticker, &a.Signal)
	if err != nil {
		s.opts.Metrics.RecordError("notify", "send")
		return
	}
	if sent {
		s.opts.Metrics.RecordNotification()
	}
}
