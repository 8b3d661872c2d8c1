// Package engine runs the strike analyses, the technical pass and the scorer
// for one chain, and wires them to the storage and price gateways.
package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/analytics"
	"github.com/dgnsrekt/chainsignal/internal/chain"
	"github.com/dgnsrekt/chainsignal/internal/indicators"
	"github.com/dgnsrekt/chainsignal/internal/metrics"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

// Gateways are the engine's optional data sources.
type Gateways struct {
	Storage   StorageGateway
	PriceFeed PriceFeedGateway
	Series    PriceSeriesGateway
}

type Engine struct {
	cfg     Config
	scorer  *scoring.Scorer
	gw      Gateways
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func New(cfg Config, gw Gateways, m *metrics.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		scorer:  scoring.NewScorer(cfg.Scoring),
		gw:      gw,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// parts are the independent results joined before scoring.
type parts struct {
	walls     analytics.LiquidityWalls
	pcr       analytics.PCRResult
	maxPain   analytics.MaxPainResult
	volume    analytics.VolumeAnalysis
	technical *indicators.TechnicalIndicators
}

// Evaluate runs the whole pipeline sequentially. It is pure: identical
// requests give identical analyses. ID and GeneratedAt are left empty.
func Evaluate(req Request, cfg Config) Analysis {
	snap := chain.NewSnapshot(req.CurrentPrice, chain.Merge(req.OI, req.Volume, req.OIChange))

	var p parts
	p.walls = analytics.DetectWalls(snap.Strikes, cfg.Analytics.WallLevels)
	p.pcr = analytics.CalculatePCR(snap.Strikes, snap.CurrentPrice, cfg.Analytics)
	p.maxPain = analytics.CalculateMaxPain(snap.Strikes, snap.CurrentPrice, cfg.Analytics)
	p.volume = analytics.AnalyzeVolume(snap.Strikes, snap.CurrentPrice, cfg.Analytics)
	if len(req.Bars) > 0 {
		ti := indicators.Compute(req.Bars, cfg.Indicators)
		p.technical = &ti
	}
	return assemble(req, snap, p, scoring.NewScorer(cfg.Scoring))
}

// Analyze validates req and evaluates it with the strike analyses and the
// technical pass running concurrently. The scorer is the join point.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if req.CurrentPrice <= 0 {
		return nil, ErrInvalidPrice
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := e.now()

	snap := chain.NewSnapshot(req.CurrentPrice, chain.Merge(req.OI, req.Volume, req.OIChange))
	cfg := e.cfg.Analytics

	var p parts
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	run(func() { p.walls = analytics.DetectWalls(snap.Strikes, cfg.WallLevels) })
	run(func() { p.pcr = analytics.CalculatePCR(snap.Strikes, snap.CurrentPrice, cfg) })
	run(func() { p.maxPain = analytics.CalculateMaxPain(snap.Strikes, snap.CurrentPrice, cfg) })
	run(func() { p.volume = analytics.AnalyzeVolume(snap.Strikes, snap.CurrentPrice, cfg) })
	if len(req.Bars) > 0 {
		run(func() {
			ti := indicators.Compute(req.Bars, e.cfg.Indicators)
			p.technical = &ti
		})
	}
	wg.Wait()

	a := assemble(req, snap, p, e.scorer)
	a.ID = uuid.New().String()
	a.GeneratedAt = e.now().UTC()

	elapsed := float64(e.now().Sub(start).Microseconds()) / 1000
	e.metrics.RecordAnalysis(req.Ticker, string(a.Signal.Signal), a.Signal.Score, elapsed, a.SyntheticSeries)
	e.logger.Debug("analysis complete",
		zap.String("id", a.ID),
		zap.String("ticker", req.Ticker),
		zap.Int("strikes", len(snap.Strikes)),
		zap.Float64("score", a.Signal.Score),
		zap.String("signal", string(a.Signal.Signal)),
		zap.Int("warnings", len(a.Warnings)),
		zap.Float64("latency_ms", elapsed))

	return &a, nil
}

// AnalyzeTicker loads the latest chain for ticker from storage, overlays the
// price feed quote when one is available and attaches a bar series. Quote and
// bar failures are tolerated; a missing series falls back to a synthetic one
// when the config allows it.
func (e *Engine) AnalyzeTicker(ctx context.Context, ticker, expiry string) (*Analysis, error) {
	if e.gw.Storage == nil {
		return nil, ErrNoStorage
	}
	sets, err := e.gw.Storage.LatestStrikes(ctx, ticker, expiry)
	if err != nil {
		e.metrics.RecordError("storage", "load")
		return nil, fmt.Errorf("load %s chain: %w", ticker, err)
	}
	return e.AnalyzeSets(ctx, sets)
}

// AnalyzeSets analyzes source sets that were loaded elsewhere, such as a
// playback step, with the same quote and bar handling as AnalyzeTicker.
func (e *Engine) AnalyzeSets(ctx context.Context, sets *chain.SourceSets) (*Analysis, error) {
	ticker := sets.Ticker
	req := Request{
		Ticker:       ticker,
		CurrentPrice: sets.Spot,
		OI:           sets.OI,
		Volume:       sets.Volume,
		OIChange:     sets.OIChange,
	}

	if e.gw.PriceFeed != nil {
		quote, err := e.gw.PriceFeed.Quote(ctx, ticker)
		switch {
		case err != nil:
			e.metrics.RecordError("pricefeed", "quote")
			e.logger.Warn("quote unavailable, using snapshot spot", zap.String("ticker", ticker), zap.Error(err))
		case quote != nil:
			if quote.Spot > 0 {
				req.CurrentPrice = quote.Spot
			}
			req.Spread = quote.Spread
		}
	}

	req.Bars, req.SyntheticSeries = e.loadBars(ctx, ticker, req.CurrentPrice, sets.Timestamp)
	return e.Analyze(ctx, req)
}

func (e *Engine) loadBars(ctx context.Context, ticker string, price float64, ts int64) ([]indicators.Bar, bool) {
	if e.gw.Series != nil {
		bars, err := e.gw.Series.Bars(ctx, ticker, e.cfg.BarsLimit)
		if err == nil && len(bars) > 0 {
			return bars, false
		}
		if err != nil {
			e.metrics.RecordError("pricefeed", "bars")
			e.logger.Warn("price series unavailable", zap.String("ticker", ticker), zap.Error(err))
		}
	}
	if !e.cfg.AllowSynthetic || price <= 0 {
		return nil, false
	}

	end := e.now().UTC()
	if ts > 0 {
		end = time.Unix(ts, 0).UTC()
	}
	e.logger.Debug("using synthetic price series", zap.String("ticker", ticker))
	return indicators.SyntheticSeries(price, e.cfg.SyntheticBars, seedFor(ticker, ts), end), true
}

// seedFor makes the synthetic series reproducible per ticker and snapshot.
func seedFor(ticker string, ts int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return int64(h.Sum64()>>1) ^ ts
}

func assemble(req Request, snap chain.MarketSnapshot, p parts, scorer *scoring.Scorer) Analysis {
	sig := scorer.Score(scoring.Input{
		Snapshot: snap,
		Walls:    p.walls,
		PCR:      p.pcr,
		MaxPain:  p.maxPain,
		Volume:   p.volume,
	})

	a := Analysis{
		Ticker:          req.Ticker,
		Snapshot:        snap,
		Walls:           p.walls,
		PCR:             p.pcr,
		MaxPain:         p.maxPain,
		Volume:          p.volume,
		Technical:       p.technical,
		SyntheticSeries: req.SyntheticSeries && p.technical != nil,
		Spread:          req.Spread,
		Signal:          sig,
	}
	a.Warnings = warnings(a)
	return a
}
