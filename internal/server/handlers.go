package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/data"
	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/metrics"
	"github.com/dgnsrekt/chainsignal/internal/notify"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
	"github.com/dgnsrekt/chainsignal/internal/ws"
)

// Analyzer is the part of engine.Engine the server needs.
type Analyzer interface {
	Analyze(ctx context.Context, req engine.Request) (*engine.Analysis, error)
	AnalyzeTicker(ctx context.Context, ticker, expiry string) (*engine.Analysis, error)
}

// Options are the server's optional collaborators. Nil fields disable the
// routes or side effects that need them.
type Options struct {
	Store     cache.Store
	Notifier  notify.Notifier
	Reload    *ReloadManager
	Metrics   *metrics.Metrics
	Hub       *ws.Hub
	Negotiate *ws.NegotiateHandler
	Loader    string
	Playback  string
}

type Server struct {
	analyzer  Analyzer
	store     cache.Store
	notifier  notify.Notifier
	reload    *ReloadManager
	metrics   *metrics.Metrics
	hub       *ws.Hub
	negotiate *ws.NegotiateHandler
	loader    string
	playback  string
	logger    *zap.Logger
}

func NewServer(analyzer Analyzer, opts Options, logger *zap.Logger) *Server {
	s := &Server{
		analyzer:  analyzer,
		store:     opts.Store,
		notifier:  opts.Notifier,
		reload:    opts.Reload,
		metrics:   opts.Metrics,
		hub:       opts.Hub,
		negotiate: opts.Negotiate,
		loader:    opts.Loader,
		playback:  opts.Playback,
		logger:    logger,
	}
	if s.hub != nil && s.negotiate == nil {
		s.negotiate = ws.NewNegotiateHandler(s.tickers, logger)
	}
	return s
}

type HealthResponse struct {
	Status    string    `json:"status"`
	DataDate  string    `json:"data_date,omitempty"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Reloading bool      `json:"reloading"`
	Loader    string    `json:"loader,omitempty"`
	Playback  string    `json:"playback,omitempty"`
	Clients   int       `json:"ws_clients"`
}

type TickersResponse struct {
	Tickers []string `json:"tickers"`
	Count   int      `json:"count"`
}

type SignalResponse struct {
	Ticker      string                `json:"ticker"`
	Cached      bool                  `json:"cached"`
	AnalysisID  string                `json:"analysis_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Signal      scoring.TradingSignal `json:"signal"`
	Warnings    []string              `json:"warnings,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Loader:   s.loader,
		Playback: s.playback,
	}
	if s.reload != nil {
		resp.DataDate = s.reload.CurrentDate()
		resp.LoadedAt = s.reload.LoadedAt()
		resp.Reloading = s.reload.IsReloading()
	}
	if s.hub != nil {
		resp.Clients = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetTickers(w http.ResponseWriter, r *http.Request) {
	tickers := s.tickers()
	writeJSON(w, http.StatusOK, TickersResponse{Tickers: tickers, Count: len(tickers)})
}

func (s *Server) tickers() []string {
	if s.reload == nil {
		return []string{}
	}
	return s.reload.Tickers()
}

// GetSignal serves the cached signal for a ticker, or analyzes the latest
// snapshot when nothing is cached or fresh=true.
func (s *Server) GetSignal(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	expiry := r.URL.Query().Get("expiry")
	fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh"))
	ctx := r.Context()

	if s.store != nil && !fresh && expiry == "" {
		entry, err := s.store.Get(ctx, ticker)
		if err != nil {
			s.metrics.RecordError("cache", "get")
			s.logger.Warn("signal cache read failed", zap.String("ticker", ticker), zap.Error(err))
		}
		if entry != nil {
			writeJSON(w, http.StatusOK, SignalResponse{
				Ticker:      entry.Ticker,
				Cached:      true,
				AnalysisID:  entry.AnalysisID,
				GeneratedAt: entry.GeneratedAt,
				Signal:      entry.Signal,
			})
			return
		}
	}

	a, err := s.analyzer.AnalyzeTicker(ctx, ticker, expiry)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNotFound):
			writeError(w, http.StatusNotFound, "no snapshot for "+ticker)
		case errors.Is(err, data.ErrExhausted):
			writeError(w, http.StatusNotFound, "no more snapshots for "+ticker)
		default:
			s.logger.Error("analysis failed", zap.String("ticker", ticker), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.publish(ctx, a)

	writeJSON(w, http.StatusOK, SignalResponse{
		Ticker:      a.Ticker,
		AnalysisID:  a.ID,
		GeneratedAt: a.GeneratedAt,
		Signal:      a.Signal,
		Warnings:    a.Warnings,
	})
}

// Analyze runs the pipeline on a chain supplied in the body.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidPrice) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeError(w, http.StatusNotFound, "reload is not available")
		return
	}

	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.reload.Reload(r.Context(), body.Date)
	if err != nil {
		switch {
		case errors.Is(err, ErrReloadInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidDate):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) ResetPlayback(w http.ResponseWriter, r *http.Request) {
	consumer := r.URL.Query().Get("consumer")
	count := 0
	if s.reload != nil {
		count = s.reload.ResetPlayback(consumer)
	}

	s.logger.Info("playback reset",
		zap.String("consumer", consumer),
		zap.Int("count", count),
	)
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// publish caches the signal and sends an alert when it is strong enough.
func (s *Server) publish(ctx context.Context, a *engine.Analysis) {
	if s.store != nil {
		entry := &cache.Entry{
			Ticker:      a.Ticker,
			AnalysisID:  a.ID,
			GeneratedAt: a.GeneratedAt,
			Signal:      a.Signal,
		}
		if err := s.store.Put(ctx, entry); err != nil {
			s.metrics.RecordError("cache", "put")
			s.logger.Warn("failed to cache signal", zap.String("ticker", a.Ticker), zap.Error(err))
		}
	}
	if s.notifier != nil {
		sent, err := s.notifier.SendSignal(ctx, a.Ticker, &a.Signal)
		if err != nil {
			s.metrics.RecordError("notify", "send")
		} else if sent {
			s.metrics.RecordNotification()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
