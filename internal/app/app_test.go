package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/chain"
	"github.com/dgnsrekt/chainsignal/internal/config"
	"github.com/dgnsrekt/chainsignal/internal/data"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	tickerDir := filepath.Join(dir, "2025-11-14", "GC")
	if err := os.MkdirAll(tickerDir, 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(tickerDir, data.SourceOI+".jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	enc := json.NewEncoder(f)
	for _, ts := range []int64{100, 200} {
		rec := data.SnapshotRecord{Timestamp: ts, Ticker: "GC", Spot: 2750.5, Strikes: []chain.StrikeRecord{
			{StrikePrice: 2700, CallOI: 1234, PutOI: 5678},
			{StrikePrice: 2800, CallOI: 4567, PutOI: 1234},
		}}
		if err := enc.Encode(rec); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	t.Setenv("CHAINSIGNAL_DATA_DIRECTORY", dir)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ResolveDataDate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.Playback != nil || a.Index != nil {
		t.Error("expected playback off by default")
	}
	if _, ok := a.Store.(*cache.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", a.Store)
	}

	an, err := a.Engine.AnalyzeTicker(context.Background(), "GC", "")
	if err != nil {
		t.Fatal(err)
	}
	if an.Snapshot.CurrentPrice != 2750.5 || an.Walls.Support.Strike != 2700 {
		t.Errorf("unexpected analysis: price %v support %v", an.Snapshot.CurrentPrice, an.Walls.Support.Strike)
	}
}

func TestNew_Playback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Playback = string(data.CacheModeExhaust)

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := a.Engine.AnalyzeTicker(ctx, "GC", ""); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if _, err := a.Engine.AnalyzeTicker(ctx, "GC", ""); !errors.Is(err, data.ErrExhausted) {
		t.Errorf("expected ErrExhausted after the last step, got %v", err)
	}
}

func TestNew_MissingData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Date = "2030-01-01"

	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Error("expected error for a missing data date")
	}
}

func TestHandler(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler, err := a.Handler(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/health", "/api/v1/tickers", "/api/v1/signal/GC", "/ws/negotiate", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}
