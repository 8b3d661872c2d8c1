package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/data"
	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

type mockAnalyzer struct {
	notFound map[string]bool
	failing  map[string]bool
}

func (m *mockAnalyzer) AnalyzeTicker(ctx context.Context, ticker, expiry string) (*engine.Analysis, error) {
	if m.notFound[ticker] {
		return nil, fmt.Errorf("load %s chain: %w", ticker, data.ErrNotFound)
	}
	if m.failing[ticker] {
		return nil, errors.New("boom")
	}
	return &engine.Analysis{
		ID:     "id-" + ticker,
		Ticker: ticker,
		Signal: scoring.TradingSignal{Signal: scoring.Buy, Score: 62},
	}, nil
}

func TestManager(t *testing.T) {
	analyzer := &mockAnalyzer{
		notFound: map[string]bool{"NDX": true},
		failing:  map[string]bool{"RUT": true},
	}
	store := cache.NewMemoryStore(0)
	logger, _ := zap.NewDevelopment()
	mgr := NewManager(analyzer, store, 2, logger)

	tasks := TasksFor([]string{"SPX", "GC", "NDX", "RUT"}, "")

	result, err := mgr.Execute(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Total != 4 {
		t.Errorf("expected total 4, got %d", result.Total)
	}
	if result.Success != 2 {
		t.Errorf("expected 2 successful, got %d", result.Success)
	}
	if result.NotFound != 1 {
		t.Errorf("expected 1 not found, got %d", result.NotFound)
	}
	if result.Failed != 1 || len(result.Errors) != 1 || result.Errors[0] != "RUT: boom" {
		t.Errorf("expected one RUT failure, got %d %v", result.Failed, result.Errors)
	}

	if len(result.Results) != 2 || result.Results[0].Ticker != "GC" || result.Results[1].Ticker != "SPX" {
		t.Errorf("expected results ordered by ticker, got %+v", result.Results)
	}

	entry, err := store.Get(context.Background(), "SPX")
	if err != nil || entry == nil {
		t.Fatalf("expected SPX signal cached, got %+v %v", entry, err)
	}
	if entry.AnalysisID != "id-SPX" || entry.Signal.Score != 62 {
		t.Errorf("unexpected cache entry %+v", entry)
	}
}

func TestManager_Empty(t *testing.T) {
	mgr := NewManager(&mockAnalyzer{}, nil, 0, zap.NewNop())
	result, err := mgr.Execute(context.Background(), nil)
	if err != nil || result.Total != 0 {
		t.Errorf("expected empty result, got %+v %v", result, err)
	}
}

func TestManager_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mgr := NewManager(&mockAnalyzer{}, nil, 2, zap.NewNop())
	if _, err := mgr.Execute(ctx, TasksFor([]string{"SPX"}, "")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTask(t *testing.T) {
	if s := (Task{Ticker: "GC"}).String(); s != "GC" {
		t.Errorf("unexpected String: %s", s)
	}
	if s := (Task{Ticker: "GC", Expiry: "2026-01-27"}).String(); s != "GC/2026-01-27" {
		t.Errorf("unexpected String: %s", s)
	}
}
