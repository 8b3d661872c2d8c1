// Package batch analyzes many tickers concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/data"
	"github.com/dgnsrekt/chainsignal/internal/engine"
)

// Analyzer is the part of engine.Engine the batch needs.
type Analyzer interface {
	AnalyzeTicker(ctx context.Context, ticker, expiry string) (*engine.Analysis, error)
}

type Manager struct {
	analyzer Analyzer
	store    cache.Store
	workers  int
	logger   *zap.Logger
}

type BatchResult struct {
	Total    int
	Success  int
	NotFound int
	Failed   int
	Errors   []string
	// Results holds successful analyses ordered by ticker.
	Results []*engine.Analysis
}

// NewManager creates a Manager. store may be nil.
func NewManager(analyzer Analyzer, store cache.Store, workers int, logger *zap.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		analyzer: analyzer,
		store:    store,
		workers:  workers,
		logger:   logger,
	}
}

func (m *Manager) Execute(ctx context.Context, tasks []Task) (*BatchResult, error) {
	result := &BatchResult{Total: len(tasks)}

	if len(tasks) == 0 {
		return result, nil
	}

	jobs := make(chan Task, len(tasks))
	results := make(chan TaskResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			m.worker(ctx, workerID, jobs, results)
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		switch {
		case r.NotFound:
			result.NotFound++
		case r.Success:
			result.Success++
			result.Results = append(result.Results, r.Analysis)
		default:
			result.Failed++
			if r.Error != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task, r.Error))
			}
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Ticker < result.Results[j].Ticker
	})
	sort.Strings(result.Errors)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (m *Manager) worker(ctx context.Context, id int, jobs <-chan Task, results chan<- TaskResult) {
	for task := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := m.processTask(ctx, id, task)

		select {
		case <-ctx.Done():
			return
		case results <- result:
		}
	}
}

func (m *Manager) processTask(ctx context.Context, workerID int, task Task) TaskResult {
	result := TaskResult{Task: task}

	m.logger.Debug("analyzing", zap.String("task", task.String()), zap.Int("worker", workerID))

	a, err := m.analyzer.AnalyzeTicker(ctx, task.Ticker, task.Expiry)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			m.logger.Debug("no snapshot", zap.String("task", task.String()))
			result.NotFound = true
			return result
		}
		result.Error = err
		return result
	}

	if m.store != nil {
		entry := &cache.Entry{
			Ticker:      a.Ticker,
			AnalysisID:  a.ID,
			GeneratedAt: a.GeneratedAt,
			Signal:      a.Signal,
		}
		if err := m.store.Put(ctx, entry); err != nil {
			m.logger.Warn("failed to cache signal", zap.String("ticker", a.Ticker), zap.Error(err))
		}
	}

	result.Success = true
	result.Analysis = a
	m.logger.Info("analyzed",
		zap.String("task", task.String()),
		zap.String("signal", string(a.Signal.Signal)),
		zap.Float64("score", a.Signal.Score),
	)

	return result
}
