package batch

import (
	"fmt"

	"github.com/dgnsrekt/chainsignal/internal/engine"
)

type Task struct {
	Ticker string
	Expiry string
}

func (t Task) String() string {
	if t.Expiry == "" {
		return t.Ticker
	}
	return fmt.Sprintf("%s/%s", t.Ticker, t.Expiry)
}

type TaskResult struct {
	Task     Task
	Success  bool
	NotFound bool
	Analysis *engine.Analysis
	Error    error
}

// TasksFor builds one task per ticker for the given expiry ("" means latest).
func TasksFor(tickers []string, expiry string) []Task {
	tasks := make([]Task, 0, len(tickers))
	for _, t := range tickers {
		tasks = append(tasks, Task{Ticker: t, Expiry: expiry})
	}
	return tasks
}
