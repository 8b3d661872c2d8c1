package data

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

type MemoryLoader struct {
	data   map[string][]SnapshotRecord // key: ticker/source
	logger *zap.Logger
}

var _ SnapshotLoader = (*MemoryLoader)(nil)

func NewMemoryLoader(dataDir, date string, logger *zap.Logger) (*MemoryLoader, error) {
	loader := &MemoryLoader{
		data:   make(map[string][]SnapshotRecord),
		logger: logger,
	}

	err := walkSources(dataDir, date, func(path, ticker, source string) error {
		key := DataKey(ticker, source)

		records, err := loadJSONL(path)
		if err != nil {
			logger.Warn("failed to load file", zap.String("path", path), zap.Error(err))
			return nil
		}

		loader.data[key] = records
		logger.Info("loaded data",
			zap.String("key", key),
			zap.Int("count", len(records)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(loader.data) == 0 {
		return nil, fmt.Errorf("no snapshot files found for %s in %s", date, dataDir)
	}

	return loader, nil
}

func loadJSONL(path string) ([]SnapshotRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []SnapshotRecord
	scanner := bufio.NewScanner(file)

	// Full chains can produce long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec SnapshotRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (m *MemoryLoader) GetAtIndex(ctx context.Context, ticker, source string, index int) (*SnapshotRecord, error) {
	records, ok := m.data[DataKey(ticker, source)]
	if !ok {
		return nil, ErrNotFound
	}
	if index < 0 || index >= len(records) {
		return nil, ErrIndexOutOfBounds
	}
	rec := records[index]
	return &rec, nil
}

func (m *MemoryLoader) GetLength(ticker, source string) (int, error) {
	records, ok := m.data[DataKey(ticker, source)]
	if !ok {
		return 0, ErrNotFound
	}
	return len(records), nil
}

func (m *MemoryLoader) Exists(ticker, source string) bool {
	_, ok := m.data[DataKey(ticker, source)]
	return ok
}

func (m *MemoryLoader) Close() error {
	m.data = nil
	return nil
}

func (m *MemoryLoader) GetLoadedKeys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
