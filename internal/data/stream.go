package data

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// StreamLoader reads JSONL files on demand. Each line is indexed by its byte
// span at load time and read with ReadAt, so lookups never share a file
// position and need no lock beyond the index map.
type StreamLoader struct {
	spans  map[string][]span   // key -> line spans
	files  map[string]*os.File // key -> open file handle
	mu     sync.RWMutex
	logger *zap.Logger
}

// span locates one record inside its file.
type span struct {
	offset int64
	length int
}

var _ SnapshotLoader = (*StreamLoader)(nil)

func NewStreamLoader(dataDir, date string, logger *zap.Logger) (*StreamLoader, error) {
	loader := &StreamLoader{
		spans:  make(map[string][]span),
		files:  make(map[string]*os.File),
		logger: logger,
	}

	err := walkSources(dataDir, date, func(path, ticker, source string) error {
		key := DataKey(ticker, source)

		spans, file, err := indexFile(path)
		if err != nil {
			logger.Warn("failed to index file", zap.String("path", path), zap.Error(err))
			return nil
		}

		loader.spans[key] = spans
		loader.files[key] = file

		logger.Info("indexed data",
			zap.String("key", key),
			zap.Int("count", len(spans)),
		)
		return nil
	})
	if err != nil {
		loader.Close()
		return nil, err
	}

	if len(loader.spans) == 0 {
		return nil, fmt.Errorf("no snapshot files found for %s in %s", date, dataDir)
	}

	return loader, nil
}

// indexFile records the span of every non-blank line and keeps the file
// open for later reads.
func indexFile(path string) ([]span, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var spans []span
	var offset int64

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if body := bytes.TrimSpace(line); len(body) > 0 {
			lead := bytes.Index(line, body)
			spans = append(spans, span{offset: offset + int64(lead), length: len(body)})
		}
		offset += int64(len(line))

		if err == io.EOF {
			break
		}
		if err != nil {
			file.Close()
			return nil, nil, err
		}
	}

	return spans, file, nil
}

func (s *StreamLoader) GetAtIndex(ctx context.Context, ticker, source string, index int) (*SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := DataKey(ticker, source)

	s.mu.RLock()
	spans, ok := s.spans[key]
	file := s.files[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if index < 0 || index >= len(spans) {
		return nil, ErrIndexOutOfBounds
	}

	sp := spans[index]
	buf := make([]byte, sp.length)
	if _, err := file.ReadAt(buf, sp.offset); err != nil {
		return nil, fmt.Errorf("reading %s line %d: %w", key, index, err)
	}

	var rec SnapshotRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("decoding %s line %d: %w", key, index, err)
	}

	return &rec, nil
}

func (s *StreamLoader) GetLength(ticker, source string) (int, error) {
	s.mu.RLock()
	spans, ok := s.spans[DataKey(ticker, source)]
	s.mu.RUnlock()

	if !ok {
		return 0, ErrNotFound
	}
	return len(spans), nil
}

func (s *StreamLoader) Exists(ticker, source string) bool {
	s.mu.RLock()
	_, ok := s.spans[DataKey(ticker, source)]
	s.mu.RUnlock()

	return ok
}

func (s *StreamLoader) GetLoadedKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.spans))
	for k := range s.spans {
		keys = append(keys, k)
	}
	return keys
}

func (s *StreamLoader) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, file := range s.files {
		if err := file.Close(); err != nil {
			s.logger.Warn("failed to close file", zap.String("key", key), zap.Error(err))
		}
	}

	s.spans = nil
	s.files = nil
	return nil
}
