package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/flexbid/core/model"
)

// JSONLStore appends one JSON line per run to a rotating file.
type JSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewJSONLStore creates a store with rotation options in megabytes and days.
func NewJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &JSONLStore{logger: lj, path: path}, nil
}

// Save appends the run and rotates the file if needed.
func (s *JSONLStore) Save(_ context.Context, res model.WeekResult) error {
	b, err := json.Marshal(NewRecord(res))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.logger.Write(append(b, '\n'))
	return err
}

// Query reads the current file and its rotated backups.
func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	if backups, err := filepath.Glob(backupPattern(s.path)); err == nil {
		files = append(files, backups...)
	}
	seen := map[string]bool{}
	var out []Record
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readJSONL(f)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if q.match(r) {
				out = append(out, r)
			}
		}
	}
	return newestFirst(out, q.Limit), nil
}

// backupPattern matches lumberjack backups, which are named
// <name>-<timestamp><ext> next to the active file.
func backupPattern(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + "-*" + ext
}

func readJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, sc.Err()
}

func (s *JSONLStore) Get(ctx context.Context, runID string) (Record, error) {
	recs, err := s.Query(ctx, Query{})
	if err != nil {
		return Record{}, err
	}
	for _, r := range recs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *JSONLStore) Latest(ctx context.Context) (Record, error) {
	recs, err := s.Query(ctx, Query{Limit: 1})
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[0], nil
}

// Close closes the underlying writer.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger.Close()
}
