package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// File names inside the JSONL store directory.
const (
	EventsFile = "events.jsonl"
	VoiceFile  = "voicelogs.jsonl"
)

const maxLineBytes = 1 << 20

// JSONLStore appends entries to JSON lines files in a directory. Files are
// reopened on every write so external log rotation works. Lines that fail
// to decode are skipped when reading.
type JSONLStore struct {
	dir string
	mu  sync.Mutex
}

// NewJSONLStore creates the directory if needed.
func NewJSONLStore(dir string) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	return &JSONLStore{dir: dir}, nil
}

// Append implements Store.
func (s *JSONLStore) Append(_ context.Context, e Entry) error {
	return s.append(EventsFile, e)
}

// AppendQA implements Store.
func (s *JSONLStore) AppendQA(_ context.Context, qa QA) error {
	return s.append(VoiceFile, qa)
}

// List implements Store.
func (s *JSONLStore) List(_ context.Context, limit int) ([]Entry, error) {
	return readLast[Entry](s, EventsFile, limit)
}

// ListQA implements Store.
func (s *JSONLStore) ListQA(_ context.Context, limit int) ([]QA, error) {
	return readLast[QA](s, VoiceFile, limit)
}

// Close implements Store. Files are not held open.
func (s *JSONLStore) Close() error { return nil }

func (s *JSONLStore) append(name string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s entry: %w", name, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o640)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

func readLast[T any](s *JSONLStore, name string, limit int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		var v T
		if json.Unmarshal(sc.Bytes(), &v) != nil {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) > limit {
			out = out[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	slices.Reverse(out)
	if out == nil {
		out = []T{}
	}
	return out, nil
}
