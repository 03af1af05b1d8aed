package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/intelcave/thinkmachine/logging"
)

// DurableStore is a Store backed by a single JSON object file.
//
// Every operation reloads the whole mapping from disk before acting, so edits
// made to the file by other processes are picked up. Put and Delete rewrite
// the file in full afterwards. The store never creates the file: opening a
// missing or malformed file fails.
type DurableStore struct {
	mu      sync.Mutex
	path    string
	scope   Scope
	entries map[string]string
	logger  logging.Logger
}

var _ Store = (*DurableStore)(nil)

// DurableOption configures a DurableStore.
type DurableOption func(*DurableStore)

// WithLogger sets the logger used for load and flush diagnostics.
func WithLogger(l logging.Logger) DurableOption {
	return func(s *DurableStore) { s.logger = logging.OrNoOp(l) }
}

// WithScope overrides the Persistent scope used in messages.
func WithScope(scope Scope) DurableOption {
	return func(s *DurableStore) { s.scope = scope }
}

// OpenDurableStore loads the file at path and returns a store bound to it.
func OpenDurableStore(path string, opts ...DurableOption) (*DurableStore, error) {
	s := &DurableStore{
		path:   path,
		scope:  Persistent,
		logger: logging.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.logger.Debug("durable store opened", "path", path, "keys", len(s.entries))
	return s, nil
}

// InitDurableFile writes an empty JSON object to path unless a file already exists there.
func InitDurableFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte("{}\n"), 0o644)
}

// Path returns the backing file path.
func (s *DurableStore) Path() string { return s.path }

func (s *DurableStore) Scope() Scope { return s.scope }

// Keys reloads the file and returns its keys in sorted order.
func (s *DurableStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return sortedKeys(s.entries), nil
}

// Put reloads the file, sets key and writes the mapping back. Keys and values
// must be valid UTF-8, since the JSON encoder would replace invalid bytes.
func (s *DurableStore) Put(_ context.Context, key, value string) error {
	if !utf8.ValidString(key) || !utf8.ValidString(value) {
		return ErrInvalidEncoding
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	s.entries[key] = value
	return s.flush()
}

// Get reloads the file and looks key up.
func (s *DurableStore) Get(_ context.Context, key string) (Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Lookup{}, err
	}
	v, ok := s.entries[key]
	return Lookup{Scope: s.scope, Key: key, Value: v, Found: ok}, nil
}

// Delete reloads the file, removes key and writes the mapping back. The file
// is rewritten even when key was absent.
func (s *DurableStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	delete(s.entries, key)
	return s.flush()
}

func (s *DurableStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrStoreMissing, s.path)
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: %s", ErrStoreCorrupt, s.path)
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, s.path, err)
	}
	s.entries = entries
	return nil
}

// flush writes to a temporary sibling and renames it over the target.
func (s *DurableStore) flush() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".memory-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}

	s.logger.Debug("durable store flushed", "path", s.path, "keys", len(s.entries))
	return nil
}
