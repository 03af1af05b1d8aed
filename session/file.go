package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists transcripts as individual JSON files in a directory.
// Each transcript is stored as {id}.json.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore that saves transcripts to dir.
// The directory is created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory transcripts are written to.
func (f *FileStore) Dir() string { return f.dir }

// Save writes t to disk as indented JSON.
func (f *FileStore) Save(_ context.Context, t *Transcript) error {
	if t == nil {
		return ErrNil
	}
	if !ValidID(t.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, t.ID)
	}

	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+t.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write transcript file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write transcript file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write transcript file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(t.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write transcript file: %w", err)
	}
	return nil
}

// Load reads a transcript from disk by ID.
func (f *FileStore) Load(_ context.Context, id string) (*Transcript, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	b, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read transcript file: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &t, nil
}

// List returns all transcripts on disk, most recently updated first.
// Unreadable files are skipped.
func (f *FileStore) List(ctx context.Context) ([]*Transcript, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read transcript dir: %w", err)
	}

	var out []*Transcript
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		t, err := f.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sortByUpdated(out)
	return out, nil
}

// Delete removes a transcript file.
func (f *FileStore) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := os.Remove(f.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("remove transcript file: %w", err)
	}
	return nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}
