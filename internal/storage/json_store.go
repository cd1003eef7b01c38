package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore reads and writes one JSON document on disk. Writes go to a
// temporary file that is renamed over the target, so readers never observe a
// partially written snapshot.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates dataDir if needed and returns a store for filename in it.
func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONStore{path: filepath.Join(dataDir, filename)}, nil
}

func (s *JSONStore) Path() string { return s.path }

// Load decodes the file into v. It reports false when no snapshot exists yet.
func (s *JSONStore) Load(v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return false, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return true, nil
}

// Save replaces the snapshot with v.
func (s *JSONStore) Save(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
