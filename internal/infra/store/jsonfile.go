// Package store provides persistence backends for favorites.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/syncin/internal/domain/favorite"
)

// JSONFile stores favorites as a JSON array in a single file.
// The file is rewritten atomically on every save.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile creates a JSON file store at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the file path.
func (s *JSONFile) Path() string {
	return s.path
}

// Load reads all entries. A missing file yields no entries.
func (s *JSONFile) Load() ([]favorite.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read favorites file %s", s.path)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []favorite.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse favorites file %s", s.path)
	}
	return entries, nil
}

// Save replaces the file content with entries.
func (s *JSONFile) Save(entries []favorite.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []favorite.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode favorites")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".favorites-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write favorites")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace favorites file %s", s.path)
	}
	return nil
}
