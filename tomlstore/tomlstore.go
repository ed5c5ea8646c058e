// Package tomlstore provides a TOML file preference store.
//
// Keys are dot-separated paths mapped onto nested TOML tables:
// "editor.tabSize" lives under [editor] as tabSize. Writes mutate an
// in-memory document; Flush marshals it and replaces the file atomically
// via a temporary file and rename.
package tomlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Store is a TOML-file prefstore.Store.
type Store struct {
	mu    sync.Mutex
	path  string
	data  map[string]any
	dirty bool
}

// Open loads the document at path. A missing file yields an empty
// document and is not an error; it is created on the first Flush.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]any)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value at a dot-separated path.
func (s *Store) Get(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getByPath(s.data, path)
}

// Set writes the value at a dot-separated path, creating intermediate
// tables as needed. The document is not persisted until Flush.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	setByPath(s.data, path, value)
	s.dirty = true
	return nil
}

// Delete removes the key at a dot-separated path. Deleting an absent key
// is not an error.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deleteByPath(s.data, path) {
		s.dirty = true
	}
	return nil
}

// Flush writes the document to the backing file. The file is replaced
// atomically so a crash mid-write never leaves a truncated document.
// Flushing a clean store is a no-op.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	raw, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	s.dirty = false
	return nil
}

// getByPath navigates nested tables using a dot-separated path.
func getByPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := any(data)

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setByPath sets a value in nested tables, creating or replacing
// intermediates as needed.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[parts[i]] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// deleteByPath removes a key from nested tables, reporting whether it
// was present.
func deleteByPath(data map[string]any, path string) bool {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	leaf := parts[len(parts)-1]
	if _, ok := current[leaf]; !ok {
		return false
	}
	delete(current, leaf)
	return true
}
