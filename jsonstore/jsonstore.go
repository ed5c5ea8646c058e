// Package jsonstore provides a JSON file preference store.
//
// The document is held as raw bytes and addressed with gjson/sjson dot
// paths, so "editor.tabSize" reads and writes the nested object form
// {"editor":{"tabSize":4}}. Flush writes the document back to the file.
package jsonstore

import (
	"fmt"
	"os"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Store is a JSON-file prefstore.Store.
type Store struct {
	mu    sync.Mutex
	path  string
	doc   []byte
	dirty bool
}

// Open loads the document at path. A missing file yields an empty
// document and is not an error; it is created on the first Flush.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: []byte("{}")}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("parsing %s: invalid JSON document", path)
	}
	s.doc = raw
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value at a dot-separated path. JSON numbers decode as
// float64; typed settings coerce them.
func (s *Store) Get(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := gjson.GetBytes(s.doc, path)
	if !r.Exists() {
		return nil, false
	}
	return r.Value(), true
}

// Set writes the value at a dot-separated path. The document is not
// persisted until Flush.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := sjson.SetBytes(s.doc, path, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	s.doc = doc
	s.dirty = true
	return nil
}

// Delete removes the key at a dot-separated path. Deleting an absent key
// is not an error.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !gjson.GetBytes(s.doc, path).Exists() {
		return nil
	}
	doc, err := sjson.DeleteBytes(s.doc, path)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	s.doc = doc
	s.dirty = true
	return nil
}

// Flush writes the document to the backing file. Flushing a clean store
// is a no-op.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := os.WriteFile(s.path, s.doc, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}
