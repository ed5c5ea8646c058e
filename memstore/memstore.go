// Package memstore provides an in-memory preference store.
//
// It implements prefstore.Store over a flat map and adds fault injection
// and flush counting, which makes it the backend of choice for tests and
// for programs that want preferences without persistence.
package memstore

import (
	"errors"
	"sync"
)

// ErrWriteFailed is returned by Set and Delete while write faults are
// injected.
var ErrWriteFailed = errors.New("memstore: write failed")

// ErrFlushFailed is returned by Flush while flush faults are injected.
var ErrFlushFailed = errors.New("memstore: flush failed")

// Store is an in-memory prefstore.Store. The zero value is not usable;
// call New.
type Store struct {
	mu     sync.RWMutex
	values map[string]any

	flushes    int
	failWrites bool
	failFlush  bool
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// Get returns the value at path.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[path]
	return v, ok
}

// Set writes the value at path.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return ErrWriteFailed
	}
	s.values[path] = value
	return nil
}

// Delete removes the key at path. Deleting an absent key is not an
// error.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return ErrWriteFailed
	}
	delete(s.values, path)
	return nil
}

// Flush is a no-op persist that counts invocations.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFlush {
		return ErrFlushFailed
	}
	s.flushes++
	return nil
}

// Has reports whether a key is present.
func (s *Store) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[path]
	return ok
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Flushes returns the number of successful Flush calls.
func (s *Store) Flushes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flushes
}

// FailWrites toggles write fault injection: Set and Delete fail while
// enabled.
func (s *Store) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// FailFlush toggles flush fault injection.
func (s *Store) FailFlush(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFlush = fail
}
