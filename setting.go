package prefstore

import "fmt"

// Setting is a typed preference with an in-memory cache of the last known
// value.
//
// A Setting is meant to be declared once, near startup, and to live for
// the process lifetime. Reads never fail: an absent key or a missing
// store resolves to the default. Writes dispatch through the Prefs
// transaction slot; see Write.
//
// One documented imprecision: when a persisted value equals the resolved
// default, a read cannot distinguish it from an absent key, so the cache
// stays invalid and the store is consulted again next time. The returned
// value is correct either way.
//
// Settings sharing a path alias the same persisted value but keep
// independent caches; do not create two writable settings on one path.
type Setting[T Value] struct {
	prefs *Prefs
	path  string

	defaultValue T
	defaultFn    func() T

	valid    bool
	current  T
	previous T
}

// NewSetting declares a setting with a fixed default value.
func NewSetting[T Value](p *Prefs, path string, def T) *Setting[T] {
	s := &Setting[T]{prefs: p, path: path, defaultValue: def}
	p.register(s)
	return s
}

// NewSettingFunc declares a setting whose default is recomputed on every
// query, for defaults that depend on other live state.
func NewSettingFunc[T Value](p *Prefs, path string, fn func() T) *Setting[T] {
	s := &Setting[T]{prefs: p, path: path, defaultFn: fn}
	p.register(s)
	return s
}

// Path returns the setting's hierarchical key path.
func (s *Setting[T]) Path() string {
	return s.path
}

// Default returns the configured default, invoking the default function
// when one is set.
func (s *Setting[T]) Default() T {
	if s.defaultFn != nil {
		return s.defaultFn()
	}
	return s.defaultValue
}

// Read returns the cached value if valid, else the stored value, else the
// default. It never fails; absence of a persisted value is the default
// path, not an error.
func (s *Setting[T]) Read() T {
	return s.ReadWithDefault(s.Default())
}

// ReadWithDefault is Read resolved against a caller-supplied fallback
// instead of the configured default. Intended for legacy call sites that
// need a different default without declaring a second setting.
func (s *Setting[T]) ReadWithDefault(fallback T) T {
	if s.valid {
		return s.current
	}

	store := s.prefs.Store()
	if store == nil {
		s.valid = false
		return fallback
	}

	raw, ok := store.Get(s.path)
	if !ok {
		s.valid = false
		s.current = fallback
		return fallback
	}

	v, ok := coerce[T](raw)
	if !ok {
		// Persisted value of the wrong type reads as absent.
		s.valid = false
		return fallback
	}

	s.current = v
	// A stored value equal to the fallback is indistinguishable from an
	// absent key, so validity is withheld in that case.
	s.valid = v != fallback
	return v
}

// Write stores a value.
//
// Outside a transaction the write is applied to the store immediately
// without a flush, and the error reports store failure (ErrNoStore when
// no store is attached). Inside a transaction the write is staged: the
// first write snapshots the current value for rollback, and every write
// updates only the in-memory cache and returns nil.
func (s *Setting[T]) Write(value T) error {
	switch s.prefs.stage(s) {
	case Added:
		s.previous = s.Read()
		s.current = value
		return nil
	case PreviouslyAdded:
		s.current = value
		return nil
	default:
		s.current = value
		if err := s.doWrite(); err != nil {
			return err
		}
		s.prefs.publishSet(s.path, value, "write")
		return nil
	}
}

// Reset writes the resolved default.
func (s *Setting[T]) Reset() error {
	return s.Write(s.Default())
}

// Commit writes the cached value to the store without flushing. It is
// invoked by the owning transaction.
func (s *Setting[T]) Commit() error {
	return s.doWrite()
}

// Rollback restores the cache to the value captured when the setting was
// first staged. It performs no store I/O and never fails.
func (s *Setting[T]) Rollback() {
	s.current = s.previous
}

// Invalidate clears the cache, forcing the next read to consult the
// store.
func (s *Setting[T]) Invalidate() {
	s.valid = false
}

// Delete removes the persisted key and invalidates the cache. The
// default applies on the next read.
func (s *Setting[T]) Delete() error {
	s.valid = false

	store := s.prefs.Store()
	if store == nil {
		return ErrNoStore
	}
	if err := store.Delete(s.path); err != nil {
		return fmt.Errorf("deleting %s: %w", s.path, err)
	}
	s.prefs.publishDelete(s.path, "delete")
	return nil
}

// doWrite persists the cached value. The store is not flushed.
func (s *Setting[T]) doWrite() error {
	store := s.prefs.Store()
	if store == nil {
		s.valid = false
		return ErrNoStore
	}
	if err := store.Set(s.path, s.current); err != nil {
		s.valid = false
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	s.valid = true
	return nil
}

// value reports the cached value for change notification.
func (s *Setting[T]) value() any {
	return s.current
}

// IntSetting stores an int preference.
type IntSetting = Setting[int]

// FloatSetting stores a float64 preference.
type FloatSetting = Setting[float64]

// StringSetting stores a string preference.
type StringSetting = Setting[string]

// NewInt declares an int setting with a fixed default.
func NewInt(p *Prefs, path string, def int) *IntSetting {
	return NewSetting(p, path, def)
}

// NewFloat declares a float64 setting with a fixed default.
func NewFloat(p *Prefs, path string, def float64) *FloatSetting {
	return NewSetting(p, path, def)
}

// NewString declares a string setting with a fixed default.
func NewString(p *Prefs, path string, def string) *StringSetting {
	return NewSetting(p, path, def)
}

// BoolSetting stores a bool preference and adds Toggle.
type BoolSetting struct {
	Setting[bool]
}

// NewBool declares a bool setting with a fixed default.
func NewBool(p *Prefs, path string, def bool) *BoolSetting {
	s := &BoolSetting{Setting[bool]{prefs: p, path: path, defaultValue: def}}
	p.register(&s.Setting)
	return s
}

// Toggle writes the negation of the current value and returns the value
// after the write.
func (s *BoolSetting) Toggle() (bool, error) {
	next := !s.Read()
	if err := s.Write(next); err != nil {
		return s.Read(), err
	}
	return next, nil
}
