package prefstore

import (
	"sync"

	"github.com/dshills/prefstore/notify"
)

// Prefs is the context shared by all settings of one preference store.
//
// It owns the attached Store, the single active-transaction slot, and an
// optional change broadcaster. Settings are bound to a Prefs at
// construction; a nil store is tolerated and reads then degrade to
// defaults while writes fail with ErrNoStore.
type Prefs struct {
	mu        sync.Mutex
	store     Store
	active    *Transaction
	broadcast *notify.Broadcaster
	settings  []transactional
}

// transactional is the capability a transaction needs from a staged
// setting, independent of its value type.
type transactional interface {
	Path() string
	Commit() error
	Rollback()
	Invalidate()
	value() any
}

// AddResult reports how a write was dispatched against the active
// transaction.
type AddResult int

const (
	// NotAdded means no transaction is active; the caller should write
	// eagerly.
	NotAdded AddResult = iota

	// Added means the setting was staged for the first time in the
	// active transaction; the caller should snapshot its rollback value.
	Added

	// PreviouslyAdded means the setting was already staged; the caller
	// should only update its cache.
	PreviouslyAdded
)

// Option configures a Prefs context.
type Option func(*Prefs)

// WithStore attaches the persistent store.
func WithStore(s Store) Option {
	return func(p *Prefs) {
		p.store = s
	}
}

// WithNotifier attaches a broadcaster that receives a change for every
// eager write, every delete, and every committed transaction write.
func WithNotifier(b *notify.Broadcaster) Option {
	return func(p *Prefs) {
		p.broadcast = b
	}
}

// New creates a Prefs context.
func New(opts ...Option) *Prefs {
	p := &Prefs{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetStore attaches or replaces the persistent store. Settings created
// before the store was attached start reading from it on their next
// uncached read.
func (p *Prefs) SetStore(s Store) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = s
}

// Store returns the attached store, or nil.
func (p *Prefs) Store() Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// Begin starts a transaction. It fails with ErrTransactionActive if one
// is already in progress; nesting is not supported.
//
// The caller must end the transaction exactly once, normally with
// defer txn.End(). End rolls back every staged setting unless Commit
// succeeded first.
func (p *Prefs) Begin() (*Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		return nil, ErrTransactionActive
	}

	t := &Transaction{
		prefs:   p,
		pending: make(map[transactional]struct{}),
	}
	p.active = t
	return t, nil
}

// InvalidateAll clears the cache of every setting created from this
// context, forcing the next read of each to consult the store. Use this
// after the backing file changed externally (see the watcher package).
func (p *Prefs) InvalidateAll() {
	p.mu.Lock()
	settings := make([]transactional, len(p.settings))
	copy(settings, p.settings)
	p.mu.Unlock()

	for _, s := range settings {
		s.Invalidate()
	}
}

// register records a setting for InvalidateAll.
func (p *Prefs) register(s transactional) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = append(p.settings, s)
}

// stage dispatches a setting write against the active transaction.
func (p *Prefs) stage(s transactional) AddResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A committed transaction no longer accepts staged writes; they
	// become eager again until End releases the slot.
	if p.active == nil || p.active.committed {
		return NotAdded
	}
	if _, ok := p.active.pending[s]; ok {
		return PreviouslyAdded
	}
	p.active.pending[s] = struct{}{}
	return Added
}

// release clears the active-transaction slot if t still occupies it.
func (p *Prefs) release(t *Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == t {
		p.active = nil
	}
}

func (p *Prefs) publishSet(path string, value any, source string) {
	if p.broadcast != nil {
		p.broadcast.PublishSet(path, value, source)
	}
}

func (p *Prefs) publishDelete(path, source string) {
	if p.broadcast != nil {
		p.broadcast.PublishDelete(path, source)
	}
}
