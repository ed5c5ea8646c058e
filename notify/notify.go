// Package notify broadcasts preference changes to interested subsystems.
//
// Other parts of an application subscribe to the broadcaster and receive
// a callback whenever a preference is written, deleted, or reloaded from
// the backing store. Delivery is synchronous, in the caller's goroutine,
// with listeners invoked outside the broadcaster's lock.
package notify

import "sync"

// Kind classifies a preference change.
type Kind int

const (
	// KindSet indicates a value was written.
	KindSet Kind = iota

	// KindDelete indicates a key was removed.
	KindDelete

	// KindReload indicates the backing store changed wholesale, for
	// example after an external edit of the file.
	KindReload
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindDelete:
		return "delete"
	case KindReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change is one preference change event.
type Change struct {
	// Path is the dot-separated key path; empty for reload events.
	Path string

	// Kind is the type of change.
	Kind Kind

	// Value is the newly written value; nil for deletes and reloads.
	Value any

	// Source identifies where the change came from ("write", "commit",
	// "delete", "reload", or caller-defined).
	Source string
}

// Listener is called for each delivered change.
type Listener func(Change)

// Subscription is an active listener registration.
type Subscription struct {
	id          uint64
	broadcaster *Broadcaster
}

// Unsubscribe removes the listener. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.broadcaster != nil {
		s.broadcaster.unsubscribe(s.id)
	}
}

// Broadcaster delivers preference changes to subscribed listeners.
// The zero value is not usable; call New.
type Broadcaster struct {
	mu sync.RWMutex

	global map[uint64]Listener
	byPath map[string]map[uint64]Listener
	nextID uint64
}

// New creates a Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		global: make(map[uint64]Listener),
		byPath: make(map[string]map[uint64]Listener),
	}
}

// Subscribe registers a listener for every change.
func (b *Broadcaster) Subscribe(l Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.global[id] = l
	return &Subscription{id: id, broadcaster: b}
}

// SubscribePath registers a listener for changes at or below a path
// prefix. Subscribing to "editor" receives changes to "editor.tabSize".
// Reload events are delivered to every path listener.
func (b *Broadcaster) SubscribePath(path string, l Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.byPath[path] == nil {
		b.byPath[path] = make(map[uint64]Listener)
	}
	b.byPath[path][id] = l
	return &Subscription{id: id, broadcaster: b}
}

// Publish delivers a change to all matching listeners.
func (b *Broadcaster) Publish(change Change) {
	b.mu.RLock()
	listeners := b.collect(change)
	b.mu.RUnlock()

	for _, l := range listeners {
		l(change)
	}
}

// PublishSet delivers a set change.
func (b *Broadcaster) PublishSet(path string, value any, source string) {
	b.Publish(Change{Path: path, Kind: KindSet, Value: value, Source: source})
}

// PublishDelete delivers a delete change.
func (b *Broadcaster) PublishDelete(path, source string) {
	b.Publish(Change{Path: path, Kind: KindDelete, Source: source})
}

// PublishReload delivers a reload event.
func (b *Broadcaster) PublishReload(source string) {
	b.Publish(Change{Kind: KindReload, Source: source})
}

func (b *Broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.global, id)
	for path, listeners := range b.byPath {
		delete(listeners, id)
		if len(listeners) == 0 {
			delete(b.byPath, path)
		}
	}
}

// collect gathers matching listeners under the read lock.
func (b *Broadcaster) collect(change Change) []Listener {
	var out []Listener
	for _, l := range b.global {
		out = append(out, l)
	}

	if change.Path == "" {
		// Reload: every path listener is interested.
		for _, listeners := range b.byPath {
			for _, l := range listeners {
				out = append(out, l)
			}
		}
		return out
	}

	for path, listeners := range b.byPath {
		if path == change.Path || isParentPath(path, change.Path) {
			for _, l := range listeners {
				out = append(out, l)
			}
		}
	}
	return out
}

// isParentPath reports whether parent is a proper path prefix of child,
// e.g. "editor" is a parent of "editor.tabSize".
func isParentPath(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}
