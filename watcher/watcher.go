// Package watcher detects external changes to a preference store's
// backing file.
//
// When another process (or an editor) rewrites the file, the watcher
// fires a change event so the application can invalidate cached settings
// and broadcast a reload. The parent directory is watched rather than
// the file itself, because atomic saves replace the file by rename and
// would otherwise silently detach a file-level watch.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Watch after the watcher has been closed.
var ErrClosed = errors.New("watcher closed")

// Event is one detected change to a watched file.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Removed reports that the file was deleted rather than written.
	Removed bool
}

// Handler is called for each delivered event.
type Handler func(Event)

// Watcher monitors preference files for external modification.
type Watcher struct {
	mu sync.RWMutex

	fsw      *fsnotify.Watcher
	files    map[string]bool // absolute file path -> watched
	dirs     map[string]int  // watched directory -> file refcount
	handlers []Handler
	debounce time.Duration

	pendingMu sync.Mutex
	pending   map[string]*pendingEvent

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long rapid successive changes to one file are
// coalesced before a single event is delivered. Zero disables
// debouncing. The default is 100ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher. Close must be called to release the underlying
// OS watches.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		pending:  make(map[string]*pendingEvent),
		debounce: 100 * time.Millisecond,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Watch starts watching a file. The file does not have to exist yet; an
// event fires when it appears.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.files[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[absPath] = true
	return nil
}

// Unwatch stops watching a file.
func (w *Watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[absPath] {
		return nil
	}
	delete(w.files, absPath)

	dir := filepath.Dir(absPath)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.fsw.Remove(dir)
	}
	return nil
}

// OnChange registers a handler for change events. Handlers run on the
// watcher goroutine; a panicking handler is recovered so it cannot kill
// the watch loop.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Close stops the watcher and releases OS watches. Safe to call more
// than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()

	w.pendingMu.Lock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()
	return err
}

// processLoop translates fsnotify directory events into file events.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// OS watch errors are not actionable here; the next
			// successful event resynchronizes state.
		}
	}
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.RLock()
	watched := w.files[path]
	w.mu.RUnlock()
	if !watched {
		return
	}

	var event Event
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		event = Event{Path: path, Removed: true}
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		event = Event{Path: path}
	default:
		return
	}

	if w.debounce <= 0 {
		w.emit(event)
		return
	}
	w.queue(event)
}

// queue coalesces rapid events per file; removal takes precedence over a
// pending write.
func (w *Watcher) queue(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if p, ok := w.pending[event.Path]; ok {
		if event.Removed {
			p.event = event
		}
		p.timer.Reset(w.debounce)
		return
	}

	p := &pendingEvent{event: event}
	p.timer = time.AfterFunc(w.debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, event.Path)
		ev := p.event
		w.pendingMu.Unlock()

		select {
		case <-w.closeCh:
		default:
			w.emit(ev)
		}
	})
	w.pending[event.Path] = p
}

func (w *Watcher) emit(event Event) {
	w.mu.RLock()
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, h := range handlers {
		w.call(h, event)
	}
}

func (w *Watcher) call(h Handler, event Event) {
	defer func() {
		_ = recover()
	}()
	h(event)
}
