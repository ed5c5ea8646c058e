package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collector gathers events behind a lock for assertion.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func newTestWatcher(t *testing.T) (*Watcher, *collector) {
	t.Helper()
	w, err := New(WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	c := &collector{}
	w.OnChange(c.handle)
	return w, c
}

func TestWatch_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(c.snapshot()) >= 1 }, "write event")
	ev := c.snapshot()[0]
	if ev.Removed {
		t.Error("write reported as removal")
	}
	if filepath.Base(ev.Path) != "settings.toml" {
		t.Errorf("event path = %q", ev.Path)
	}
}

func TestWatch_FileAppearsLater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch of absent file: %v", err)
	}

	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(c.snapshot()) >= 1 }, "create event")
}

func TestWatch_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	// Write-to-temp-and-rename, the way atomic savers replace files.
	tmp := filepath.Join(dir, "settings.toml.tmp-1")
	if err := os.WriteFile(tmp, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		for _, ev := range c.snapshot() {
			if !ev.Removed && filepath.Base(ev.Path) == "settings.toml" {
				return true
			}
		}
		return false
	}, "event after atomic replace")
}

func TestWatch_Remove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		for _, ev := range c.snapshot() {
			if ev.Removed {
				return true
			}
		}
		return false
	}, "remove event")
}

func TestWatch_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	sibling := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(sibling, []byte("b = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := c.snapshot(); len(got) != 0 {
		t.Errorf("received %d events for an unwatched sibling", len(got))
	}
}

func TestUnwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Unwatch(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := c.snapshot(); len(got) != 0 {
		t.Errorf("received %d events after Unwatch", len(got))
	}
}

func TestClose(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Watch(t.TempDir()); err != ErrClosed {
		t.Errorf("Watch after Close = %v, want ErrClosed", err)
	}
}

func TestHandlerPanicDoesNotKillWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })

	w.OnChange(func(Event) { panic("listener bug") })
	c := &collector{}
	w.OnChange(c.handle)

	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(c.snapshot()) >= 1 }, "event despite panicking handler")
}
