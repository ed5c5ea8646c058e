package prefstore

import (
	"errors"
	"testing"

	"github.com/dshills/prefstore/memstore"
)

func newTestPrefs() (*Prefs, *memstore.Store) {
	store := memstore.New()
	return New(WithStore(store)), store
}

func TestRead_DefaultWhenUnset(t *testing.T) {
	p, store := newTestPrefs()
	tabSize := NewInt(p, "editor.tabSize", 4)

	for i := 0; i < 3; i++ {
		if got := tabSize.Read(); got != 4 {
			t.Fatalf("Read() = %d, want default 4", got)
		}
	}
	if store.Len() != 0 {
		t.Errorf("reads mutated the store: %d keys", store.Len())
	}
}

func TestRead_StoredValue(t *testing.T) {
	p, store := newTestPrefs()

	// Decoders produce int64 and float64; settings must coerce.
	if err := store.Set("editor.tabSize", int64(8)); err != nil {
		t.Fatal(err)
	}

	tabSize := NewInt(p, "editor.tabSize", 4)
	if got := tabSize.Read(); got != 8 {
		t.Errorf("Read() = %d, want stored 8", got)
	}
}

func TestWriteThenRead(t *testing.T) {
	p, store := newTestPrefs()
	theme := NewString(p, "ui.theme", "dark")

	if err := theme.Write("light"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := theme.Read(); got != "light" {
		t.Errorf("Read() = %q, want %q", got, "light")
	}

	raw, ok := store.Get("ui.theme")
	if !ok || raw != "light" {
		t.Errorf("store value = %v (present=%v), want %q", raw, ok, "light")
	}
	if store.Flushes() != 0 {
		t.Errorf("eager write flushed the store %d times", store.Flushes())
	}
}

func TestReadWithDefault_Fallback(t *testing.T) {
	p, _ := newTestPrefs()
	size := NewInt(p, "ui.fontSize", 14)

	if got := size.ReadWithDefault(7); got != 7 {
		t.Errorf("ReadWithDefault(7) = %d, want 7", got)
	}
	if got := size.Read(); got != 14 {
		t.Errorf("Read() after fallback read = %d, want configured default 14", got)
	}
}

// A persisted value equal to the supplied default cannot be told apart
// from an absent key, so the cache stays invalid and later reads see
// direct store changes.
func TestReadWithDefault_EqualValueStaysUncached(t *testing.T) {
	p, store := newTestPrefs()
	size := NewInt(p, "ui.fontSize", 14)

	if err := store.Set("ui.fontSize", 5); err != nil {
		t.Fatal(err)
	}
	if got := size.ReadWithDefault(5); got != 5 {
		t.Fatalf("ReadWithDefault(5) = %d, want 5", got)
	}

	if err := store.Set("ui.fontSize", 9); err != nil {
		t.Fatal(err)
	}
	if got := size.ReadWithDefault(5); got != 9 {
		t.Errorf("ReadWithDefault(5) after store change = %d, want 9", got)
	}
}

func TestDefaultFunc_RecomputedPerQuery(t *testing.T) {
	p, _ := newTestPrefs()

	calls := 0
	size := NewSettingFunc(p, "ui.fontSize", func() int {
		calls++
		return 10 + calls
	})

	if got := size.Read(); got != 11 {
		t.Errorf("first Read() = %d, want 11", got)
	}
	if got := size.Read(); got != 12 {
		t.Errorf("second Read() = %d, want 12", got)
	}
	if calls != 2 {
		t.Errorf("default function called %d times, want 2", calls)
	}
}

func TestNoStore(t *testing.T) {
	p := New()
	theme := NewString(p, "ui.theme", "dark")

	if got := theme.Read(); got != "dark" {
		t.Errorf("Read() without store = %q, want default", got)
	}
	if err := theme.Write("light"); !errors.Is(err, ErrNoStore) {
		t.Errorf("Write without store = %v, want ErrNoStore", err)
	}
}

func TestSetStore_LateAttach(t *testing.T) {
	p := New()
	theme := NewString(p, "ui.theme", "dark")

	if got := theme.Read(); got != "dark" {
		t.Fatalf("Read() before attach = %q", got)
	}

	store := memstore.New()
	if err := store.Set("ui.theme", "light"); err != nil {
		t.Fatal(err)
	}
	p.SetStore(store)

	if got := theme.Read(); got != "light" {
		t.Errorf("Read() after attach = %q, want %q", got, "light")
	}
}

func TestBoolSetting_Toggle(t *testing.T) {
	p, store := newTestPrefs()
	wrap := NewBool(p, "editor.wordWrap", false)

	got, err := wrap.Toggle()
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !got {
		t.Error("Toggle() = false, want true")
	}
	if raw, ok := store.Get("editor.wordWrap"); !ok || raw != true {
		t.Errorf("store value = %v (present=%v), want true", raw, ok)
	}

	if got, err = wrap.Toggle(); err != nil || got {
		t.Errorf("second Toggle() = %v, %v, want false, nil", got, err)
	}
}

func TestInvalidate(t *testing.T) {
	p, store := newTestPrefs()
	size := NewInt(p, "ui.fontSize", 14)

	if err := size.Write(20); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("ui.fontSize", 30); err != nil {
		t.Fatal(err)
	}

	if got := size.Read(); got != 20 {
		t.Fatalf("Read() = %d, want cached 20", got)
	}
	size.Invalidate()
	if got := size.Read(); got != 30 {
		t.Errorf("Read() after Invalidate = %d, want 30", got)
	}
}

func TestInvalidateAll(t *testing.T) {
	p, store := newTestPrefs()
	size := NewInt(p, "ui.fontSize", 14)
	theme := NewString(p, "ui.theme", "dark")

	if err := size.Write(20); err != nil {
		t.Fatal(err)
	}
	if err := theme.Write("light"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("ui.fontSize", 30); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("ui.theme", "solarized"); err != nil {
		t.Fatal(err)
	}

	p.InvalidateAll()

	if got := size.Read(); got != 30 {
		t.Errorf("size.Read() = %d, want 30", got)
	}
	if got := theme.Read(); got != "solarized" {
		t.Errorf("theme.Read() = %q, want %q", got, "solarized")
	}
}

func TestDelete(t *testing.T) {
	p, store := newTestPrefs()
	theme := NewString(p, "ui.theme", "dark")

	if err := theme.Write("light"); err != nil {
		t.Fatal(err)
	}
	if err := theme.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Has("ui.theme") {
		t.Error("key still present after Delete")
	}
	if got := theme.Read(); got != "dark" {
		t.Errorf("Read() after Delete = %q, want default", got)
	}
}

func TestRead_WrongTypePersisted(t *testing.T) {
	p, store := newTestPrefs()
	if err := store.Set("editor.tabSize", "not a number"); err != nil {
		t.Fatal(err)
	}

	tabSize := NewInt(p, "editor.tabSize", 4)
	if got := tabSize.Read(); got != 4 {
		t.Errorf("Read() with mistyped value = %d, want default 4", got)
	}
}

func TestReset(t *testing.T) {
	p, store := newTestPrefs()
	size := NewInt(p, "ui.fontSize", 14)

	if err := size.Write(30); err != nil {
		t.Fatal(err)
	}
	if err := size.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := size.Read(); got != 14 {
		t.Errorf("Read() after Reset = %d, want 14", got)
	}
	if raw, _ := store.Get("ui.fontSize"); raw != 14 {
		t.Errorf("store value after Reset = %v, want 14", raw)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int
		ok   bool
	}{
		{"int", 5, 5, true},
		{"int64", int64(6), 6, true},
		{"int32", int32(7), 7, true},
		{"float64", 8.0, 8, true},
		{"string", "9", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerce[int](tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("coerce[int](%v) = %d, %v, want %d, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}
