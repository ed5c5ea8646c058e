package prefstore

import "fmt"

// EnumValueSymbol is one row of a choice table: the code persisted in the
// store and the label shown to users.
type EnumValueSymbol struct {
	// Internal is the persisted string code.
	Internal string

	// Label is the user-facing text for this choice.
	Label string
}

// ChoiceSetting persists one choice from a fixed ordered table of
// symbols, storing the row's internal code rather than a raw value.
//
// Row order is significant: the default is selected by row index, and
// derived settings map rows to parallel tables. Unlike Setting, a
// ChoiceSetting keeps no cache of its own; reads go to the store (or to
// the back-referenced setting's cache when one is configured).
type ChoiceSetting struct {
	prefs   *Prefs
	key     string
	symbols []EnumValueSymbol

	// other is a caching setting sharing this key. When set, reads go
	// through its cache and writes invalidate it.
	other *StringSetting

	// defaultIndex selects the default row; -1 means no explicit
	// default, resolved as the table's first row.
	defaultIndex int

	// migrated guards one-shot code migration; see EnumSetting.
	migrated bool

	// migrate rewrites a code read from the store before it is matched
	// against the table. Nil means no rewriting.
	migrate func(code string) string
}

// NewChoice declares a choice setting. defaultIndex selects the default
// row, or -1 for no explicit default. The index must be less than the
// table size.
func NewChoice(p *Prefs, key string, symbols []EnumValueSymbol, defaultIndex int) (*ChoiceSetting, error) {
	if defaultIndex >= len(symbols) {
		return nil, fmt.Errorf("%w: %d with %d symbols", ErrDefaultOutOfRange, defaultIndex, len(symbols))
	}
	return &ChoiceSetting{
		prefs:        p,
		key:          key,
		symbols:      symbols,
		defaultIndex: defaultIndex,
	}, nil
}

// NewChoiceFor declares a choice setting that reuses the path of an
// existing string setting. Reads go through that setting's cache and
// writes invalidate it, keeping the two views of the shared key
// consistent.
func NewChoiceFor(p *Prefs, other *StringSetting, symbols []EnumValueSymbol, defaultIndex int) (*ChoiceSetting, error) {
	c, err := NewChoice(p, other.Path(), symbols, defaultIndex)
	if err != nil {
		return nil, err
	}
	c.other = other
	return c, nil
}

// MustChoice is NewChoice but panics on error. Useful for package-level
// declarations.
func MustChoice(p *Prefs, key string, symbols []EnumValueSymbol, defaultIndex int) *ChoiceSetting {
	c, err := NewChoice(p, key, symbols, defaultIndex)
	if err != nil {
		panic(err)
	}
	return c
}

// Key returns the setting's path.
func (c *ChoiceSetting) Key() string {
	return c.key
}

// Symbols returns the choice table in row order.
func (c *ChoiceSetting) Symbols() []EnumValueSymbol {
	return c.symbols
}

// Default returns the default row's symbol: the row at the configured
// default index, else the first row, else a zero symbol for an empty
// table.
func (c *ChoiceSetting) Default() EnumValueSymbol {
	if i := c.defaultRow(); i >= 0 {
		return c.symbols[i]
	}
	return EnumValueSymbol{}
}

// SetDefault changes the default row index. The index must be less than
// the table size.
func (c *ChoiceSetting) SetDefault(index int) error {
	if index >= len(c.symbols) {
		return fmt.Errorf("%w: %d with %d symbols", ErrDefaultOutOfRange, index, len(c.symbols))
	}
	c.defaultIndex = index
	return nil
}

// Read returns the persisted code, or the default code when the key is
// absent or holds a code not present in the table. Migration of legacy
// encodings runs before the table match.
func (c *ChoiceSetting) Read() string {
	return c.ReadWithDefault(c.Default().Internal)
}

// ReadWithDefault is Read resolved against a caller-supplied default
// code.
func (c *ChoiceSetting) ReadWithDefault(fallback string) string {
	code, _ := c.readStored()
	if c.migrate != nil {
		code = c.migrate(code)
	}
	if c.Find(code) < 0 {
		return fallback
	}
	return code
}

// Write persists a code from the table. The store is not flushed; the
// caller flushes afterward. Writing a code not present in the table
// fails with ErrUnknownCode.
func (c *ChoiceSetting) Write(code string) error {
	if c.Find(code) < 0 {
		return fmt.Errorf("%w: %q for %s", ErrUnknownCode, code, c.key)
	}

	store := c.prefs.Store()
	if store == nil {
		return ErrNoStore
	}
	if err := store.Set(c.key, code); err != nil {
		return fmt.Errorf("writing %s: %w", c.key, err)
	}
	if c.other != nil {
		c.other.Invalidate()
	}
	c.prefs.publishSet(c.key, code, "write")
	return nil
}

// Find returns the row index of a code, or -1 when the code is not in
// the table.
func (c *ChoiceSetting) Find(code string) int {
	for i, sym := range c.symbols {
		if sym.Internal == code {
			return i
		}
	}
	return -1
}

// readStored fetches the raw code, through the back-referenced setting's
// read path when one is configured.
func (c *ChoiceSetting) readStored() (string, bool) {
	if c.other != nil {
		v := c.other.ReadWithDefault("")
		return v, v != ""
	}

	store := c.prefs.Store()
	if store == nil {
		return "", false
	}
	raw, ok := store.Get(c.key)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// defaultRow resolves the effective default row index, or -1 for an
// empty table.
func (c *ChoiceSetting) defaultRow() int {
	if c.defaultIndex >= 0 {
		return c.defaultIndex
	}
	if len(c.symbols) > 0 {
		return 0
	}
	return -1
}
