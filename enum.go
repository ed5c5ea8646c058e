package prefstore

import "fmt"

// EnumSetting extends ChoiceSetting with a parallel table of integer
// codes (generally not equal to their row positions), and optionally a
// legacy key that stored integer codes, migrated one time into the
// string-coded key.
type EnumSetting struct {
	ChoiceSetting

	intValues []int
	oldKey    string
}

// NewEnum declares an enum setting. intValues must have the same length
// as symbols, corresponding pairwise by row. oldKey names a legacy
// integer-coded key to migrate from, or "" for none.
func NewEnum(p *Prefs, key string, symbols []EnumValueSymbol, defaultIndex int, intValues []int, oldKey string) (*EnumSetting, error) {
	if len(intValues) != len(symbols) {
		return nil, fmt.Errorf("%w: %d ints, %d symbols", ErrTableMismatch, len(intValues), len(symbols))
	}
	c, err := NewChoice(p, key, symbols, defaultIndex)
	if err != nil {
		return nil, err
	}

	e := &EnumSetting{
		ChoiceSetting: *c,
		intValues:     intValues,
		oldKey:        oldKey,
	}
	e.ChoiceSetting.migrate = e.migrateFromLegacy
	return e, nil
}

// MustEnum is NewEnum but panics on error. Useful for package-level
// declarations.
func MustEnum(p *Prefs, key string, symbols []EnumValueSymbol, defaultIndex int, intValues []int, oldKey string) *EnumSetting {
	e, err := NewEnum(p, key, symbols, defaultIndex, intValues, oldKey)
	if err != nil {
		panic(err)
	}
	return e
}

// ReadInt returns the integer code for the persisted choice, resolving
// defaults and migration exactly as Read does.
func (e *EnumSetting) ReadInt() int {
	idx := e.Find(e.Read())
	if idx < 0 {
		idx = e.defaultRow()
	}
	if idx < 0 {
		return 0
	}
	return e.intValues[idx]
}

// ReadIntWithDefault is ReadInt resolved against a caller-supplied
// integer code instead of the configured default.
func (e *EnumSetting) ReadIntWithDefault(fallback int) int {
	var fallbackCode string
	if idx := e.FindInt(fallback); idx >= 0 {
		fallbackCode = e.symbols[idx].Internal
	}
	idx := e.Find(e.ReadWithDefault(fallbackCode))
	if idx < 0 {
		return fallback
	}
	return e.intValues[idx]
}

// WriteInt persists the choice identified by an integer code. The store
// is not flushed. An integer not present in the table fails with
// ErrUnknownCode.
func (e *EnumSetting) WriteInt(code int) error {
	idx := e.FindInt(code)
	if idx < 0 {
		return fmt.Errorf("%w: %d for %s", ErrUnknownCode, code, e.key)
	}
	return e.Write(e.symbols[idx].Internal)
}

// FindInt returns the row index of an integer code, or -1 when the code
// is not in the table.
func (e *EnumSetting) FindInt(code int) int {
	for i, v := range e.intValues {
		if v == code {
			return i
		}
	}
	return -1
}

// migrateFromLegacy converts an old integer-coded key into the current
// string-coded one. It runs at most once per process per setting: the
// legacy integer is read, mapped to its row (or the default row when it
// matches nothing), the row's string code is written to the current key,
// and the legacy key is deleted. The code passed in is replaced by the
// migrated one.
func (e *EnumSetting) migrateFromLegacy(code string) string {
	if e.migrated || e.oldKey == "" {
		return code
	}

	store := e.prefs.Store()
	if store == nil {
		// Retry once a store is attached.
		return code
	}
	e.migrated = true

	raw, ok := store.Get(e.oldKey)
	if !ok {
		return code
	}
	legacy, ok := coerceInt(raw)
	if !ok {
		return code
	}

	idx := e.FindInt(legacy)
	if idx < 0 {
		// An unmapped legacy value migrates to the default row.
		idx = e.defaultRow()
	}
	if idx >= 0 {
		code = e.symbols[idx].Internal
		if err := store.Set(e.key, code); err != nil {
			return code
		}
	}
	_ = store.Delete(e.oldKey)
	return code
}
