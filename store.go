package prefstore

// Store is the persistent key/value backend consumed by settings.
//
// Paths are dot-separated and hierarchical (e.g. "editor.tabSize"). Values
// travel as any; decoders commonly produce int64 for integers and float64
// for numbers, so typed settings coerce between numeric kinds on read.
//
// Implementations must make Flush a blocking sync of all prior writes.
// See the memstore, tomlstore, and jsonstore sub-packages.
type Store interface {
	// Get returns the value at path, reporting whether the key is present
	// and readable. Absence is not an error.
	Get(path string) (any, bool)

	// Set writes the value at path. The write need not be durable until
	// Flush is called.
	Set(path string, value any) error

	// Delete removes the key at path. Deleting an absent key is not an
	// error.
	Delete(path string) error

	// Flush synchronizes all pending writes to durable media.
	Flush() error
}

// Value is the set of types a Setting can store.
type Value interface {
	bool | int | float64 | string
}

// coerce converts a raw store value to the setting's type, allowing the
// numeric interchange that TOML and JSON decoders require.
func coerce[T Value](raw any) (T, bool) {
	var out T
	switch p := any(&out).(type) {
	case *bool:
		b, ok := raw.(bool)
		if !ok {
			return out, false
		}
		*p = b
	case *int:
		switch v := raw.(type) {
		case int:
			*p = v
		case int64:
			*p = int(v)
		case int32:
			*p = int(v)
		case float64:
			*p = int(v)
		default:
			return out, false
		}
	case *float64:
		switch v := raw.(type) {
		case float64:
			*p = v
		case float32:
			*p = float64(v)
		case int:
			*p = float64(v)
		case int64:
			*p = float64(v)
		default:
			return out, false
		}
	case *string:
		s, ok := raw.(string)
		if !ok {
			return out, false
		}
		*p = s
	default:
		return out, false
	}
	return out, true
}

// coerceInt is the untyped variant used for legacy integer keys.
func coerceInt(raw any) (int, bool) {
	return coerce[int](raw)
}
