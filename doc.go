// Package prefstore provides typed, cached, transactional access to a
// persistent key/value preference store.
//
// A program declares each preference once as a durable setting object with a
// hierarchical dot-separated path, a type, and a default value. Reads consult
// an in-memory cache before the store and fall back to the default when the
// key is absent or no store is attached. Writes outside a transaction are
// applied to the store immediately (but not flushed); writes inside a
// transaction are staged and either committed as a group with a single
// trailing flush, or rolled back.
//
// # Architecture
//
//   - Prefs: the ambient context holding the attached Store, the single
//     active-transaction slot, and an optional change broadcaster.
//   - Setting[T]: a generic cached setting for bool, int, float64, and
//     string values, with typed aliases (BoolSetting adds Toggle).
//   - Transaction: a batch of staged writes, committed or rolled back as
//     a unit. At most one transaction is active per Prefs at a time.
//   - ChoiceSetting / EnumSetting: settings persisted as a symbolic code
//     chosen from a fixed ordered table, with one-time migration from a
//     legacy integer-coded key.
//
// # Sub-packages
//
//   - memstore: in-memory Store for tests and embedding
//   - tomlstore: TOML file Store (pelletier/go-toml)
//   - jsonstore: JSON file Store (tidwall/gjson, tidwall/sjson)
//   - notify: change broadcast to interested subsystems
//   - watcher: invalidation on external changes to the backing file
//
// # Basic Usage
//
//	store, err := tomlstore.Open("settings.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p := prefstore.New(prefstore.WithStore(store))
//
//	tabSize := prefstore.NewInt(p, "editor.tabSize", 4)
//	theme := prefstore.NewString(p, "ui.theme", "dark")
//
//	n := tabSize.Read()          // store value, or 4
//	_ = theme.Write("light")     // eager write, not flushed
//	_ = store.Flush()
//
// # Transactions
//
//	txn, err := p.Begin()
//	if err != nil {
//	    return err
//	}
//	defer txn.End() // rolls back unless committed
//
//	_ = tabSize.Write(8)  // staged, cache only
//	_ = theme.Write("solarized")
//	if err := txn.Commit(); err != nil {
//	    return err // staged caches roll back at End
//	}
//
// # Concurrency
//
// Setting objects assume single-threaded cooperative access, matching their
// intended use as process-lifetime value objects touched from one goroutine.
// The Prefs transaction slot and the store backends are mutex-guarded.
package prefstore
