package prefstore

import (
	"errors"
	"fmt"
)

// Transaction batches setting writes and commits or rolls them back as a
// group.
//
// While a transaction is active every Setting.Write is staged against it
// instead of hitting the store. Commit persists every staged setting and
// flushes the store once. End rolls back the staged caches unless Commit
// succeeded, and always releases the transaction slot.
type Transaction struct {
	prefs     *Prefs
	pending   map[transactional]struct{}
	committed bool
	ended     bool
}

// Commit writes every staged setting to the store and, if all writes
// succeed, flushes the store once.
//
// On failure the error joins one entry per failed setting (or the flush
// error), and settings that were already persisted are not rolled back in
// the store; the caller decides whether to retry the whole transaction or
// accept partial persistence. The transaction is only marked committed on
// full success, so End still rolls the in-memory caches back after a
// partial failure.
func (t *Transaction) Commit() error {
	if t.committed {
		return nil
	}

	var errs []error
	for s := range t.pending {
		if err := s.Commit(); err != nil {
			errs = append(errs, fmt.Errorf("committing %s: %w", s.Path(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	store := t.prefs.Store()
	if store == nil {
		return ErrNoStore
	}
	if err := store.Flush(); err != nil {
		return fmt.Errorf("flushing store: %w", err)
	}

	t.committed = true
	for s := range t.pending {
		t.prefs.publishSet(s.Path(), s.value(), "commit")
	}
	return nil
}

// Committed reports whether Commit succeeded.
func (t *Transaction) Committed() bool {
	return t.committed
}

// Pending returns the number of settings staged so far.
func (t *Transaction) Pending() int {
	return len(t.pending)
}

// End finishes the transaction. If Commit did not succeed, every staged
// setting's cache is rolled back to its pre-transaction value; the store
// is never touched. End is idempotent and safe to defer.
func (t *Transaction) End() {
	if t.ended {
		return
	}
	t.ended = true
	t.prefs.release(t)

	if t.committed {
		return
	}
	for s := range t.pending {
		s.Rollback()
	}
}
