package prefstore

import "errors"

// ErrNoStore is returned when an operation requires a store and none is
// attached to the Prefs context.
var ErrNoStore = errors.New("no preference store attached")

// ErrTransactionActive is returned by Begin when a transaction is already
// in progress. Nesting is not supported.
var ErrTransactionActive = errors.New("transaction already active")

// ErrDefaultOutOfRange is returned when a choice setting is constructed
// with a default row index outside its symbol table.
var ErrDefaultOutOfRange = errors.New("default index out of range")

// ErrTableMismatch is returned when an enum setting's integer-code table
// does not have the same length as its symbol table.
var ErrTableMismatch = errors.New("integer table length does not match symbol table")

// ErrUnknownCode is returned when writing a code that is not present in a
// choice or enum setting's table.
var ErrUnknownCode = errors.New("unknown code")
