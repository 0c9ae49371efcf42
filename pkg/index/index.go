// Package index implements the contract Table consumes for a persistent
// ordered index: Insert/Delete/CreateScanner/Sync, backed by the same
// buffer pool every data file goes through. SortedIndex provides a real
// but deliberately simple structure instead of a multi-level B+ tree: a
// linked chain of sorted leaf pages, splitting on overflow, with no
// branch/internal pages. Lookups walk the chain; they are not O(log n),
// but the contract above does not require that, only ordered iteration.
package index

import "storemy/pkg/primitives"

// Index is the contract Table drives: insert/delete entries keyed by raw
// field bytes, and open an ordered scanner for a predicate.
type Index interface {
	InsertEntry(key []byte, rid primitives.RID) error

	// DeleteEntry removes the (key, rid) entry. A missing entry always
	// reports RECORD_INVALID_KEY; whether the caller treats that as fatal
	// or tolerates it is the table layer's decision, not this contract's.
	DeleteEntry(key []byte, rid primitives.RID) error

	CreateScanner(op primitives.Predicate, key []byte) (Scanner, error)

	Sync() error

	Close() error
}

// Scanner is a finite lazy cursor over RIDs matching a CreateScanner
// predicate, in ascending key order.
type Scanner interface {
	// NextEntry returns the next matching RID, or a RECORD_EOF-coded error
	// once exhausted.
	NextEntry() (primitives.RID, error)

	Destroy()
}
