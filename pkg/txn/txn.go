// Package txn implements the transaction contract Table drives around
// every insert and delete: stamping and reading a record's system
// tombstone field, and tracking which RIDs this transaction has touched
// so the write path knows what to finalize on commit or undo on rollback.
//
// This engine runs one active transaction at a time (concurrency control
// is out of scope), so Transaction does not need to reconcile conflicting
// writers, only to keep a half-finished insert invisible to every other
// transaction, and a half-finished delete invisible to everyone including
// the deleting transaction, until it commits. Transaction never touches
// disk itself; every method here
// mutates an in-memory record buffer the caller owns and persists.
package txn

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"storemy/pkg/primitives"
)

// TombstoneOffset is where every table's first system field lives: a
// signed int32 recording this record's transaction state.
const TombstoneOffset = 0

// TransactionID identifies a transaction for logging and debugging. It
// survives process restarts (unlike a bare in-memory counter), though the
// engine still persists no transaction state across a restart. Crash
// recovery is out of scope.
type TransactionID = uuid.UUID

// Transaction is the contract Table consumes around insert_record,
// delete_record, and commit/rollback. There is deliberately no
// RollbackInsert: undoing a pending insert means removing the slot and
// any index entries already written for it, which only Table (holding
// the record handler and the table's indexes) can do.
type Transaction interface {
	ID() TransactionID

	// InitTransactionInfo stamps record's tombstone field to mark it as
	// inserted-but-uncommitted by this transaction. Table calls this
	// before the record's first write to disk.
	InitTransactionInfo(record []byte)

	// InsertRecord tracks rid as one this transaction has inserted, so
	// Table can find everything to finalize on CommitInsert.
	InsertRecord(rid primitives.RID)

	// DeleteRecord stamps record's tombstone field to mark it as
	// deleted-but-uncommitted by this transaction, and tracks rid.
	DeleteRecord(record []byte, rid primitives.RID)

	// IsVisible reports whether record should be visible to a scan
	// running under this transaction.
	IsVisible(record []byte) bool

	// CommitInsert clears record's tombstone field, making a previously
	// pending insert visible to every reader, and stops tracking rid.
	CommitInsert(record []byte, rid primitives.RID) error

	// CommitDelete stops tracking rid as pending; Table is responsible
	// for the matching physical slot and index removal.
	CommitDelete(record []byte, rid primitives.RID) error

	// RollbackDelete clears record's tombstone field, undoing a pending
	// delete that was never committed, and stops tracking rid.
	RollbackDelete(record []byte, rid primitives.RID) error

	// PendingInserts and PendingDeletes expose this transaction's
	// bookkeeping so Table can drive rollback_insert (not part of this
	// contract) and any other cleanup at abort time.
	PendingInserts() []primitives.RID
	PendingDeletes() []primitives.RID
}

// SimpleTransaction is the one Transaction implementation this engine
// ships: tombstone-based visibility with no write-ahead log and no
// multi-transaction conflict detection, matching the single-active-writer
// assumption. Its TransactionID is a uuid; the 4-byte on-disk tombstone
// field carries a smaller stamp derived from that id (see stampFor), since
// a full 16-byte uuid does not fit the system field's width.
type SimpleTransaction struct {
	id      TransactionID
	stamp   int32
	inserts map[primitives.RID]bool
	deletes map[primitives.RID]bool
}

// New creates a transaction with a freshly generated id.
func New() *SimpleTransaction {
	return NewWithID(uuid.New())
}

// NewWithID creates a transaction with a caller-supplied id, useful for
// tests and anywhere identity needs to be deterministic.
func NewWithID(id TransactionID) *SimpleTransaction {
	return &SimpleTransaction{
		id:      id,
		stamp:   stampFor(id),
		inserts: make(map[primitives.RID]bool),
		deletes: make(map[primitives.RID]bool),
	}
}

// stampFor squeezes id down to a nonzero, non-negative int32: the sign bit
// is reserved for insert-vs-delete polarity in the tombstone field, so two
// different transactions' stamps only need to differ from each other, not
// from every uuid ever generated.
func stampFor(id TransactionID) int32 {
	h := xxhash.Sum64(id[:])
	v := int32(uint32(h) &^ (1 << 31))
	if v == 0 {
		v = 1
	}
	return v
}

func (t *SimpleTransaction) ID() TransactionID { return t.id }

func readTombstone(record []byte) int32 {
	return int32(binary.LittleEndian.Uint32(record[TombstoneOffset : TombstoneOffset+4]))
}

func writeTombstone(record []byte, v int32) {
	binary.LittleEndian.PutUint32(record[TombstoneOffset:TombstoneOffset+4], uint32(v))
}

func (t *SimpleTransaction) InitTransactionInfo(record []byte) {
	writeTombstone(record, t.stamp)
}

func (t *SimpleTransaction) InsertRecord(rid primitives.RID) {
	t.inserts[rid] = true
}

func (t *SimpleTransaction) DeleteRecord(record []byte, rid primitives.RID) {
	writeTombstone(record, -t.stamp)
	t.deletes[rid] = true
}

// IsVisible treats a zero tombstone as committed-and-live, a tombstone
// equal to this transaction's own stamp as its own uncommitted insert (so
// a transaction always sees its own writes), and anything else, whether a
// negative stamp (deleted, pending or not) or a different transaction's
// pending insert, as not visible.
func (t *SimpleTransaction) IsVisible(record []byte) bool {
	v := readTombstone(record)
	return v == 0 || v == t.stamp
}

func (t *SimpleTransaction) CommitInsert(record []byte, rid primitives.RID) error {
	writeTombstone(record, 0)
	delete(t.inserts, rid)
	return nil
}

func (t *SimpleTransaction) CommitDelete(record []byte, rid primitives.RID) error {
	delete(t.deletes, rid)
	return nil
}

func (t *SimpleTransaction) RollbackDelete(record []byte, rid primitives.RID) error {
	writeTombstone(record, 0)
	delete(t.deletes, rid)
	return nil
}

func (t *SimpleTransaction) PendingInserts() []primitives.RID {
	out := make([]primitives.RID, 0, len(t.inserts))
	for rid := range t.inserts {
		out = append(out, rid)
	}
	return out
}

func (t *SimpleTransaction) PendingDeletes() []primitives.RID {
	out := make([]primitives.RID, 0, len(t.deletes))
	for rid := range t.deletes {
		out = append(out, rid)
	}
	return out
}
