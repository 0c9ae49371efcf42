package txn

import (
	"testing"

	"github.com/google/uuid"

	"storemy/pkg/primitives"
)

func idN(n byte) TransactionID {
	var id uuid.UUID
	id[0] = n
	return id
}

func newRecord() []byte {
	return make([]byte, 8) // tombstone(4) + one int4 user field(4), enough for these tests
}

func TestInitTransactionInfo_MarksOwnPendingInsertVisible(t *testing.T) {
	tr := NewWithID(idN(7))
	record := newRecord()
	tr.InitTransactionInfo(record)
	rid := primitives.RID{Page: 1, Slot: 0}
	tr.InsertRecord(rid)

	if !tr.IsVisible(record) {
		t.Errorf("expected a transaction's own pending insert to be visible to itself")
	}

	other := NewWithID(idN(9))
	if other.IsVisible(record) {
		t.Errorf("expected another transaction's pending insert to be invisible")
	}
}

func TestCommitInsert_ClearsTombstoneAndTracking(t *testing.T) {
	tr := NewWithID(idN(3))
	record := newRecord()
	tr.InitTransactionInfo(record)
	rid := primitives.RID{Page: 1, Slot: 0}
	tr.InsertRecord(rid)

	if err := tr.CommitInsert(record, rid); err != nil {
		t.Fatalf("CommitInsert: %v", err)
	}
	if readTombstone(record) != 0 {
		t.Errorf("expected tombstone cleared after commit, got %d", readTombstone(record))
	}
	if len(tr.PendingInserts()) != 0 {
		t.Errorf("expected no pending inserts after commit")
	}

	other := NewWithID(idN(99))
	if !other.IsVisible(record) {
		t.Errorf("expected a committed record to be visible to every transaction")
	}
}

func TestDeleteRecord_HidesFromEveryTransaction(t *testing.T) {
	tr := NewWithID(idN(5))
	record := newRecord()
	rid := primitives.RID{Page: 2, Slot: 1}
	tr.DeleteRecord(record, rid)

	if tr.IsVisible(record) {
		t.Errorf("expected a record pending delete to be invisible even to the deleting transaction")
	}
	other := NewWithID(idN(6))
	if other.IsVisible(record) {
		t.Errorf("expected a record pending delete to be invisible to other transactions")
	}
}

func TestRollbackDelete_RestoresVisibility(t *testing.T) {
	tr := NewWithID(idN(5))
	record := newRecord()
	rid := primitives.RID{Page: 2, Slot: 1}
	tr.DeleteRecord(record, rid)

	if err := tr.RollbackDelete(record, rid); err != nil {
		t.Fatalf("RollbackDelete: %v", err)
	}
	if !tr.IsVisible(record) {
		t.Errorf("expected visibility restored after rollback")
	}
	if len(tr.PendingDeletes()) != 0 {
		t.Errorf("expected no pending deletes after rollback")
	}
}

func TestCommitDelete_StopsTracking(t *testing.T) {
	tr := NewWithID(idN(1))
	record := newRecord()
	rid := primitives.RID{Page: 1, Slot: 0}
	tr.DeleteRecord(record, rid)

	if err := tr.CommitDelete(record, rid); err != nil {
		t.Fatalf("CommitDelete: %v", err)
	}
	if len(tr.PendingDeletes()) != 0 {
		t.Errorf("expected no pending deletes after commit")
	}
}

func TestNew_GeneratesDistinctIDs(t *testing.T) {
	a := New()
	b := New()
	if a.ID() == b.ID() {
		t.Errorf("expected two freshly generated transactions to have distinct ids")
	}
}
