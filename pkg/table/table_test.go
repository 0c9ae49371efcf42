package table

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"storemy/pkg/bufferpool"
	dberr "storemy/pkg/error"
	"storemy/pkg/primitives"
	"storemy/pkg/schema"
	"storemy/pkg/txn"
	"storemy/pkg/types"
)

func idN(n byte) txn.TransactionID {
	var id uuid.UUID
	id[0] = n
	return id
}

func newTable(t *testing.T) (*bufferpool.Pool, *Table) {
	t.Helper()
	bp := bufferpool.New(32, 8)
	dir := t.TempDir()
	fields := []schema.FieldMeta{
		{Name: "id", Type: types.IntType, Length: 4},
		{Name: "name", Type: types.CharType, Length: 16},
	}
	tbl, err := Create(bp, dir, "people", fields)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return bp, tbl
}

func mustRecord(t *testing.T, tbl *Table, id int32, name string) []byte {
	t.Helper()
	rec, err := tbl.MakeRecord([]types.Field{types.NewInt4Field(id), types.NewCharField(name, 16)})
	if err != nil {
		t.Fatalf("MakeRecord: %v", err)
	}
	return rec
}

func TestCreate_PrependsTombstoneAndRejectsDuplicate(t *testing.T) {
	bp := bufferpool.New(16, 4)
	dir := t.TempDir()
	fields := []schema.FieldMeta{{Name: "id", Type: types.IntType, Length: 4}}

	tbl, err := Create(bp, dir, "t1", fields)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tbl.meta.RecordSize() != 8 {
		t.Errorf("expected record size 8 (tombstone+id), got %d", tbl.meta.RecordSize())
	}
	if tbl.meta.Fields[0].Name != "_tombstone" {
		t.Errorf("expected tombstone field first, got %q", tbl.meta.Fields[0].Name)
	}

	if _, err := Create(bp, dir, "t1", fields); !dberr.HasCode(err, dberr.CodeSchemaTableExist) {
		t.Fatalf("expected SCHEMA_TABLE_EXIST on duplicate create, got %v", err)
	}
}

func TestOpen_ReloadsMetaAndData(t *testing.T) {
	bp, tbl := newTable(t)
	rec := mustRecord(t, tbl, 1, "alice")
	rid, err := tbl.InsertRecord(nil, rec)
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	reopened, err := Open(bp, tbl.baseDir, "people")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := reopened.handler.GetRecord(rid)
	if err != nil {
		t.Fatalf("GetRecord after reopen: %v", err)
	}
	if len(got) != len(rec) {
		t.Fatalf("record size mismatch after reopen: got %d, want %d", len(got), len(rec))
	}
}

func TestMakeRecord_RejectsWrongArity(t *testing.T) {
	_, tbl := newTable(t)
	if _, err := tbl.MakeRecord([]types.Field{types.NewInt4Field(1)}); !dberr.HasCode(err, dberr.CodeSchemaFieldMissing) {
		t.Fatalf("expected SCHEMA_FIELD_MISSING for wrong arity, got %v", err)
	}
}

func TestMakeRecord_RejectsTypeMismatch(t *testing.T) {
	_, tbl := newTable(t)
	_, err := tbl.MakeRecord([]types.Field{types.NewCharField("x", 16), types.NewCharField("y", 16)})
	if !dberr.HasCode(err, dberr.CodeSchemaFieldTypeMismatch) {
		t.Fatalf("expected SCHEMA_FIELD_TYPE_MISMATCH, got %v", err)
	}
}

func TestInsertRecord_WithoutTransaction_IsImmediatelyVisible(t *testing.T) {
	_, tbl := newTable(t)
	rec := mustRecord(t, tbl, 1, "alice")
	if _, err := tbl.InsertRecord(nil, rec); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	count := 0
	err := tbl.ScanRecord(nil, nil, -1, func(rid primitives.RID, data []byte) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatalf("ScanRecord: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 visible record, got %d", count)
	}
}

func TestInsertRecord_WithTransaction_VisibleOnlyToOwner(t *testing.T) {
	_, tbl := newTable(t)
	tr := txn.NewWithID(idN(42))
	rec := mustRecord(t, tbl, 1, "alice")
	if _, err := tbl.InsertRecord(tr, rec); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	owned := 0
	if err := tbl.ScanRecord(tr, nil, -1, func(rid primitives.RID, data []byte) (bool, error) {
		owned++
		return true, nil
	}); err != nil {
		t.Fatalf("ScanRecord(owner): %v", err)
	}
	if owned != 1 {
		t.Errorf("expected the inserting transaction to see its own pending insert, got %d", owned)
	}

	other := txn.NewWithID(idN(99))
	othersView := 0
	if err := tbl.ScanRecord(other, nil, -1, func(rid primitives.RID, data []byte) (bool, error) {
		othersView++
		return true, nil
	}); err != nil {
		t.Fatalf("ScanRecord(other): %v", err)
	}
	if othersView != 0 {
		t.Errorf("expected a pending insert to be invisible to another transaction, got %d", othersView)
	}
}

func TestPaths_NameEachFileDistinctly(t *testing.T) {
	base := "/tmp/db"
	if got := DataFilePath(base, "people"); got != filepath.Join(base, "people.data") {
		t.Errorf("DataFilePath: got %q", got)
	}
	if got := MetaFilePath(base, "people"); got != filepath.Join(base, "people.table") {
		t.Errorf("MetaFilePath: got %q", got)
	}
	if got := IndexFilePath(base, "people", "by_id"); got != filepath.Join(base, "people.by_id.index") {
		t.Errorf("IndexFilePath: got %q", got)
	}
}
