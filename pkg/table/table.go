// Package table implements the write path every insert, delete, scan, and
// index creation in this module funnels through: Table owns one record
// file and zero or more indexes over it, and drives the Transaction
// contract (pkg/txn) and Index contract (pkg/index) around its own
// physical operations on pkg/record and pkg/bufferpool.
//
// Grounded throughout on original_source/table.cpp, adapted to Go and to
// this module's simplified (tombstone-based, non-WAL) Transaction.
package table

import (
	"fmt"

	"storemy/pkg/bufferpool"
	dberr "storemy/pkg/error"
	"storemy/pkg/index"
	"storemy/pkg/logging"
	"storemy/pkg/primitives"
	"storemy/pkg/record"
	"storemy/pkg/schema"
	"storemy/pkg/txn"
	"storemy/pkg/types"
)

// TombstoneField is the sys field every table carries at record offset 0:
// the transaction-visibility marker pkg/txn reads and writes.
var TombstoneField = schema.FieldMeta{Name: "_tombstone", Type: types.IntType, Offset: 0, Length: 4}

type openIndex struct {
	meta schema.IndexMeta
	file primitives.FileID
	idx  index.Index
}

// Table is one table's live handle: its schema, its record file, and its
// open indexes.
type Table struct {
	bp      *bufferpool.Pool
	baseDir string
	meta    *schema.TableMeta
	file    primitives.FileID
	handler *record.Handler
	indexes []*openIndex
}

func (t *Table) Name() string            { return t.meta.Name }
func (t *Table) Meta() *schema.TableMeta { return t.meta }

// Create builds a brand-new table: its meta file, its data file, and an
// empty record handler. fields are the user-visible fields only; the
// tombstone sys field is prepended automatically.
func Create(bp *bufferpool.Pool, baseDir, name string, fields []schema.FieldMeta) (*Table, error) {
	if name == "" {
		return nil, dberr.Code(dberr.CodeInvalidArgument, "table name cannot be empty")
	}
	if len(fields) == 0 {
		return nil, dberr.Code(dberr.CodeInvalidArgument, "table must have at least one field")
	}

	metaPath := primitives.Filepath(MetaFilePath(baseDir, name))
	if metaPath.Exists() {
		return nil, dberr.Code(dberr.CodeSchemaTableExist, "table already exists: "+name)
	}

	meta := &schema.TableMeta{Name: name, SysFieldCount: 1}
	meta.Fields = append(meta.Fields, TombstoneField)
	offset := TombstoneField.Length
	for _, f := range fields {
		f.Offset = offset
		meta.Fields = append(meta.Fields, f)
		offset += f.Length
	}

	dataPath := DataFilePath(baseDir, name)
	if err := bp.CreateFile(dataPath); err != nil {
		return nil, err
	}
	file, err := bp.OpenFile(dataPath)
	if err != nil {
		return nil, err
	}

	if err := meta.Save(metaPath.String()); err != nil {
		return nil, err
	}

	logging.WithTable(name).Info("created table", "fields", len(fields))
	return &Table{bp: bp, baseDir: baseDir, meta: meta, file: file, handler: record.NewHandler(bp, file, meta.RecordSize())}, nil
}

// Open loads an existing table's meta file, data file, and every index
// named in its meta.
func Open(bp *bufferpool.Pool, baseDir, name string) (*Table, error) {
	metaPath := MetaFilePath(baseDir, name)
	meta, err := schema.Load(metaPath)
	if err != nil {
		return nil, err
	}

	dataPath := DataFilePath(baseDir, name)
	file, err := bp.OpenFile(dataPath)
	if err != nil {
		return nil, err
	}

	t := &Table{bp: bp, baseDir: baseDir, meta: meta, file: file, handler: record.NewHandler(bp, file, meta.RecordSize())}

	for _, im := range meta.Indexes {
		fm, ok := meta.FindField(im.FieldName)
		if !ok {
			return nil, dberr.Code(dberr.CodeSchemaFieldMissing,
				fmt.Sprintf("index %s references missing field %s", im.Name, im.FieldName))
		}
		idxPath := IndexFilePath(baseDir, name, im.Name)
		idxFile, err := bp.OpenFile(idxPath)
		if err != nil {
			return nil, err
		}
		idx, err := index.Open(bp, idxFile, fm.Length)
		if err != nil {
			return nil, err
		}
		t.indexes = append(t.indexes, &openIndex{meta: im, file: idxFile, idx: idx})
	}

	return t, nil
}

// MakeRecord builds a zeroed record buffer and copies values into their
// field positions, in user-field order. It does not stamp the tombstone
// field; that happens at InsertRecord time, once a transaction (or its
// absence) is known.
func (t *Table) MakeRecord(values []types.Field) ([]byte, error) {
	userFields := t.meta.UserFields()
	if len(values) != len(userFields) {
		return nil, dberr.Code(dberr.CodeSchemaFieldMissing,
			fmt.Sprintf("table %s expects %d values, got %d", t.meta.Name, len(userFields), len(values)))
	}
	for i, v := range values {
		if v.GetType() != userFields[i].Type {
			return nil, dberr.Code(dberr.CodeSchemaFieldTypeMismatch,
				fmt.Sprintf("field %s: expected %s, got %s", userFields[i].Name, userFields[i].Type, v.GetType()))
		}
	}

	buf := make([]byte, t.meta.RecordSize())
	for i, v := range values {
		f := userFields[i]
		if err := v.Encode(buf[f.Offset : f.Offset+f.Length]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// InsertRecord stamps record's tombstone (if tx is non-nil), inserts it
// into the record file, tracks it on tx, and maintains every index. Any
// failure after the physical insert rolls the insert back before
// returning.
func (t *Table) InsertRecord(tx txn.Transaction, record []byte) (primitives.RID, error) {
	if tx != nil {
		tx.InitTransactionInfo(record)
		logging.WithTableTx(tx.ID(), t.meta.Name).Debug("inserting record")
	}

	rid, err := t.handler.InsertRecord(record)
	if err != nil {
		return primitives.RID{}, err
	}

	if tx != nil {
		tx.InsertRecord(rid)
	}

	if err := t.insertEntryOfIndexes(record, rid); err != nil {
		if rc2 := t.deleteEntryOfIndexes(record, rid, true); rc2 != nil {
			logging.WithError(rc2).With("table", t.meta.Name).Error("failed to roll back index entries after insert failure", "rid", rid)
		}
		if rc2 := t.handler.DeleteRecord(rid); rc2 != nil {
			logging.WithError(rc2).With("table", t.meta.Name).Error("failed to roll back record data after insert failure", "rid", rid)
		}
		return primitives.RID{}, err
	}
	return rid, nil
}

func (t *Table) insertEntryOfIndexes(record []byte, rid primitives.RID) error {
	for _, oi := range t.indexes {
		key, err := t.sortKey(oi.meta.FieldName, record)
		if err != nil {
			return err
		}
		if err := oi.idx.InsertEntry(key, rid); err != nil {
			return err
		}
	}
	return nil
}

// deleteEntryOfIndexes removes (record, rid) from every index. errorOnNotExists
// set to true tolerates a missing entry (used rolling back a partial insert,
// where some indexes never got the entry in the first place); false makes a
// missing entry fatal (used by the eager, no-transaction delete path).
func (t *Table) deleteEntryOfIndexes(record []byte, rid primitives.RID, errorOnNotExists bool) error {
	for _, oi := range t.indexes {
		key, err := t.sortKey(oi.meta.FieldName, record)
		if err != nil {
			return err
		}
		if err := oi.idx.DeleteEntry(key, rid); err != nil {
			if errorOnNotExists && dberr.HasCode(err, dberr.CodeRecordInvalidKey) {
				continue
			}
			return err
		}
	}
	return nil
}

// sortKey decodes fieldName out of record and returns its order-preserving
// index key.
func (t *Table) sortKey(fieldName string, record []byte) ([]byte, error) {
	fm, ok := t.meta.FindField(fieldName)
	if !ok {
		return nil, dberr.Code(dberr.CodeSchemaFieldMissing, "no such field: "+fieldName)
	}
	f, err := decodeField(*fm, record)
	if err != nil {
		return nil, err
	}
	return f.SortKey(), nil
}

func decodeField(fm schema.FieldMeta, record []byte) (types.Field, error) {
	var f types.Field
	switch fm.Type {
	case types.IntType:
		f = &types.Int4Field{}
	case types.CharType:
		f = types.NewCharField("", fm.Length)
	default:
		return nil, dberr.Code(dberr.CodeGenericError, "unsupported field type")
	}
	if err := f.Decode(record[fm.Offset : fm.Offset+fm.Length]); err != nil {
		return nil, err
	}
	return f, nil
}
