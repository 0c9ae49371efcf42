package table

import (
	dberr "storemy/pkg/error"
	"storemy/pkg/filter"
	"storemy/pkg/index"
	"storemy/pkg/logging"
	"storemy/pkg/primitives"
	"storemy/pkg/schema"
	"storemy/pkg/txn"
)

// DeleteRecord tombstones one record for tx to commit or roll back later.
// If tx is nil, the record and its index entries are removed immediately;
// there is nothing to defer without a transaction.
func (t *Table) DeleteRecord(tx txn.Transaction, data []byte, rid primitives.RID) error {
	if tx != nil {
		tx.DeleteRecord(data, rid)
		return t.handler.PutRecord(rid, data)
	}

	if err := t.deleteEntryOfIndexes(data, rid, false); err != nil {
		return err
	}
	return t.handler.DeleteRecord(rid)
}

// DeleteMatching deletes every record matching cf and visible to tx,
// returning how many were deleted.
func (t *Table) DeleteMatching(tx txn.Transaction, cf filter.ConditionFilter) (int, error) {
	deleted := 0
	err := t.ScanRecord(tx, cf, -1, func(rid primitives.RID, data []byte) (bool, error) {
		if err := t.DeleteRecord(tx, data, rid); err != nil {
			return false, err
		}
		deleted++
		return true, nil
	})
	return deleted, err
}

// CommitInsert clears rid's tombstone, making a previously pending insert
// permanently visible.
func (t *Table) CommitInsert(tx txn.Transaction, rid primitives.RID) error {
	data, err := t.handler.GetRecord(rid)
	if err != nil {
		return err
	}
	if err := tx.CommitInsert(data, rid); err != nil {
		return err
	}
	return t.handler.PutRecord(rid, data)
}

// RollbackInsert undoes a pending insert by removing its index entries
// and its slot outright. This is not part of the Transaction contract;
// only Table holds both the record handler and the indexes needed to undo
// an insert completely.
func (t *Table) RollbackInsert(tx txn.Transaction, rid primitives.RID) error {
	data, err := t.handler.GetRecord(rid)
	if err != nil {
		return err
	}
	if err := t.deleteEntryOfIndexes(data, rid, false); err != nil {
		logging.WithError(err).With("table", t.meta.Name).Error("failed to delete index entries during rollback_insert", "rid", rid)
		return err
	}
	return t.handler.DeleteRecord(rid)
}

// CommitDelete finalizes a pending delete: removes the record's index
// entries and its slot, then tells tx to stop tracking it.
func (t *Table) CommitDelete(tx txn.Transaction, rid primitives.RID) error {
	data, err := t.handler.GetRecord(rid)
	if err != nil {
		return err
	}
	if err := t.deleteEntryOfIndexes(data, rid, false); err != nil {
		logging.WithError(err).With("table", t.meta.Name).Error("failed to delete index entries during commit_delete", "rid", rid)
	}
	if err := t.handler.DeleteRecord(rid); err != nil {
		return err
	}
	if tx != nil {
		return tx.CommitDelete(data, rid)
	}
	return nil
}

// RollbackDelete undoes a pending delete that was never committed: the
// slot was only tombstoned, never actually cleared, so restoring
// visibility is enough.
func (t *Table) RollbackDelete(tx txn.Transaction, rid primitives.RID) error {
	data, err := t.handler.GetRecord(rid)
	if err != nil {
		return err
	}
	if err := tx.RollbackDelete(data, rid); err != nil {
		return err
	}
	return t.handler.PutRecord(rid, data)
}

// CreateIndex builds a new index over fieldName, backfills it from every
// existing record, and persists the updated table meta. On backfill
// failure the partially-built index file is left on disk and the index is
// not registered, matching the original engine's documented gap, not an
// oversight (see DESIGN.md).
func (t *Table) CreateIndex(tx txn.Transaction, indexName, fieldName string) error {
	if indexName == "" || fieldName == "" {
		return dberr.Code(dberr.CodeInvalidArgument, "index name and field name cannot be empty")
	}
	if _, ok := t.meta.FindIndex(indexName); ok {
		return dberr.Code(dberr.CodeSchemaIndexExist, "index already exists: "+indexName)
	}
	if _, ok := t.meta.FindIndexByField(fieldName); ok {
		return dberr.Code(dberr.CodeSchemaIndexExist, "field already has an index: "+fieldName)
	}
	fm, ok := t.meta.FindField(fieldName)
	if !ok {
		return dberr.Code(dberr.CodeSchemaFieldMissing, "no such field: "+fieldName)
	}

	idxPath := IndexFilePath(t.baseDir, t.meta.Name, indexName)
	if err := t.bp.CreateFile(idxPath); err != nil {
		return err
	}
	idxFile, err := t.bp.OpenFile(idxPath)
	if err != nil {
		return err
	}
	idx, err := index.Create(t.bp, idxFile, fm.Length)
	if err != nil {
		return err
	}

	logging.WithIndex(indexName).Info("backfilling from existing records", "table", t.meta.Name, "field", fieldName)
	err = t.ScanRecord(tx, nil, -1, func(rid primitives.RID, data []byte) (bool, error) {
		key, err := t.sortKey(fieldName, data)
		if err != nil {
			return false, err
		}
		return true, idx.InsertEntry(key, rid)
	})
	if err != nil {
		logging.WithTable(t.meta.Name).Error("failed to backfill new index, leaving it unregistered", "index", indexName, "error", err)
		return err
	}

	newMeta := t.meta.Clone()
	im := schema.IndexMeta{Name: indexName, FieldName: fieldName}
	newMeta.Indexes = append(newMeta.Indexes, im)
	if err := newMeta.Save(MetaFilePath(t.baseDir, t.meta.Name)); err != nil {
		return err
	}

	t.indexes = append(t.indexes, &openIndex{meta: im, file: idxFile, idx: idx})
	t.meta = newMeta

	logging.WithTable(t.meta.Name).Info("created index", "index", indexName, "field", fieldName)
	return nil
}

func (t *Table) FindIndex(name string) index.Index {
	if oi := t.findOpenIndex(name); oi != nil {
		return oi.idx
	}
	return nil
}

// Sync evicts every resident page of this table's data file (flushing any
// that are dirty), then flushes every index's dirty pages.
func (t *Table) Sync() error {
	if err := t.bp.PurgeAllPages(t.file); err != nil {
		return err
	}
	for _, oi := range t.indexes {
		if err := oi.idx.Sync(); err != nil {
			return err
		}
	}
	return nil
}

// Destroy is a stub: it syncs the table and reports failure, matching the
// original engine's unimplemented drop-table path (see DESIGN.md, Open
// Question 1). True file and index removal is not implemented.
func (t *Table) Destroy() error {
	if err := t.Sync(); err != nil {
		return err
	}
	return dberr.Code(dberr.CodeGenericError, "drop table is not implemented")
}

// UpdateRecord is a stub: in-place record update is out of scope (see
// DESIGN.md, Open Question 2). Kept for interface parity with the
// original engine's table surface.
func (t *Table) UpdateRecord(tx txn.Transaction, fieldName string, value []byte, cf filter.ConditionFilter) (int, error) {
	return 0, dberr.Code(dberr.CodeGenericError, "update is not implemented")
}
