package table

import (
	"math"

	dberr "storemy/pkg/error"
	"storemy/pkg/filter"
	"storemy/pkg/index"
	"storemy/pkg/primitives"
	"storemy/pkg/txn"
)

// Visit is called once per record a scan surfaces. Returning keepGoing
// false stops the scan early without error; returning a non-nil err stops
// it and propagates the error.
type Visit func(rid primitives.RID, data []byte) (keepGoing bool, err error)

// ScanRecord visits every record matching cf (nil matches everything) and
// visible to tx (nil tx means every record is visible), up to limit
// records (negative means unbounded). It drives a full scan unless cf has
// a usable leaf this table has an index for, in which case it drives an
// index scan instead, collapsed from the original's two public overloads
// into one callback form.
func (t *Table) ScanRecord(tx txn.Transaction, cf filter.ConditionFilter, limit int, visit Visit) error {
	if limit == 0 {
		return nil
	}
	if limit < 0 {
		limit = math.MaxInt
	}

	scanner, err := t.findIndexForScan(cf)
	if err != nil {
		return err
	}
	if scanner != nil {
		return t.scanByIndex(tx, scanner, cf, limit, visit)
	}
	return t.scanFull(tx, cf, limit, visit)
}

func (t *Table) scanFull(tx txn.Transaction, cf filter.ConditionFilter, limit int, visit Visit) error {
	var matchFn func([]byte) (bool, error)
	if cf != nil {
		matchFn = cf.Matches
	}

	scanner, err := t.handler.OpenScan(matchFn)
	if err != nil {
		return err
	}
	defer scanner.CloseScan()

	count := 0
	for count < limit {
		rid, data, err := scanner.GetNextRecord()
		if dberr.HasCode(err, dberr.CodeRecordEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if tx != nil && !tx.IsVisible(data) {
			continue
		}
		keepGoing, err := visit(rid, data)
		if err != nil {
			return err
		}
		count++
		if !keepGoing {
			return nil
		}
	}
	return nil
}

func (t *Table) scanByIndex(tx txn.Transaction, scanner index.Scanner, cf filter.ConditionFilter, limit int, visit Visit) error {
	defer scanner.Destroy()

	count := 0
	for count < limit {
		rid, err := scanner.NextEntry()
		if dberr.HasCode(err, dberr.CodeRecordEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		data, err := t.handler.GetRecord(rid)
		if err != nil {
			return err
		}

		visible := tx == nil || tx.IsVisible(data)
		matched := true
		if visible && cf != nil {
			matched, err = cf.Matches(data)
			if err != nil {
				return err
			}
		}
		if visible && matched {
			keepGoing, err := visit(rid, data)
			if err != nil {
				return err
			}
			if !keepGoing {
				return nil
			}
		}
		count++
	}
	return nil
}

// findIndexForScan walks cf for a usable leaf (see filter.UsableLeaf) and,
// if this table has an index over that leaf's field, opens a scanner over
// it. Returns (nil, nil), not an error, whenever no index applies, which
// tells the caller to fall back to a full scan.
func (t *Table) findIndexForScan(cf filter.ConditionFilter) (index.Scanner, error) {
	if cf == nil {
		return nil, nil
	}
	leaf, ok := filter.UsableLeaf(cf)
	if !ok {
		return nil, nil
	}
	fm, ok := t.meta.FindFieldByOffset(leaf.Offset)
	if !ok {
		return nil, nil
	}
	im, ok := t.meta.FindIndexByField(fm.Name)
	if !ok {
		return nil, nil
	}
	oi := t.findOpenIndex(im.Name)
	if oi == nil {
		return nil, nil
	}
	return oi.idx.CreateScanner(leaf.Op, leaf.Value.SortKey())
}

func (t *Table) findOpenIndex(name string) *openIndex {
	for _, oi := range t.indexes {
		if oi.meta.Name == name {
			return oi
		}
	}
	return nil
}
