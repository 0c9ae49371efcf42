package index

import (
	"bytes"

	dberr "storemy/pkg/error"
	"storemy/pkg/bufferpool"
	"storemy/pkg/primitives"
)

// sortedScanner walks the leaf chain from a starting page, yielding RIDs
// whose key satisfies op against the scan's key. There is no seek-ahead to
// the first matching leaf: every leaf is visited and filtered, which is the
// cost of not having branch pages.
type sortedScanner struct {
	idx  *SortedIndex
	op   primitives.Predicate
	key  []byte
	page primitives.PageNumber
	pos  int
	done bool
}

func (s *sortedScanner) NextEntry() (primitives.RID, error) {
	if s.done {
		return primitives.RID{}, dberr.Code(dberr.CodeRecordEOF, "index scan exhausted")
	}

	for s.page != primitives.InvalidPageNumber {
		frame, err := s.idx.bp.GetThisPage(s.idx.file, s.page)
		if err != nil {
			return primitives.RID{}, err
		}
		data := bufferpool.GetData(frame)
		entries := readEntries(data, s.idx.keyLen)
		next := leafNext(data)

		for ; s.pos < len(entries); s.pos++ {
			match, err := matches(s.op, entries[s.pos].key, s.key)
			if err != nil {
				s.idx.bp.UnpinPage(frame)
				return primitives.RID{}, err
			}
			if match {
				rid := entries[s.pos].rid
				s.pos++
				s.idx.bp.UnpinPage(frame)
				return rid, nil
			}
		}

		if err := s.idx.bp.UnpinPage(frame); err != nil {
			return primitives.RID{}, err
		}
		s.page = next
		s.pos = 0
	}

	s.done = true
	return primitives.RID{}, dberr.Code(dberr.CodeRecordEOF, "index scan exhausted")
}

func (s *sortedScanner) Destroy() {
	s.done = true
}

func matches(op primitives.Predicate, entryKey, target []byte) (bool, error) {
	cmp := bytes.Compare(entryKey, target)
	switch op {
	case primitives.Equals:
		return cmp == 0, nil
	case primitives.NotEqual, primitives.NotEqualsBracket:
		return cmp != 0, nil
	case primitives.LessThan:
		return cmp < 0, nil
	case primitives.LessThanOrEqual:
		return cmp <= 0, nil
	case primitives.GreaterThan:
		return cmp > 0, nil
	case primitives.GreaterThanOrEqual:
		return cmp >= 0, nil
	default:
		return false, dberr.Code(dberr.CodeInvalidArgument, "index scanner: unsupported predicate")
	}
}
