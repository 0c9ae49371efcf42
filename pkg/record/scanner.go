package record

import (
	dberr "storemy/pkg/error"
	"storemy/pkg/bufferpool"
	"storemy/pkg/primitives"
)

// Scanner is a stateful, non-restartable lazy iterator over every live slot
// of one file's record pages, in page-then-slot order. It pins at most one
// page at a time.
type Scanner struct {
	h       *Handler
	filter  func(data []byte) (bool, error)
	page    primitives.PageNumber
	slot    int
	pageCnt uint32
	done    bool
}

// OpenScan begins a scan of h's file. filter may be nil, meaning every live
// record matches.
func (h *Handler) OpenScan(filter func(data []byte) (bool, error)) (*Scanner, error) {
	pageCount, err := h.pool.PageCount(h.file)
	if err != nil {
		return nil, err
	}
	return &Scanner{h: h, filter: filter, page: 1, slot: 0, pageCnt: pageCount}, nil
}

// GetNextRecord advances to, and returns, the next record matching the
// scan's filter. Returns a RECORD_EOF-coded error once exhausted.
func (s *Scanner) GetNextRecord() (primitives.RID, []byte, error) {
	if s.done {
		return primitives.RID{}, nil, dberr.Code(dberr.CodeRecordEOF, "scan exhausted")
	}

	for s.page < primitives.PageNumber(s.pageCnt) {
		frame, err := s.h.pool.GetThisPage(s.h.file, s.page)
		if err != nil {
			if dberr.HasCode(err, dberr.CodeBufferpoolInvalidPageNum) {
				s.page++
				s.slot = 0
				continue
			}
			return primitives.RID{}, nil, err
		}

		buf := bufferpool.GetData(frame)
		bitmap := buf[:s.h.bitmapBytes]
		found := false
		var rid primitives.RID
		var data []byte

		for ; s.slot < s.h.slots; s.slot++ {
			if !slotBit(bitmap, s.slot) {
				continue
			}
			off := slotOffset(s.h.bitmapBytes, s.h.recordSize, s.slot)
			candidate := buf[off : off+s.h.recordSize]

			if s.filter != nil {
				ok, err := s.filter(candidate)
				if err != nil {
					s.h.pool.UnpinPage(frame)
					return primitives.RID{}, nil, err
				}
				if !ok {
					continue
				}
			}

			data = make([]byte, s.h.recordSize)
			copy(data, candidate)
			rid = primitives.RID{Page: s.page, Slot: primitives.SlotID(s.slot)}
			found = true
			s.slot++
			break
		}

		if err := s.h.pool.UnpinPage(frame); err != nil {
			return primitives.RID{}, nil, err
		}
		if found {
			return rid, data, nil
		}

		s.page++
		s.slot = 0
	}

	s.done = true
	return primitives.RID{}, nil, dberr.Code(dberr.CodeRecordEOF, "scan exhausted")
}

// CloseScan releases any scanner state. The scanner pins at most one page
// at a time and always unpins before returning from GetNextRecord, so
// CloseScan has nothing left to release in this implementation; it exists
// so callers have a single, unconditional cleanup call on every exit path.
func (s *Scanner) CloseScan() {
	s.done = true
}
