// Package record maps a paged file into fixed-size record slots on top of
// the buffer pool. Page 0 of the file is still the allocation header the
// buffer pool owns; every page numbered 1 and up is a record page: a slot
// bitmap followed by a fixed number of record_size-byte slots.
//
// Grounded on the original engine's record file handler: a record page's
// capacity is computed once from the table's record size, insert finds the
// first page with a free slot (or allocates a new page), and delete only
// clears the slot bit; it never frees the page itself.
package record

import (
	"fmt"

	dberr "storemy/pkg/error"
	"storemy/pkg/bufferpool"
	"storemy/pkg/pool"
	"storemy/pkg/primitives"
)

// Handler wraps one (buffer pool, file) pair and translates slot
// operations into page operations.
type Handler struct {
	pool        *bufferpool.Pool
	file        primitives.FileID
	recordSize  int
	slots       int
	bitmapBytes int
}

func NewHandler(bp *bufferpool.Pool, file primitives.FileID, recordSize int) *Handler {
	slots, bitmapBytes := capacity(recordSize)
	return &Handler{pool: bp, file: file, recordSize: recordSize, slots: slots, bitmapBytes: bitmapBytes}
}

func (h *Handler) RecordSize() int { return h.recordSize }

// InsertRecord copies data (exactly RecordSize() bytes) into the first free
// slot on an existing page, or a newly allocated page if none has room.
func (h *Handler) InsertRecord(data []byte) (primitives.RID, error) {
	if len(data) != h.recordSize {
		return primitives.RID{}, dberr.Code(dberr.CodeInvalidArgument,
			fmt.Sprintf("record is %d bytes, handler expects %d", len(data), h.recordSize))
	}

	pageCount, err := h.pool.PageCount(h.file)
	if err != nil {
		return primitives.RID{}, err
	}

	for num := primitives.PageNumber(1); num < primitives.PageNumber(pageCount); num++ {
		frame, err := h.pool.GetThisPage(h.file, num)
		if err != nil {
			// Not every page number in [1, pageCount) is necessarily
			// allocated (disposal can punch holes); skip ones that aren't.
			if dberr.HasCode(err, dberr.CodeBufferpoolInvalidPageNum) {
				continue
			}
			return primitives.RID{}, err
		}
		rid, ok := h.tryInsertInto(frame, num, data)
		if ok {
			return rid, nil
		}
		if err := h.pool.UnpinPage(frame); err != nil {
			return primitives.RID{}, err
		}
	}

	frame, err := h.pool.AllocatePage(h.file)
	if err != nil {
		return primitives.RID{}, err
	}
	rid, ok := h.tryInsertInto(frame, bufferpool.GetPageNum(frame), data)
	if !ok {
		h.pool.UnpinPage(frame)
		return primitives.RID{}, dberr.Code(dberr.CodeGenericError, "freshly allocated record page has no free slot")
	}
	return rid, nil
}

func (h *Handler) tryInsertInto(frame *pool.Frame, num primitives.PageNumber, data []byte) (primitives.RID, bool) {
	buf := bufferpool.GetData(frame)
	bitmap := buf[:h.bitmapBytes]
	for slot := 0; slot < h.slots; slot++ {
		if slotBit(bitmap, slot) {
			continue
		}
		slotSet(bitmap, slot)
		off := slotOffset(h.bitmapBytes, h.recordSize, slot)
		copy(buf[off:off+h.recordSize], data)
		h.pool.MarkDirty(frame)
		h.pool.UnpinPage(frame)
		return primitives.RID{Page: num, Slot: primitives.SlotID(slot)}, true
	}
	return primitives.RID{}, false
}

// GetRecord returns a copy of the record bytes at rid.
func (h *Handler) GetRecord(rid primitives.RID) ([]byte, error) {
	frame, err := h.pool.GetThisPage(h.file, rid.Page)
	if err != nil {
		return nil, err
	}
	defer h.pool.UnpinPage(frame)

	buf := bufferpool.GetData(frame)
	bitmap := buf[:h.bitmapBytes]
	slot := int(rid.Slot)
	if slot < 0 || slot >= h.slots || !slotBit(bitmap, slot) {
		return nil, dberr.Code(dberr.CodeRecordInvalidKey, fmt.Sprintf("no record at %+v", rid))
	}

	off := slotOffset(h.bitmapBytes, h.recordSize, slot)
	out := make([]byte, h.recordSize)
	copy(out, buf[off:off+h.recordSize])
	return out, nil
}

// PutRecord overwrites the bytes already stored at rid in place, without
// touching the slot bitmap. This is not a user-facing record update (that
// remains unsupported, see Table.UpdateRecord). It is the primitive the
// transaction commit/rollback path uses to rewrite a record's system
// tombstone field after the slot has already been claimed.
func (h *Handler) PutRecord(rid primitives.RID, data []byte) error {
	if len(data) != h.recordSize {
		return dberr.Code(dberr.CodeInvalidArgument,
			fmt.Sprintf("record is %d bytes, handler expects %d", len(data), h.recordSize))
	}

	frame, err := h.pool.GetThisPage(h.file, rid.Page)
	if err != nil {
		return err
	}
	defer h.pool.UnpinPage(frame)

	buf := bufferpool.GetData(frame)
	bitmap := buf[:h.bitmapBytes]
	slot := int(rid.Slot)
	if slot < 0 || slot >= h.slots || !slotBit(bitmap, slot) {
		return dberr.Code(dberr.CodeRecordInvalidKey, fmt.Sprintf("no record at %+v", rid))
	}

	off := slotOffset(h.bitmapBytes, h.recordSize, slot)
	copy(buf[off:off+h.recordSize], data)
	h.pool.MarkDirty(frame)
	return nil
}

// DeleteRecord clears rid's slot bit. The page itself stays allocated; this
// module never frees a record page once it exists.
func (h *Handler) DeleteRecord(rid primitives.RID) error {
	frame, err := h.pool.GetThisPage(h.file, rid.Page)
	if err != nil {
		return err
	}
	defer h.pool.UnpinPage(frame)

	buf := bufferpool.GetData(frame)
	bitmap := buf[:h.bitmapBytes]
	slot := int(rid.Slot)
	if slot < 0 || slot >= h.slots || !slotBit(bitmap, slot) {
		return dberr.Code(dberr.CodeRecordInvalidKey, fmt.Sprintf("no record at %+v", rid))
	}
	slotClear(bitmap, slot)
	h.pool.MarkDirty(frame)
	return nil
}
