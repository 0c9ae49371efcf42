package index

import (
	"bytes"
	"fmt"

	dberr "storemy/pkg/error"
	"storemy/pkg/bufferpool"
	"storemy/pkg/pool"
	"storemy/pkg/primitives"
)

// headLeafOffset is where the index's head leaf page number lives inside
// the header page, past the allocation bitmap's realistic range. The
// header page is otherwise owned by the buffer pool (sub-header + bitmap);
// this is the index layer's one piece of state riding along on page 0.
const headLeafOffset = 8188 // page.Size - 4

// SortedIndex is a chain of sorted leaf pages: Index without branch pages.
// Lookups walk the chain from head; inserts find (or make, by splitting)
// room for an entry while keeping every leaf's entries sorted by key.
// Keys passed in must already be order-preserving byte encodings (see
// types.Field.SortKey). This package only ever compares keys with
// bytes.Compare.
type SortedIndex struct {
	bp     *bufferpool.Pool
	file   primitives.FileID
	keyLen int
	head   primitives.PageNumber
}

// Create initializes a brand-new index on file, which the caller has
// already created and opened through bp. Create allocates the sole
// initial leaf page and records it as head on the header page.
func Create(bp *bufferpool.Pool, file primitives.FileID, keyLen int) (*SortedIndex, error) {
	leaf, err := bp.AllocatePage(file)
	if err != nil {
		return nil, err
	}
	leafData := bufferpool.GetData(leaf)
	setLeafNext(leafData, primitives.InvalidPageNumber)
	setLeafCount(leafData, 0)
	bp.MarkDirty(leaf)
	head := bufferpool.GetPageNum(leaf)
	if err := bp.UnpinPage(leaf); err != nil {
		return nil, err
	}

	hdr, err := bp.GetThisPage(file, 0)
	if err != nil {
		return nil, err
	}
	setHeadLeaf(bufferpool.GetData(hdr), head)
	bp.MarkDirty(hdr)
	if err := bp.UnpinPage(hdr); err != nil {
		return nil, err
	}

	return &SortedIndex{bp: bp, file: file, keyLen: keyLen, head: head}, nil
}

// Open wraps an index file previously initialized by Create.
func Open(bp *bufferpool.Pool, file primitives.FileID, keyLen int) (*SortedIndex, error) {
	hdr, err := bp.GetThisPage(file, 0)
	if err != nil {
		return nil, err
	}
	head := headLeaf(bufferpool.GetData(hdr))
	if err := bp.UnpinPage(hdr); err != nil {
		return nil, err
	}
	return &SortedIndex{bp: bp, file: file, keyLen: keyLen, head: head}, nil
}

func headLeaf(hdr []byte) primitives.PageNumber {
	return primitives.PageNumber(uint32(hdr[headLeafOffset])<<24 | uint32(hdr[headLeafOffset+1])<<16 |
		uint32(hdr[headLeafOffset+2])<<8 | uint32(hdr[headLeafOffset+3]))
}

func setHeadLeaf(hdr []byte, num primitives.PageNumber) {
	hdr[headLeafOffset] = byte(num >> 24)
	hdr[headLeafOffset+1] = byte(num >> 16)
	hdr[headLeafOffset+2] = byte(num >> 8)
	hdr[headLeafOffset+3] = byte(num)
}

func (idx *SortedIndex) checkKeyLen(key []byte) error {
	if len(key) != idx.keyLen {
		return dberr.Code(dberr.CodeInvalidArgument,
			fmt.Sprintf("index key is %d bytes, expected %d", len(key), idx.keyLen))
	}
	return nil
}

// InsertEntry inserts (key, rid) into its sorted leaf, splitting that leaf
// if it is full.
func (idx *SortedIndex) InsertEntry(key []byte, rid primitives.RID) error {
	if err := idx.checkKeyLen(key); err != nil {
		return err
	}

	num := idx.head
	for {
		frame, err := idx.bp.GetThisPage(idx.file, num)
		if err != nil {
			return err
		}
		data := bufferpool.GetData(frame)
		next := leafNext(data)
		entries := readEntries(data, idx.keyLen)

		belongsHere := next == primitives.InvalidPageNumber ||
			len(entries) == 0 || bytes.Compare(key, entries[len(entries)-1].key) <= 0
		if !belongsHere {
			if err := idx.bp.UnpinPage(frame); err != nil {
				return err
			}
			num = next
			continue
		}

		entries = insertSorted(entries, entry{key: append([]byte(nil), key...), rid: rid})
		if len(entries) <= leafCapacity(idx.keyLen) {
			writeEntries(data, idx.keyLen, entries)
			idx.bp.MarkDirty(frame)
			return idx.bp.UnpinPage(frame)
		}
		return idx.splitAndWrite(frame, data, next, entries)
	}
}

// splitAndWrite divides entries across the existing leaf and a freshly
// allocated one, chaining the new leaf in after it.
func (idx *SortedIndex) splitAndWrite(frame *pool.Frame, data []byte, oldNext primitives.PageNumber, entries []entry) error {
	mid := len(entries) / 2
	left, right := entries[:mid], entries[mid:]

	newFrame, err := idx.bp.AllocatePage(idx.file)
	if err != nil {
		idx.bp.UnpinPage(frame)
		return err
	}
	newData := bufferpool.GetData(newFrame)
	setLeafNext(newData, oldNext)
	writeEntries(newData, idx.keyLen, right)
	idx.bp.MarkDirty(newFrame)
	newNum := bufferpool.GetPageNum(newFrame)
	if err := idx.bp.UnpinPage(newFrame); err != nil {
		idx.bp.UnpinPage(frame)
		return err
	}

	setLeafNext(data, newNum)
	writeEntries(data, idx.keyLen, left)
	idx.bp.MarkDirty(frame)
	return idx.bp.UnpinPage(frame)
}

// DeleteEntry removes the first (key, rid) match found walking the chain
// from head. A key with no matching entry always reports
// RECORD_INVALID_KEY; tolerating that is the table layer's job.
func (idx *SortedIndex) DeleteEntry(key []byte, rid primitives.RID) error {
	if err := idx.checkKeyLen(key); err != nil {
		return err
	}

	num := idx.head
	for num != primitives.InvalidPageNumber {
		frame, err := idx.bp.GetThisPage(idx.file, num)
		if err != nil {
			return err
		}
		data := bufferpool.GetData(frame)
		next := leafNext(data)
		entries := readEntries(data, idx.keyLen)

		at := -1
		for i, e := range entries {
			if bytes.Equal(e.key, key) && e.rid == rid {
				at = i
				break
			}
		}
		if at >= 0 {
			entries = append(entries[:at], entries[at+1:]...)
			writeEntries(data, idx.keyLen, entries)
			idx.bp.MarkDirty(frame)
			return idx.bp.UnpinPage(frame)
		}
		if err := idx.bp.UnpinPage(frame); err != nil {
			return err
		}
		num = next
	}

	return dberr.Code(dberr.CodeRecordInvalidKey, fmt.Sprintf("no index entry for key %x rid %+v", key, rid))
}

// CreateScanner opens an ordered scan over every entry matching op against
// key, starting from the head leaf.
func (idx *SortedIndex) CreateScanner(op primitives.Predicate, key []byte) (Scanner, error) {
	if err := idx.checkKeyLen(key); err != nil {
		return nil, err
	}
	return &sortedScanner{idx: idx, op: op, key: append([]byte(nil), key...), page: idx.head, pos: 0}, nil
}

// Sync flushes every dirty resident page of this index's file.
func (idx *SortedIndex) Sync() error {
	return idx.bp.FlushFile(idx.file)
}

// Close releases no resources of its own: the index file's lifecycle
// belongs to whoever opened it (the table layer), not to this wrapper.
func (idx *SortedIndex) Close() error { return nil }
