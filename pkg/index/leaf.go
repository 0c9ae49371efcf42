package index

import (
	"bytes"
	"encoding/binary"

	"storemy/pkg/page"
	"storemy/pkg/primitives"
)

const leafHeaderSize = 6 // nextPage u32 + count u16

// entry is one (key, rid) pair as it sits on a leaf page.
type entry struct {
	key []byte
	rid primitives.RID
}

func entrySize(keyLen int) int { return keyLen + 4 + 2 }

func leafCapacity(keyLen int) int {
	return (page.Size - leafHeaderSize) / entrySize(keyLen)
}

func leafNext(data []byte) primitives.PageNumber {
	return primitives.PageNumber(binary.LittleEndian.Uint32(data[0:4]))
}

func setLeafNext(data []byte, next primitives.PageNumber) {
	binary.LittleEndian.PutUint32(data[0:4], uint32(next))
}

func leafCount(data []byte) int {
	return int(binary.LittleEndian.Uint16(data[4:6]))
}

func setLeafCount(data []byte, n int) {
	binary.LittleEndian.PutUint16(data[4:6], uint16(n))
}

// readEntries decodes every live entry on a leaf page, in on-disk order
// (which this package always keeps sorted by key).
func readEntries(data []byte, keyLen int) []entry {
	n := leafCount(data)
	out := make([]entry, n)
	step := entrySize(keyLen)
	for i := 0; i < n; i++ {
		off := leafHeaderSize + i*step
		key := make([]byte, keyLen)
		copy(key, data[off:off+keyLen])
		p := primitives.PageNumber(binary.LittleEndian.Uint32(data[off+keyLen : off+keyLen+4]))
		s := primitives.SlotID(binary.LittleEndian.Uint16(data[off+keyLen+4 : off+keyLen+6]))
		out[i] = entry{key: key, rid: primitives.RID{Page: p, Slot: s}}
	}
	return out
}

// writeEntries overwrites a leaf page's entry list and count, leaving
// nextPage untouched.
func writeEntries(data []byte, keyLen int, entries []entry) {
	step := entrySize(keyLen)
	setLeafCount(data, len(entries))
	for i, e := range entries {
		off := leafHeaderSize + i*step
		copy(data[off:off+keyLen], e.key)
		binary.LittleEndian.PutUint32(data[off+keyLen:off+keyLen+4], uint32(e.rid.Page))
		binary.LittleEndian.PutUint16(data[off+keyLen+4:off+keyLen+6], uint16(e.rid.Slot))
	}
}

// insertSorted inserts e into entries at its sorted position, keeping ties
// on key ordered by insertion order (stable, not that it matters here).
func insertSorted(entries []entry, e entry) []entry {
	i := 0
	for i < len(entries) && bytes.Compare(entries[i].key, e.key) <= 0 {
		i++
	}
	out := make([]entry, len(entries)+1)
	copy(out[:i], entries[:i])
	out[i] = e
	copy(out[i+1:], entries[i:])
	return out
}
