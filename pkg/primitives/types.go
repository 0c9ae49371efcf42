package primitives

// FileID is the physical identifier the buffer pool assigns to an open file.
// It has no relationship to the file's content or path; it is just a slot
// index into the open-file table, handed out by the buffer pool on open.
type FileID int32

// TableID and IndexID are FileIDs borrowed for a specific kind of file.
// They exist so a table handle and an index handle cannot be passed to the
// wrong buffer pool accessor by accident, even though both are ultimately
// just FileIDs under the hood.
type TableID FileID
type IndexID FileID

// PageNumber is a page's position within its file, starting at 0 (the
// header page).
type PageNumber uint32

// SlotID is a record's position within a fixed-width record page.
type SlotID uint16

// RID identifies a single record: the page it lives on and its slot within
// that page.
type RID struct {
	Page PageNumber
	Slot SlotID
}

func (r RID) IsValid() bool {
	return r.Page != InvalidPageNumber
}

// HashCode is a generic hash value used for checksums and fast comparisons.
type HashCode uint64

const (
	InvalidPageNumber PageNumber = 0xFFFFFFFF
	InvalidFileID     FileID     = -1
	InvalidSlotID     SlotID     = 0xFFFF
)

func (f FileID) IsValid() bool       { return f >= 0 }
func (t TableID) IsValid() bool      { return FileID(t).IsValid() }
func (i IndexID) IsValid() bool      { return FileID(i).IsValid() }
func (t TableID) ToFileID() FileID   { return FileID(t) }
func (i IndexID) ToFileID() FileID   { return FileID(i) }
