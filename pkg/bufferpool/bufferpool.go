// Package bufferpool implements the disk buffer pool: file create/open/
// close, page allocate/get/dispose/purge, and dirty flush. It owns the
// frame pool (pkg/pool) and the open-file table and is the only thing in
// this module that touches raw file descriptors.
//
// Grounded on the original engine's disk_buffer_pool.cpp: create_file is
// an exclusive create that seeds page 0's sub-header and bitmap,
// allocate_page scans the bitmap for the lowest clear bit before growing
// the file, and dispose_page never erases disk contents: it only clears a
// bitmap bit and decrements allocated_pages.
package bufferpool

import (
	"fmt"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"

	dberr "storemy/pkg/error"
	"storemy/pkg/logging"
	"storemy/pkg/page"
	"storemy/pkg/pool"
	"storemy/pkg/primitives"
)

// DefaultMaxOpenFile bounds the open-file table's capacity.
const DefaultMaxOpenFile = 64

// DefaultPoolFraction derives the frame pool's size from MaxOpenFile, the
// same way the original engine derives POOL_NUM from MAX_OPEN_FILE.
const DefaultPoolFraction = 4

type fileHandle struct {
	id       primitives.FileID
	path     string
	file     *os.File
	header   *pool.Frame
	deferred map[primitives.PageNumber]bool
}

// Pool is the disk buffer pool: the single point every page read or write
// in this module passes through.
type Pool struct {
	mu          sync.Mutex
	frames      *pool.Pool
	files       []*fileHandle // indexed by FileID
	maxOpenFile int
}

// New constructs a buffer pool with frameCount frames and capacity for
// maxOpenFile simultaneously open files.
func New(frameCount, maxOpenFile int) *Pool {
	return &Pool{
		frames:      pool.New(frameCount),
		files:       make([]*fileHandle, maxOpenFile),
		maxOpenFile: maxOpenFile,
	}
}

// NewDefault constructs a Pool sized the way the original engine derives
// its defaults: the frame pool is MaxOpenFile/DefaultPoolFraction frames.
func NewDefault() *Pool {
	return New(DefaultMaxOpenFile/DefaultPoolFraction, DefaultMaxOpenFile)
}

// CreateFile exclusive-creates path and seeds it with a header page: one
// allocated page (itself), bitmap bit 0 set.
func (p *Pool) CreateFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return dberr.Code(dberr.CodeSchemaDBExist, "file already exists: "+path)
		}
		return dberr.Code(dberr.CodeIOErr, "create "+path).WithCause(err)
	}
	defer f.Close()

	var hdr page.Page
	setSubHeader(hdr.Data[:], 1, 1)
	bitmapSet(hdr.Data[:], 0)

	if _, err := f.WriteAt(hdr.Data[:], 0); err != nil {
		return dberr.Code(dberr.CodeIOErrWrite, "writing header page of "+path).WithCause(err)
	}
	return nil
}

// OpenFile opens path, assigning it a FileID. Opening an already-open path
// returns the existing id without re-reading page 0, matching the original
// engine's short-circuit.
func (p *Pool) OpenFile(path string) (primitives.FileID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, fh := range p.files {
		if fh != nil && fh.path == path {
			return primitives.FileID(i), nil
		}
	}

	slot := -1
	for i, fh := range p.files {
		if fh == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return primitives.InvalidFileID, dberr.Code(dberr.CodeBufferpoolOpenTooManyFiles,
			fmt.Sprintf("open-file table is full (%d slots)", p.maxOpenFile))
	}

	osFile, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return primitives.InvalidFileID, dberr.Code(dberr.CodeIOErrAccess, "open "+path).WithCause(err)
	}

	id := primitives.FileID(slot)
	frame := p.frames.Alloc()
	if frame == nil {
		frame = p.frames.BeginPurge()
		if frame == nil {
			osFile.Close()
			return primitives.InvalidFileID, dberr.Code(dberr.CodeNoMem, "no free frame to pin header page of "+path)
		}
		if err := p.evict(frame); err != nil {
			osFile.Close()
			return primitives.InvalidFileID, err
		}
	}

	hdrPage := page.New(0)
	if _, err := osFile.ReadAt(hdrPage.Data[:], 0); err != nil {
		osFile.Close()
		return primitives.InvalidFileID, dberr.Code(dberr.CodeIOErrRead, "reading header page of "+path).WithCause(err)
	}
	p.frames.Claim(frame, id, hdrPage)

	p.files[slot] = &fileHandle{
		id:       id,
		path:     path,
		file:     osFile,
		header:   frame,
		deferred: make(map[primitives.PageNumber]bool),
	}
	logging.WithComponent("bufferpool").Debug("opened file", "path", path, "file_id", int(id))
	return id, nil
}

// CloseFile unpins the header frame, purges every resident page of this
// file, and releases its slot.
func (p *Pool) CloseFile(id primitives.FileID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fh, err := p.lookup(id)
	if err != nil {
		return err
	}

	fh.header.PinCount--
	if err := p.purgeAllPagesLocked(id); err != nil {
		fh.header.PinCount++
		return err
	}

	if err := fh.file.Close(); err != nil {
		return dberr.Code(dberr.CodeIOErrClose, "closing "+fh.path).WithCause(err)
	}
	p.files[int(id)] = nil
	return nil
}

func (p *Pool) lookup(id primitives.FileID) (*fileHandle, error) {
	if id < 0 || int(id) >= len(p.files) || p.files[int(id)] == nil {
		return nil, dberr.Code(dberr.CodeBufferpoolIllegalFileID, fmt.Sprintf("no open file with id %d", id))
	}
	return p.files[int(id)], nil
}

// GetThisPage pins and returns the frame holding (id, num), loading it from
// disk if it is not already resident.
func (p *Pool) GetThisPage(id primitives.FileID, num primitives.PageNumber) (*pool.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getThisPageLocked(id, num)
}

func (p *Pool) getThisPageLocked(id primitives.FileID, num primitives.PageNumber) (*pool.Frame, error) {
	fh, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	_, pageCount := subHeader(fh.header.Page.Data[:])
	if uint32(num) >= pageCount || !bitmapBit(fh.header.Page.Data[:], num) {
		return nil, dberr.Code(dberr.CodeBufferpoolInvalidPageNum, fmt.Sprintf("page %d not allocated in file %d", num, id))
	}

	if frame := p.frames.Find(func(f *pool.Frame) bool { return f.File == id && f.Page.Num == num }); frame != nil {
		frame.PinCount++
		p.frames.MarkModified(frame)
		return frame, nil
	}

	frame, err := p.allocateFrame()
	if err != nil {
		return nil, err
	}
	pg := page.New(num)
	if _, err := fh.file.ReadAt(pg.Data[:], int64(num)*page.Size); err != nil {
		p.frames.Free(frame)
		return nil, dberr.Code(dberr.CodeIOErrRead, fmt.Sprintf("reading page %d of file %d", num, id)).WithCause(err)
	}
	p.frames.Claim(frame, id, pg)
	return frame, nil
}

// AllocatePage reserves a new page for id: the lowest free bit in the
// bitmap if one exists below page_count, otherwise a page appended to the
// end of the file.
func (p *Pool) AllocatePage(id primitives.FileID) (*pool.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fh, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	hdrData := fh.header.Page.Data[:]
	allocated, pageCount := subHeader(hdrData)

	if allocated < pageCount {
		num, ok := bitmapFirstClear(hdrData, pageCount)
		if !ok {
			return nil, dberr.Code(dberr.CodeGenericError, "allocated_pages < page_count but bitmap has no clear bit")
		}
		bitmapSet(hdrData, num)
		setSubHeader(hdrData, allocated+1, pageCount)
		fh.header.Dirty = true
		return p.getThisPageLocked(id, num)
	}

	frame, err := p.allocateFrame()
	if err != nil {
		return nil, err
	}
	newNum := primitives.PageNumber(pageCount)
	bitmapSet(hdrData, newNum)
	setSubHeader(hdrData, allocated+1, pageCount+1)
	fh.header.Dirty = true

	pg := page.New(newNum)
	p.frames.Claim(frame, id, pg)
	if err := p.flushPageLocked(fh, frame); err != nil {
		p.frames.Free(frame)
		return nil, err
	}
	return frame, nil
}

// MarkDirty flags frame as modified; the next flush (eviction, close, or
// explicit Sync) will write it back.
func (p *Pool) MarkDirty(f *pool.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f.Dirty = true
}

func GetData(f *pool.Frame) []byte { return f.Page.Data[:] }

func GetPageNum(f *pool.Frame) primitives.PageNumber { return f.Page.Num }

// UnpinPage decrements f's pin count. If it reaches zero and the page was
// deferred for disposal while pinned, the disposal runs now.
func (p *Pool) UnpinPage(f *pool.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := f.File
	f.PinCount--
	if f.PinCount < 0 {
		f.PinCount = 0
	}
	if f.PinCount != 0 {
		return nil
	}

	fh, err := p.lookup(id)
	if err != nil {
		return nil
	}
	num := f.Page.Num
	if fh.deferred[num] {
		delete(fh.deferred, num)
		return p.disposePageLocked(id, num)
	}
	return nil
}

// DisposePage logically frees page num: clears its bitmap bit and
// decrements allocated_pages. Disk bytes are left untouched. If the page
// is still pinned, disposal is deferred until the pin drops to zero.
func (p *Pool) DisposePage(id primitives.FileID, num primitives.PageNumber) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposePageLocked(id, num)
}

func (p *Pool) disposePageLocked(id primitives.FileID, num primitives.PageNumber) error {
	fh, err := p.lookup(id)
	if err != nil {
		return err
	}

	err = p.purgePageLocked(id, num)
	if dberr.HasCode(err, dberr.CodeLockedUnlock) {
		fh.deferred[num] = true
		return err
	}
	if err != nil {
		return err
	}

	hdrData := fh.header.Page.Data[:]
	allocated, pageCount := subHeader(hdrData)
	bitmapClear(hdrData, num)
	setSubHeader(hdrData, allocated-1, pageCount)
	fh.header.Dirty = true
	return nil
}

// PurgePage evicts page num of file id from the pool if it is resident and
// unpinned, flushing it first if dirty. Returns LOCKED_UNLOCK if it is
// pinned; that is not a fatal error, callers use it to drive deferral.
func (p *Pool) PurgePage(id primitives.FileID, num primitives.PageNumber) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purgePageLocked(id, num)
}

func (p *Pool) purgePageLocked(id primitives.FileID, num primitives.PageNumber) error {
	frame := p.frames.Find(func(f *pool.Frame) bool { return f.File == id && f.Page.Num == num })
	if frame == nil {
		return nil
	}
	return p.purgeFrameLocked(id, frame)
}

func (p *Pool) purgeFrameLocked(id primitives.FileID, frame *pool.Frame) error {
	if frame.PinCount > 0 {
		return dberr.Code(dberr.CodeLockedUnlock, fmt.Sprintf("page %d of file %d is still pinned", frame.Page.Num, id))
	}
	if frame.Dirty {
		fh, err := p.lookup(id)
		if err != nil {
			return err
		}
		if err := p.flushPageLocked(fh, frame); err != nil {
			return err
		}
	}
	p.frames.Free(frame)
	return nil
}

// PurgeAllPages evicts every resident page of file id, skipping (and
// logging) any that are still pinned.
func (p *Pool) PurgeAllPages(id primitives.FileID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purgeAllPagesLocked(id)
}

func (p *Pool) purgeAllPagesLocked(id primitives.FileID) error {
	log := logging.WithComponent("bufferpool")
	for _, frame := range p.frames.FindAll(func(f *pool.Frame) bool { return f.File == id }) {
		if frame.PinCount > 0 {
			log.Warn("skipping pinned frame during purge_all_pages", "file_id", int(id), "page", int(frame.Page.Num))
			continue
		}
		if err := p.purgeFrameLocked(id, frame); err != nil {
			return err
		}
	}
	return nil
}

// FlushPage writes frame's payload back to disk at its page offset and
// clears its dirty flag.
func (p *Pool) FlushPage(f *pool.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fh, err := p.lookup(f.File)
	if err != nil {
		return err
	}
	return p.flushPageLocked(fh, f)
}

func (p *Pool) flushPageLocked(fh *fileHandle, f *pool.Frame) error {
	logging.WithPage(int(f.Page.Num)).Debug("flushing page", "checksum", xxhash.Sum64(f.Page.Data[:]))
	if _, err := fh.file.WriteAt(f.Page.Data[:], int64(f.Page.Num)*page.Size); err != nil {
		return dberr.Code(dberr.CodeIOErrWrite, fmt.Sprintf("flushing page %d of %s", f.Page.Num, fh.path)).WithCause(err)
	}
	f.Dirty = false
	return nil
}

// allocateFrame reserves a frame from the pool, evicting if necessary.
func (p *Pool) allocateFrame() (*pool.Frame, error) {
	if frame := p.frames.Alloc(); frame != nil {
		return frame, nil
	}
	candidate := p.frames.BeginPurge()
	if candidate == nil {
		return nil, dberr.Code(dberr.CodeNoMem, "buffer pool exhausted: no unpinned frame to evict")
	}
	if err := p.evict(candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

func (p *Pool) evict(f *pool.Frame) error {
	if f.Dirty {
		fh := p.files[int(f.File)]
		if fh != nil {
			if err := p.flushPageLocked(fh, f); err != nil {
				return err
			}
		}
	}
	p.frames.Free(f)
	return nil
}

// FlushFile writes back every dirty resident page of file id, without
// evicting any of them.
func (p *Pool) FlushFile(id primitives.FileID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fh, err := p.lookup(id)
	if err != nil {
		return err
	}
	for _, frame := range p.frames.FindAll(func(f *pool.Frame) bool { return f.File == id && f.Dirty }) {
		if err := p.flushPageLocked(fh, frame); err != nil {
			return err
		}
	}
	return nil
}

// PageCount returns the current page_count of file id (including the
// header page).
func (p *Pool) PageCount(id primitives.FileID) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fh, err := p.lookup(id)
	if err != nil {
		return 0, err
	}
	_, pageCount := subHeader(fh.header.Page.Data[:])
	return pageCount, nil
}
