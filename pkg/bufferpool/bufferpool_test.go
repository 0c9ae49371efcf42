package bufferpool

import (
	"path/filepath"
	"testing"

	dberr "storemy/pkg/error"
)

func TestCreateFile_FailsOnExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dat")

	p := New(4, 4)
	if err := p.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	err := p.CreateFile(path)
	if !dberr.HasCode(err, dberr.CodeSchemaDBExist) {
		t.Fatalf("expected SCHEMA_DB_EXIST, got %v", err)
	}
}

func TestOpenFile_ReturnsSameIDTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dat")

	p := New(4, 4)
	if err := p.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	id1, err := p.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	id2, err := p.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile (second): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id, got %v and %v", id1, id2)
	}
}

func TestOpenFile_TooManyFiles(t *testing.T) {
	dir := t.TempDir()
	p := New(8, 2)

	for i := 0; i < 2; i++ {
		path := filepath.Join(dir, "t"+string(rune('a'+i))+".dat")
		if err := p.CreateFile(path); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if _, err := p.OpenFile(path); err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
	}

	path := filepath.Join(dir, "overflow.dat")
	if err := p.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	_, err := p.OpenFile(path)
	if !dberr.HasCode(err, dberr.CodeBufferpoolOpenTooManyFiles) {
		t.Fatalf("expected BUFFERPOOL_OPEN_TOO_MANY_FILES, got %v", err)
	}
}

func TestAllocatePage_GrowsThenReusesFreedBit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dat")

	p := New(8, 4)
	if err := p.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	id, err := p.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	f1, err := p.AllocatePage(id)
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if GetPageNum(f1) != 1 {
		t.Fatalf("expected page 1, got %d", GetPageNum(f1))
	}
	if err := p.UnpinPage(f1); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	if err := p.DisposePage(id, 1); err != nil {
		t.Fatalf("DisposePage: %v", err)
	}

	f2, err := p.AllocatePage(id)
	if err != nil {
		t.Fatalf("AllocatePage (reuse): %v", err)
	}
	if GetPageNum(f2) != 1 {
		t.Fatalf("expected reused page 1, got %d", GetPageNum(f2))
	}
	_ = p.UnpinPage(f2)
}

func TestGetThisPage_InvalidPageNum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dat")

	p := New(4, 4)
	if err := p.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	id, err := p.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	_, err = p.GetThisPage(id, 5)
	if !dberr.HasCode(err, dberr.CodeBufferpoolInvalidPageNum) {
		t.Fatalf("expected BUFFERPOOL_INVALID_PAGE_NUM, got %v", err)
	}
}

func TestDisposePage_DeferredUntilUnpin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dat")

	p := New(4, 4)
	if err := p.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	id, err := p.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	f, err := p.AllocatePage(id)
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	// The frame handle is not valid once its last pin is released, so keep
	// the page number rather than reading it off f afterwards.
	num := GetPageNum(f)

	// Page is pinned twice: once from AllocatePage, once more to simulate a
	// concurrent reader.
	f2, err := p.GetThisPage(id, num)
	if err != nil {
		t.Fatalf("GetThisPage: %v", err)
	}

	if err := p.UnpinPage(f); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	err = p.DisposePage(id, num)
	if !dberr.HasCode(err, dberr.CodeLockedUnlock) {
		t.Fatalf("expected LOCKED_UNLOCK while still pinned, got %v", err)
	}

	if err := p.UnpinPage(f2); err != nil {
		t.Fatalf("UnpinPage (final): %v", err)
	}

	if _, err := p.GetThisPage(id, num); !dberr.HasCode(err, dberr.CodeBufferpoolInvalidPageNum) {
		t.Fatalf("expected page to be gone after deferred disposal fired, got %v", err)
	}
}
