package pool

import (
	"testing"

	"storemy/pkg/page"
	"storemy/pkg/primitives"
)

func TestAlloc_ReturnsNilOncePoolIsFull(t *testing.T) {
	p := New(2)
	first := p.Alloc()
	if first == nil {
		t.Fatal("expected a free frame from a fresh pool")
	}
	p.Claim(first, primitives.FileID(0), page.New(1))

	second := p.Alloc()
	if second == nil {
		t.Fatal("expected a second free frame")
	}
	p.Claim(second, primitives.FileID(0), page.New(2))

	if p.Alloc() != nil {
		t.Error("expected Alloc to return nil once every frame is claimed")
	}
}

func TestFree_MakesAFrameAllocableAgain(t *testing.T) {
	p := New(1)
	f := p.Alloc()
	p.Claim(f, primitives.FileID(0), page.New(3))

	if p.Alloc() != nil {
		t.Fatal("expected the single frame to be occupied")
	}

	p.Free(f)
	if p.Alloc() == nil {
		t.Error("expected Alloc to succeed after Free")
	}
}

func TestFind_OnlyMatchesUsedFrames(t *testing.T) {
	p := New(2)
	f := p.Alloc()
	p.Claim(f, primitives.FileID(5), page.New(9))

	pred := func(fr *Frame) bool { return fr.File == primitives.FileID(5) && fr.Page.Num == 9 }
	if p.Find(pred) != f {
		t.Error("expected Find to locate the claimed frame")
	}

	p.Free(f)
	if p.Find(pred) != nil {
		t.Error("expected Find to ignore a freed frame")
	}
}

func TestBeginPurge_SkipsPinnedFrames(t *testing.T) {
	p := New(2)
	pinned := p.Alloc()
	p.Claim(pinned, primitives.FileID(0), page.New(1))
	pinned.PinCount = 2

	unpinned := p.Alloc()
	p.Claim(unpinned, primitives.FileID(0), page.New(2))
	unpinned.PinCount = 0

	candidate := p.BeginPurge()
	if candidate != unpinned {
		t.Errorf("expected BeginPurge to pick the unpinned frame")
	}
}

func TestBeginPurge_ReturnsNilWhenEveryResidentFrameIsPinned(t *testing.T) {
	p := New(1)
	f := p.Alloc()
	p.Claim(f, primitives.FileID(0), page.New(1))
	f.PinCount = 1

	if p.BeginPurge() != nil {
		t.Error("expected no eviction candidate while the only frame is pinned")
	}
}

func TestClaim_PinsOnceAndClearsDirty(t *testing.T) {
	p := New(1)
	f := p.Alloc()
	f.Dirty = true

	p.Claim(f, primitives.FileID(3), page.New(4))
	if f.PinCount != 1 {
		t.Errorf("PinCount = %d, want 1", f.PinCount)
	}
	if f.Dirty {
		t.Error("expected Claim to clear Dirty")
	}
	if !f.CanPurge() && f.PinCount == 0 {
		t.Error("CanPurge should only be false while pinned")
	}
}
