package idalloc

import "testing"

func TestPoolAcquireReleaseReuseBumpsGeneration(t *testing.T) {
	p := NewPool()
	a := p.Acquire()
	if !p.Live(a) {
		t.Fatalf("freshly acquired id should be live")
	}

	p.Release(a)
	if p.Live(a) {
		t.Fatalf("released id should no longer be live")
	}

	b := p.Acquire()
	if a.Index() != b.Index() {
		t.Fatalf("expected slot reuse, got different indices %d vs %d", a.Index(), b.Index())
	}
	if a.Generation() == b.Generation() {
		t.Fatalf("expected generation bump on reuse, both were %d", a.Generation())
	}
	if !p.Live(b) {
		t.Fatalf("reacquired id should be live")
	}
	if p.Live(a) {
		t.Fatalf("stale id must not be reported live even though its slot was reused")
	}
}

func TestPoolDoubleReleaseIsSafe(t *testing.T) {
	p := NewPool()
	a := p.Acquire()
	p.Release(a)
	p.Release(a) // must not panic or corrupt the free list

	b := p.Acquire()
	c := p.Acquire()
	if b.Index() == c.Index() {
		t.Fatalf("double release must not hand out the same slot twice: %d == %d", b.Index(), c.Index())
	}
}

func TestPoolLiveRejectsOutOfRangeIndex(t *testing.T) {
	p := NewPool()
	if p.Live(ID(999999)) {
		t.Fatalf("expected an id never acquired from this pool to be reported not live")
	}
}

func TestPoolAcquireManyDistinctIndices(t *testing.T) {
	p := NewPool()
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		id := p.Acquire()
		if seen[id.Index()] {
			t.Fatalf("duplicate index %d handed out before any release", id.Index())
		}
		seen[id.Index()] = true
	}
}
