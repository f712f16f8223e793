package pipeline

import (
	"context"
	"testing"
)

func drainPager(t *testing.T, p *PagerRP) []uint64 {
	t.Helper()
	var got []uint64
	for {
		var rec Record
		st := p.Next(context.Background(), &rec)
		if st == EOF {
			break
		}
		if st != OK {
			t.Fatalf("unexpected status %s", st)
		}
		got = append(got, rec.DocID)
	}
	return got
}

func TestPagerRP_OffsetAndLimit(t *testing.T) {
	meta := newTestMetaTable([]uint64{1, 2, 3, 4, 5}, nil)
	handle := NewHandle(meta, PolicyReturn)

	records := []Record{{DocID: 1}, {DocID: 2}, {DocID: 3}, {DocID: 4}, {DocID: 5}}
	stub := newStubRP(handle, records)
	pager := NewPagerRP(handle, stub, 2, 2)

	got := drainPager(t, pager)
	want := []uint64{3, 4}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPagerRP_OffsetBeyondUpstream(t *testing.T) {
	meta := newTestMetaTable([]uint64{1, 2}, nil)
	handle := NewHandle(meta, PolicyReturn)

	records := []Record{{DocID: 1}, {DocID: 2}}
	stub := newStubRP(handle, records)
	pager := NewPagerRP(handle, stub, 10, 5)

	got := drainPager(t, pager)
	if len(got) != 0 {
		t.Fatalf("expected no results, got %v", got)
	}
}

func TestPagerRP_ZeroOffset(t *testing.T) {
	meta := newTestMetaTable([]uint64{1, 2, 3}, nil)
	handle := NewHandle(meta, PolicyReturn)

	records := []Record{{DocID: 1}, {DocID: 2}, {DocID: 3}}
	stub := newStubRP(handle, records)
	pager := NewPagerRP(handle, stub, 0, 2)

	got := drainPager(t, pager)
	want := []uint64{1, 2}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
