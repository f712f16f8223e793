package pipeline

import (
	"context"
	"testing"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

func drainSorter(t *testing.T, s *SorterRP, meta *host.MemMetadataTable) []uint64 {
	t.Helper()
	var got []uint64
	for {
		var rec Record
		rec.BindMetadata(meta)
		st := s.Next(context.Background(), &rec)
		if st == EOF {
			break
		}
		if st != OK {
			t.Fatalf("unexpected status %s", st)
		}
		got = append(got, rec.DocID)
		rec.Clear()
	}
	return got
}

func TestSorterRP_TopKByScoreWithTies(t *testing.T) {
	meta := newTestMetaTable([]uint64{1, 2, 7, 10, 20}, nil)
	handle := NewHandle(meta, PolicyReturn)

	// Insertion order matters for which tied record gets evicted once the
	// heap is at capacity — doc 10 and doc 2 tie at score 5, doc 20 arrives
	// last and loses the tie to the already-resident lower doc_id.
	records := []Record{
		{DocID: 10, Score: 5, Dmd: mustBorrow(t, meta, 10)},
		{DocID: 2, Score: 5, Dmd: mustBorrow(t, meta, 2)},
		{DocID: 7, Score: 3, Dmd: mustBorrow(t, meta, 7)},
		{DocID: 1, Score: 7, Dmd: mustBorrow(t, meta, 1)},
		{DocID: 20, Score: 5, Dmd: mustBorrow(t, meta, 20)},
	}

	stub := newStubRP(handle, records)
	sorter := NewSorterRP(handle, stub, 3, false)

	got := drainSorter(t, sorter, meta)

	want := []uint64{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSorterRP_DynamicKGrowsUnbounded(t *testing.T) {
	meta := newTestMetaTable([]uint64{1, 2}, nil)
	handle := NewHandle(meta, PolicyReturn)

	records := []Record{
		{DocID: 1, Score: 9, Dmd: mustBorrow(t, meta, 1)},
	}
	stub := newStubRP(handle, records)
	sorter := NewSorterRP(handle, stub, 0, false)

	got := drainSorter(t, sorter, meta)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected [1], got %v", got)
	}
}

func TestSorterRP_FieldSortAscending(t *testing.T) {
	sortVectors := map[uint64]map[string]host.SortValue{
		1: {"price": host.NumericValue(30)},
		2: {"price": host.NumericValue(10)},
		3: {"price": host.NumericValue(20)},
	}
	meta := newTestMetaTable([]uint64{1, 2, 3}, sortVectors)
	handle := NewHandle(meta, PolicyReturn)

	records := []Record{
		{DocID: 1, Dmd: mustBorrow(t, meta, 1), Row: host.NewRow(sortVectors[1])},
		{DocID: 2, Dmd: mustBorrow(t, meta, 2), Row: host.NewRow(sortVectors[2])},
		{DocID: 3, Dmd: mustBorrow(t, meta, 3), Row: host.NewRow(sortVectors[3])},
	}
	stub := newStubRP(handle, records)
	sorter := NewFieldSorterRP(handle, stub, 3, []SortField{{Key: "price", Ascending: true}}, nil, false)

	got := drainSorter(t, sorter, meta)
	want := []uint64{2, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSorterRP_FieldSortLoadsMissingKeyOnce(t *testing.T) {
	sortVectors := map[uint64]map[string]host.SortValue{
		1: nil,
		2: nil,
	}
	meta := newTestMetaTable([]uint64{1, 2}, sortVectors)
	handle := NewHandle(meta, PolicyReturn)

	loader := &fakeLoader{values: map[string]host.SortValue{
		"price": host.NumericValue(1),
	}}

	records := []Record{
		{DocID: 1, Dmd: mustBorrow(t, meta, 1)},
		{DocID: 2, Dmd: mustBorrow(t, meta, 2)},
	}
	stub := newStubRP(handle, records)
	sorter := NewFieldSorterRP(handle, stub, 2, []SortField{{Key: "price", Ascending: true}}, loader, false)

	got := drainSorter(t, sorter, meta)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}
