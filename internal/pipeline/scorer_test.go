package pipeline

import (
	"context"
	"testing"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

func TestScorerRP_FiltersOutSentinelScore(t *testing.T) {
	meta := newTestMetaTable([]uint64{1, 2, 3}, nil)
	handle := NewHandle(meta, PolicyReturn)

	records := []Record{
		{DocID: 1, IndexResult: &host.IndexRecord{DocID: 1, Metrics: map[string]float64{"score": 0.9}}, Dmd: mustBorrow(t, meta, 1)},
		{DocID: 2, IndexResult: &host.IndexRecord{DocID: 2, Metrics: map[string]float64{"score": 0.1}}, Dmd: mustBorrow(t, meta, 2)},
		{DocID: 3, IndexResult: &host.IndexRecord{DocID: 3, Metrics: map[string]float64{"score": 0.5}}, Dmd: mustBorrow(t, meta, 3)},
	}
	handle.IncTotal()
	handle.IncTotal()
	handle.IncTotal()

	stub := newStubRP(handle, records)
	scorer := NewScorerRP(handle, stub, metricScorer(0.4))

	var got []uint64
	for {
		var rec Record
		rec.BindMetadata(meta)
		st := scorer.Next(context.Background(), &rec)
		if st == EOF {
			break
		}
		if st != OK {
			t.Fatalf("unexpected status %s", st)
		}
		got = append(got, rec.DocID)
		rec.Clear()
	}

	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected [1 3], got %v", got)
	}
	if handle.Total() != 2 {
		t.Fatalf("expected total 2 after filtering doc 2, got %d", handle.Total())
	}
}

func mustBorrow(t *testing.T, meta *host.MemMetadataTable, docID uint64) *host.DocMeta {
	t.Helper()
	dmd, ok := meta.Borrow(docID)
	if !ok {
		t.Fatalf("no metadata entry for doc %d", docID)
	}
	return dmd
}
