package pipeline

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// stubRP replays a fixed slice of records, then reports EOF forever after.
// Used to unit-test a single downstream RP in isolation, without wiring a
// full source/scorer chain.
type stubRP struct {
	baseRP
	records []Record
	i       int
	freed   bool
}

var _ RP = (*stubRP)(nil)

func newStubRP(handle *Handle, records []Record) *stubRP {
	return &stubRP{baseRP: baseRP{handle: handle, kind: KindSource}, records: records}
}

func (s *stubRP) Next(_ context.Context, out *Record) Status {
	if s.i >= len(s.records) {
		return EOF
	}
	out.CopyFrom(&s.records[s.i])
	s.i++
	return OK
}

func (s *stubRP) Free() { s.freed = true }

// newTestMetaTable builds a metadata table with one deleted=false DocMeta
// per docID given, keyed by a synthetic "doc-<id>" key pointer and the
// given sort vector (nil is fine).
func newTestMetaTable(docIDs []uint64, sortVectors map[uint64]map[string]host.SortValue) *host.MemMetadataTable {
	t := host.NewMemMetadataTable()
	for _, id := range docIDs {
		t.Put(id, &host.DocMeta{
			KeyPtr:     fmt.Sprintf("doc-%d", id),
			SortVector: sortVectors[id],
		})
	}
	return t
}

// constScorer returns a fixed score for every posting, ignoring minScore.
func constScorer(score float64) host.ScoringFunc {
	return func(_ context.Context, ir host.IndexRecord, _ *host.DocMeta, _ float64) (float64, *host.Explain) {
		return score, nil
	}
}

// metricScorer reads the "score" metric straight through, filtering values
// below a fixed floor.
func metricScorer(floor float64) host.ScoringFunc {
	return func(_ context.Context, ir host.IndexRecord, _ *host.DocMeta, _ float64) (float64, *host.Explain) {
		v := ir.Metrics["score"]
		if v < floor {
			return FilterOut, nil
		}
		return v, nil
	}
}

// fakeLoader writes a fixed value for every requested key, or fails for
// records whose DocMeta key pointer is in failFor.
type fakeLoader struct {
	values  map[string]host.SortValue
	failFor map[string]bool
}

func (f *fakeLoader) Load(_ context.Context, row *host.Row, req host.LoadRequest) error {
	if req.Dmd != nil && f.failFor[req.Dmd.KeyPtr] {
		return errLoadFailed
	}
	for _, k := range req.Keys {
		if v, ok := f.values[k]; ok {
			row.Write(k, v)
		}
	}
	return nil
}

var errLoadFailed = &Error{Kind: KindLoader, Err: ErrInvariantBreach}
