package pipeline

import "github.com/kailas-cloud/kvsearch/internal/host"

// FilterOut is the sentinel score value instructing the scorer to discard
// a record and decrement the handle's total (spec.md §3, §4.3).
const FilterOut = -1

// Record is the carrier passed through the RP chain: produced by the
// source, mutated in place by each RP downstream, and recycled by the
// sorter's pooled slot. It owns exactly one borrowed DocMeta at a time and
// must release it through Clear before going out of scope (spec.md §3
// invariant (i)).
type Record struct {
	DocID        uint64
	Score        float64
	ScoreExplain *host.Explain
	IndexResult  *host.IndexRecord
	Dmd          *host.DocMeta
	Row          host.Row

	metadata host.MetadataTable
}

// NewRecord creates a record bound to the metadata table it will release
// its borrowed Dmd to.
func NewRecord(metadata host.MetadataTable) *Record {
	return &Record{metadata: metadata}
}

// BindMetadata associates the metadata table a record returns its Dmd to;
// used for a record that was not built with NewRecord (e.g. a zero-value
// Record).
func (r *Record) BindMetadata(metadata host.MetadataTable) { r.metadata = metadata }

// ReleaseDmd returns the currently held DocMeta to the metadata table, if
// any is held, and clears the field. Idempotent.
func (r *Record) ReleaseDmd() {
	if r.Dmd == nil {
		return
	}
	if r.metadata != nil {
		r.metadata.Return(r.Dmd)
	}
	r.Dmd = nil
}

// DropIndexResult clears the borrowed iterator handle. Required before a
// record crosses the sorter boundary into the heap (spec.md §4.6 step 4):
// index_result must never be dereferenced after the source RP advances.
func (r *Record) DropIndexResult() { r.IndexResult = nil }

// Clear releases the borrowed DocMeta, drops the index-result borrow, and
// wipes the row's dynamic fields, leaving the record ready for reuse.
// Per spec.md §4.1, an RP must release any Dmd it borrowed before
// returning EOF or Error; Clear is how RPs do that.
func (r *Record) Clear() {
	r.ReleaseDmd()
	r.DropIndexResult()
	r.Score = 0
	r.ScoreExplain = nil
	r.DocID = 0
	r.Row.Wipe()
}

// CopyFrom replaces the receiver's fields with src's, without touching
// the receiver's own metadata binding. Used to hand a heap-resident or
// buffered record to the caller's out slot (sorter yield, buffer drain).
func (r *Record) CopyFrom(src *Record) {
	r.DocID = src.DocID
	r.Score = src.Score
	r.ScoreExplain = src.ScoreExplain
	r.IndexResult = src.IndexResult
	r.Dmd = src.Dmd
	r.Row = src.Row
}

// Swap exchanges the contents of r and other, preserving each side's own
// metadata binding. Used by the sorter to recycle a popped heap minimum
// into the pooled slot instead of allocating.
func (r *Record) Swap(other *Record) {
	r.DocID, other.DocID = other.DocID, r.DocID
	r.Score, other.Score = other.Score, r.Score
	r.ScoreExplain, other.ScoreExplain = other.ScoreExplain, r.ScoreExplain
	r.IndexResult, other.IndexResult = other.IndexResult, r.IndexResult
	r.Dmd, other.Dmd = other.Dmd, r.Dmd
	r.Row, other.Row = other.Row, r.Row
}
