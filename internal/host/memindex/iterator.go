// Package memindex provides a trivial in-memory host.IndexIterator over a
// fixed slice of posting entries. The real inverted index and its
// iterators are an external collaborator out of scope for this module;
// this package exists only so the pipeline has something concrete to pull
// from in tests and in the reference HTTP transport.
package memindex

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// SliceIterator replays a fixed slice of IndexRecords, then reports EOF.
type SliceIterator struct {
	records []host.IndexRecord
	pos     int
}

var _ host.IndexIterator = (*SliceIterator)(nil)

// NewSliceIterator creates an iterator over records, in order.
func NewSliceIterator(records []host.IndexRecord) *SliceIterator {
	return &SliceIterator{records: records}
}

// Read implements host.IndexIterator.
func (s *SliceIterator) Read(ctx context.Context, out *host.IndexRecord) host.ReadStatus {
	if s.pos >= len(s.records) {
		return host.ReadEOF
	}
	*out = s.records[s.pos]
	s.pos++
	return host.ReadOK
}
