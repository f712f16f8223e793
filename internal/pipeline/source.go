package pipeline

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// sourceDeadlineCheckEvery amortizes the deadline check to every Kth pull
// rather than on every call, per spec.md §4.2 "coarse timeout check
// counter".
const sourceDeadlineCheckEvery = 32

// SourceRP pulls from the root index iterator, applies the deletion and
// shard-slot filters, and stamps document metadata onto each accepted
// record (spec.md §4.2, component C3).
type SourceRP struct {
	baseRP

	iterator host.IndexIterator
	shard    host.ShardHook
	eof      bool
	pulls    int
}

var _ RP = (*SourceRP)(nil)

// NewSourceRP creates the chain root. iterator may be nil, meaning an
// already-exhausted source (EOF immediately); shard may be nil to
// disable slot filtering.
func NewSourceRP(handle *Handle, iterator host.IndexIterator, shard host.ShardHook) *SourceRP {
	return &SourceRP{
		baseRP:   baseRP{handle: handle, kind: KindSource},
		iterator: iterator,
		shard:    shard,
	}
}

// Next implements RP. See spec.md §4.2 for the numbered algorithm this
// follows exactly.
func (s *SourceRP) Next(ctx context.Context, out *Record) Status {
	if s.eof {
		return EOF
	}

	s.pulls++
	if s.pulls%sourceDeadlineCheckEvery == 0 && s.handle.DeadlineExceeded() {
		return TimedOut
	}

	if s.iterator == nil {
		s.eof = true
		return EOF
	}

	var rec host.IndexRecord
	for {
		switch s.iterator.Read(ctx, &rec) {
		case host.ReadEOF:
			s.eof = true
			return EOF
		case host.ReadTimedOut:
			return TimedOut
		case host.ReadNotFound:
			continue
		}

		dmd, ok := s.handle.Metadata.Borrow(rec.DocID)
		if !ok || dmd.IsDeleted() {
			if ok {
				s.handle.Metadata.Return(dmd)
			}
			continue
		}

		if s.shard != nil {
			lo, hi := s.shard.SlotRange()
			if slot := s.shard.SlotOf(dmd.KeyPtr); slot < lo || slot > hi {
				s.handle.Metadata.Return(dmd)
				continue
			}
		}

		s.handle.IncTotal()

		stamped := rec
		out.DocID = rec.DocID
		out.Score = 0
		out.IndexResult = &stamped
		out.Dmd = dmd
		out.Row.Rebind(dmd.SortVector)
		return OK
	}
}

// Free releases the root's hold on its iterator; there is nothing else to
// release, since any in-flight DocMeta borrow is owned by whichever
// record currently holds it, not by the source itself.
func (s *SourceRP) Free() { s.iterator = nil }
