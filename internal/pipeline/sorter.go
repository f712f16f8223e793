package pipeline

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// SortField is one key of a by-field sort order. Up to MaxSortFields keys
// are honored (spec.md §4.6 "Comparators").
type SortField struct {
	Key       string
	Ascending bool
}

// MaxSortFields bounds the number of keys a by-field sort may use.
const MaxSortFields = 16

// SorterRP is the pipeline's top-K reducer (spec.md §4.6, component C6). It
// accumulates upstream records into a min-max heap, returning PAUSED while
// accumulating, then drains the heap best-first once upstream is
// exhausted. PAUSED never escapes the RP: Next loops on it internally.
type SorterRP struct {
	baseRP

	k         int // 0 = dynamic growth, unlimited
	worse     func(a, b *Record) bool
	heap      *minMaxHeap
	fields    []SortField
	loader    host.FieldLoader
	noMemPool bool

	pooled *Record

	loadKeys         []string
	loadKeysComputed bool

	yielding     bool
	yieldedCount int
}

var _ RP = (*SorterRP)(nil)

// NewSorterRP creates a by-score sorter: greatest score wins, ties broken
// by ascending doc_id. k=0 means unbounded (dynamic growth) accumulation.
func NewSorterRP(handle *Handle, upstream RP, k int, noMemPool bool) *SorterRP {
	return newSorterRP(handle, upstream, k, nil, nil, noMemPool, scoreWorse)
}

// NewFieldSorterRP creates a by-field sorter over fields (at most
// MaxSortFields; excess are ignored). loader fetches any sort key missing
// from a record's row the first time it's needed; it may be nil if every
// field is guaranteed present in the sort vector.
func NewFieldSorterRP(handle *Handle, upstream RP, k int, fields []SortField, loader host.FieldLoader, noMemPool bool) *SorterRP {
	if len(fields) > MaxSortFields {
		fields = fields[:MaxSortFields]
	}
	return newSorterRP(handle, upstream, k, fields, loader, noMemPool, fieldWorse(fields))
}

func newSorterRP(handle *Handle, upstream RP, k int, fields []SortField, loader host.FieldLoader, noMemPool bool, worse func(a, b *Record) bool) *SorterRP {
	return &SorterRP{
		baseRP:    baseRP{upstream: upstream, handle: handle, kind: KindSorter},
		k:         k,
		worse:     worse,
		heap:      newMinMaxHeap(worse),
		fields:    fields,
		loader:    loader,
		noMemPool: noMemPool,
	}
}

// scoreWorse: lower score is worse; equal score, higher doc_id is worse
// (lower doc_id wins, spec.md §4.6 "By score").
func scoreWorse(a, b *Record) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}

// docIDWorse breaks a tie by doc_id, also ascending-inverted: under an
// ascending field sort the lower doc_id wins (spec.md §4.6 "final
// tie-break is doc_id ordering, also ascending-inverted"); under
// descending it flips, so the higher doc_id wins.
func docIDWorse(a, b *Record, ascending bool) bool {
	if ascending {
		return a.DocID > b.DocID
	}
	return a.DocID < b.DocID
}

// fieldWorse builds a by-field comparator. Per field, a missing value
// loses to a present one; if both are missing at a given key the
// comparison falls back directly to doc_id, ascending-inverted by that
// field's own bit, rather than continuing to the next key (spec.md §4.6
// "By fields"). On a field with the ascending flag the lower value wins;
// on a field without it the higher value wins. If every field ties, the final
// fallback breaks on doc_id ascending-inverted by the last field's bit.
func fieldWorse(fields []SortField) func(a, b *Record) bool {
	return func(a, b *Record) bool {
		lastAscending := false
		for _, f := range fields {
			lastAscending = f.Ascending
			va, oka := a.Row.Get(f.Key)
			vb, okb := b.Row.Get(f.Key)
			switch {
			case oka && !okb:
				return false // a present, b missing: b loses, a is not worse
			case !oka && okb:
				return true // a missing, b present: a loses
			case !oka && !okb:
				return docIDWorse(a, b, f.Ascending) // both missing: fall back to doc_id
			}
			c := va.Compare(vb)
			if f.Ascending {
				c = -c
			}
			if c != 0 {
				return c < 0 // a ranks after b on this field: a is worse
			}
		}
		return docIDWorse(a, b, lastAscending)
	}
}

// Next implements RP.
func (s *SorterRP) Next(ctx context.Context, out *Record) Status {
	if s.yielding {
		return s.yield(out)
	}
	for {
		st := s.accumulateOne(ctx)
		switch st {
		case Paused:
			continue
		case EOF:
			s.yielding = true
			return s.yield(out)
		default:
			return st
		}
	}
}

// accumulateOne runs one step of spec.md §4.6's "Accumulate step". It
// returns Paused to keep looping, EOF to transition to the yield phase, or
// any other status to propagate unchanged.
func (s *SorterRP) accumulateOne(ctx context.Context) Status {
	if s.pooled == nil || s.noMemPool {
		s.pooled = NewRecord(s.handle.Metadata)
	} else {
		s.pooled.Row.Wipe()
	}

	st := s.upstream.Next(ctx, s.pooled)
	switch st {
	case EOF:
		return EOF
	case TimedOut:
		if s.handle.TimeoutPolicy() == PolicyReturn {
			return EOF
		}
		return TimedOut
	case OK:
		// fall through to accumulate
	default:
		return st
	}

	if s.fields != nil {
		if !s.loadKeysComputed {
			var missing []string
			for _, f := range s.fields {
				if !s.pooled.Row.Has(f.Key) {
					missing = append(missing, f.Key)
				}
			}
			s.loadKeys = missing
			s.loadKeysComputed = true
		}
		if len(s.loadKeys) > 0 && s.loader != nil {
			req := host.LoadRequest{Dmd: s.pooled.Dmd, Keys: s.loadKeys, Mode: host.LoadKeyList}
			if err := s.loader.Load(ctx, &s.pooled.Row, req); err != nil {
				s.pooled.Clear()
				s.handle.DecTotal()
				return Paused
			}
		}
	}

	if s.k == 0 || s.heap.Len() < s.k {
		newRec := s.pooled
		newRec.DropIndexResult()
		if s.heap.Len() == 0 || newRec.Score < s.handle.MinScore() {
			s.handle.SetMinScore(newRec.Score)
		}
		s.heap.Push(newRec)
		s.pooled = nil
		return Paused
	}

	m := s.heap.PeekMin()
	if m.Score > s.handle.MinScore() {
		s.handle.SetMinScore(m.Score)
	}

	if s.worse(m, s.pooled) {
		evicted := s.heap.PopMin()
		newRec := s.pooled
		newRec.DropIndexResult()
		evicted.Swap(newRec)
		s.heap.Push(evicted)
		newRec.Clear()
		s.pooled = newRec
		return Paused
	}

	s.pooled.Clear()
	return Paused
}

// yield implements spec.md §4.6's "Yield step".
func (s *SorterRP) yield(out *Record) Status {
	if s.k > 0 && s.yieldedCount >= s.k {
		return EOF
	}
	popped := s.heap.PopMax()
	if popped == nil {
		return EOF
	}
	out.CopyFrom(popped)
	s.yieldedCount++
	return OK
}

// Free releases the pooled scratch slot and everything still resident in
// the heap (records that were never yielded). It does not free upstream.
func (s *SorterRP) Free() {
	if s.pooled != nil {
		s.pooled.Clear()
		s.pooled = nil
	}
	for s.heap.Len() > 0 {
		s.heap.PopMin().Clear()
	}
}
