package pipeline

import (
	"context"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// ScorerRP applies the scoring function and filters out sentinel-scored
// records (spec.md §4.3, component C4).
type ScorerRP struct {
	baseRP

	sf host.ScoringFunc
}

var _ RP = (*ScorerRP)(nil)

// NewScorerRP wraps upstream with a scoring stage.
func NewScorerRP(handle *Handle, upstream RP, sf host.ScoringFunc) *ScorerRP {
	return &ScorerRP{
		baseRP: baseRP{upstream: upstream, handle: handle, kind: KindScorer},
		sf:     sf,
	}
}

// Next implements RP.
func (s *ScorerRP) Next(ctx context.Context, out *Record) Status {
	for {
		st := s.upstream.Next(ctx, out)
		if st != OK {
			return st
		}

		var ir host.IndexRecord
		if out.IndexResult != nil {
			ir = *out.IndexResult
		} else {
			ir.DocID = out.DocID
		}
		score, explain := s.sf(ctx, ir, out.Dmd, s.handle.MinScore())
		out.Score = score
		if explain != nil {
			out.ScoreExplain = explain
		}

		if score == FilterOut {
			s.handle.DecTotal()
			out.Clear()
			continue
		}
		return OK
	}
}

// Free is a no-op: the scorer owns nothing, and upstream is freed by
// Handle.Free.
func (s *ScorerRP) Free() {}
