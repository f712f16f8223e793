package pipeline

import (
	"context"
	"time"
)

// ProfilerRP wraps any RP to accumulate call count and wall time spent in
// its delegate (spec.md §4.9, component C10). When profiling is enabled,
// the executor inserts one of these between every pair of consecutive RPs
// so per-stage timing is attributable.
type ProfilerRP struct {
	baseRP

	wrapped RP

	count int64
	spent time.Duration
}

var _ RP = (*ProfilerRP)(nil)

// NewProfilerRP wraps rp. kind reports rp's own kind for dispatch/metrics
// purposes, not KindProfiler — the wrapper is transparent to callers that
// inspect KindOf.
func NewProfilerRP(handle *Handle, rp RP) *ProfilerRP {
	return &ProfilerRP{
		baseRP:  baseRP{handle: handle, kind: KindProfiler},
		wrapped: rp,
	}
}

// Next implements RP.
func (p *ProfilerRP) Next(ctx context.Context, out *Record) Status {
	start := time.Now()
	st := p.wrapped.Next(ctx, out)
	p.spent += time.Since(start)
	p.count++
	return st
}

// Stats returns the accumulated call count and wall time.
func (p *ProfilerRP) Stats() (count int64, spent time.Duration) { return p.count, p.spent }

// KindOf overrides baseRP's tag with the wrapped RP's own kind, so the
// profiler is transparent to callers that inspect KindOf — per-stage
// metrics attribution depends on this (see NewProfilerRP).
func (p *ProfilerRP) KindOf() Kind { return p.wrapped.KindOf() }

// BumpCount increments the call count by one without timing anything. The
// Counter RP calls this on its immediately-upstream profiler when it
// exits, since Counter consumes the final EOF itself and would otherwise
// leave that pull uncounted (spec.md §4.9 "Edge case").
func (p *ProfilerRP) BumpCount() { p.count++ }

// Free releases the wrapped RP. Unlike other RPs, this one recurses: when
// profiling wraps a stage, only the ProfilerRP is registered on the
// handle (see Service.Execute's wrap), so the wrapped stage has no other
// owner to free it.
func (p *ProfilerRP) Free() { p.wrapped.Free() }
