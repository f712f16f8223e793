package pipeline

import "context"

// CounterRP drains upstream, counting successful pulls and clearing each
// record immediately; it never yields a record itself (spec.md §4.10,
// component C11).
type CounterRP struct {
	baseRP

	count int

	// upstreamProfiler, if non-nil, is bumped by one when this RP first
	// sees EOF — Counter consumes that terminal pull itself, which would
	// otherwise leave the immediately-upstream profiler's count short by
	// one (spec.md §4.9 "Edge case").
	upstreamProfiler *ProfilerRP
	done             bool
}

var _ RP = (*CounterRP)(nil)

// NewCounterRP creates a draining counter over upstream. upstreamProfiler
// may be nil if profiling is disabled for this pipeline.
func NewCounterRP(handle *Handle, upstream RP, upstreamProfiler *ProfilerRP) *CounterRP {
	return &CounterRP{
		baseRP:           baseRP{upstream: upstream, handle: handle, kind: KindCounter},
		upstreamProfiler: upstreamProfiler,
	}
}

// Next implements RP. It always returns EOF once the drain completes,
// never OK.
func (c *CounterRP) Next(ctx context.Context, out *Record) Status {
	for {
		st := c.upstream.Next(ctx, out)
		switch st {
		case OK:
			c.count++
			out.Clear()
			continue
		case EOF:
			if !c.done {
				c.done = true
				if c.upstreamProfiler != nil {
					c.upstreamProfiler.BumpCount()
				}
			}
			return EOF
		default:
			return st
		}
	}
}

// Count returns the number of records drained so far.
func (c *CounterRP) Count() int { return c.count }

// Free is a no-op: the counter owns nothing, and upstream is freed by
// Handle.Free.
func (c *CounterRP) Free() {}
