package pipeline

import "context"

// Kind tags an RP for profiling and dispatch (spec.md §3 "RP node").
type Kind int

// Kind values, one per spec.md §2 component.
const (
	KindSource Kind = iota
	KindScorer
	KindMetricsLoader
	KindSorter
	KindPager
	KindLoader
	KindBufferLocker
	KindUnlocker
	KindProfiler
	KindCounter
)

// String implements fmt.Stringer for log fields and metric labels.
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindScorer:
		return "scorer"
	case KindMetricsLoader:
		return "metrics_loader"
	case KindSorter:
		return "sorter"
	case KindPager:
		return "pager"
	case KindLoader:
		return "loader"
	case KindBufferLocker:
		return "buffer_locker"
	case KindUnlocker:
		return "unlocker"
	case KindProfiler:
		return "profiler"
	case KindCounter:
		return "counter"
	default:
		return "unknown"
	}
}

// RP is the uniform result-processor contract every pipeline node
// implements (spec.md §4.1). An RP that has returned EOF or Error MUST
// continue to return the same status on every subsequent Next call
// (invariant 3, spec.md §8), and MUST have released any DocMeta it
// borrowed from upstream before doing so.
type RP interface {
	// Next pulls or computes the next record into out. Paused must never
	// be visible outside the pipeline — SorterRP.Next loops on it
	// internally until it has a real status to return.
	Next(ctx context.Context, out *Record) Status
	// Free releases resources the RP itself owns (heap contents, buffered
	// records, locks). It must NOT recurse into its upstream — Handle.Free
	// calls Free on every registered node exactly once, so an RP that also
	// frees its upstream would double-free it. The one exception is a
	// wrapper whose delegate is never registered on its own (ProfilerRP),
	// which must free what only it references.
	Free()
	// KindOf reports the RP's tag for profiling and dispatch.
	KindOf() Kind
}

// baseRP is embedded by every concrete RP to carry its upstream link and
// owning handle, mirroring the "stores its type tag... upstream... owning
// pipeline handle" shape of spec.md §3's RP node.
type baseRP struct {
	upstream RP
	handle   *Handle
	kind     Kind
}

func (b *baseRP) KindOf() Kind { return b.kind }
