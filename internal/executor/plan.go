package executor

import (
	"github.com/kailas-cloud/kvsearch/internal/host"
	"github.com/kailas-cloud/kvsearch/internal/pipeline"
)

// Plan describes one query's worth of RP-chain construction. The host and
// query-planning layers that produce a Plan are out of scope (spec.md §1);
// Service only builds and drains the chain it describes.
type Plan struct {
	// Iterator is the root index iterator; nil means an immediately
	// exhausted source.
	Iterator host.IndexIterator
	// Shard activates slot-range filtering in the source RP when non-nil.
	Shard host.ShardHook

	// Scorer, when non-nil, inserts the scorer RP.
	Scorer host.ScoringFunc
	// LoadMetrics inserts the metrics-loader RP.
	LoadMetrics bool

	// SortFields sorts by field instead of by score when non-empty.
	SortFields []pipeline.SortField
	// K is the sorter's top-K cap; 0 means dynamic growth (unsorted/unbounded mode).
	K int

	Offset int
	Limit  int

	// Loader, when non-nil, inserts the buffer-and-locker / loader /
	// unlocker bracket (spec.md §4.8) after paging.
	Loader   host.FieldLoader
	LoadKeys []string // consulted only when LoadMode is host.LoadKeyList
	LoadMode host.LoadMode

	// CountOnly replaces the sink with the Counter RP (spec.md §4.10):
	// the result carries only a count, no records.
	CountOnly bool

	// Profile wraps every stage in a ProfilerRP.
	Profile bool
}
