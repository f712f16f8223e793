package kvsearch

import "github.com/kailas-cloud/kvsearch/internal/pipeline"

// Sentinel errors re-exported from the pipeline layer. Use errors.Is() to
// check. Transient conditions (a missing posting, a load failure, lock
// contention) never surface here — only structural, pipeline-fatal ones
// do.
var (
	ErrInvariantBreach  = pipeline.ErrInvariantBreach
	ErrAllocationFailed = pipeline.ErrAllocationFailed
)
