package pipeline

import (
	"time"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// Handle is the pipeline's per-query state and chain owner (spec.md §3
// "Pipeline handle"). It is not safe for concurrent use — a pipeline is
// advanced by exactly one logical actor at a time (spec.md §5 "Scheduling
// model").
type Handle struct {
	chain []RP

	totalResults int
	minScore     float64
	err          error

	deadline      time.Time
	hasDeadline   bool
	timeoutPolicy TimeoutPolicy

	Metadata host.MetadataTable
}

// NewHandle creates an empty pipeline handle with the given timeout
// policy. Root and End are wired by the executor after each RP in the
// chain is constructed with a pointer back to this handle.
func NewHandle(metadata host.MetadataTable, policy TimeoutPolicy) *Handle {
	return &Handle{Metadata: metadata, timeoutPolicy: policy}
}

// Register appends rp to the chain, in root-to-end construction order.
// The executor calls this once per RP as it builds the chain so Free can
// tear them down in the same order without needing a downstream pointer
// on every RP.
func (h *Handle) Register(rp RP) { h.chain = append(h.chain, rp) }

// Root returns the chain's source RP.
func (h *Handle) Root() RP {
	if len(h.chain) == 0 {
		return nil
	}
	return h.chain[0]
}

// End returns the chain's sink RP — what the caller drains.
func (h *Handle) End() RP {
	if len(h.chain) == 0 {
		return nil
	}
	return h.chain[len(h.chain)-1]
}

// ArmDeadline sets an absolute deadline the source RP polls on an
// amortized schedule. A zero deadline (ArmDeadline never called) means
// unlimited.
func (h *Handle) ArmDeadline(d time.Time) {
	h.deadline = d
	h.hasDeadline = true
}

// Deadline returns the current absolute deadline and whether one is armed.
func (h *Handle) Deadline() (time.Time, bool) { return h.deadline, h.hasDeadline }

// DeadlineExceeded reports whether the armed deadline has passed.
func (h *Handle) DeadlineExceeded() bool {
	return h.hasDeadline && !h.deadline.IsZero() && time.Now().After(h.deadline)
}

// TimeoutPolicy returns the pipeline-wide timeout policy.
func (h *Handle) TimeoutPolicy() TimeoutPolicy { return h.timeoutPolicy }

// Total returns the count of records that passed filters so far.
func (h *Handle) Total() int { return h.totalResults }

// IncTotal increments the total-results counter (source RP, on accept).
func (h *Handle) IncTotal() { h.totalResults++ }

// DecTotal decrements the total-results counter (scorer filter-out,
// loader load-failure-in-sorter-path).
func (h *Handle) DecTotal() { h.totalResults-- }

// MinScore returns the lowest score currently tracked by the sorter,
// used as a pruning hint fed back to the scorer.
func (h *Handle) MinScore() float64 { return h.minScore }

// SetMinScore updates the pruning hint. Spec.md §4.6 step 5 only raises
// it; step 4 may lower it as the heap fills, so this setter takes any
// value the sorter computes and leaves the comparison to the caller.
func (h *Handle) SetMinScore(v float64) { h.minScore = v }

// Err returns the first fatal error recorded on the handle, if any.
func (h *Handle) Err() error { return h.err }

// SetErr records the first fatal error. Subsequent calls are no-ops so
// the original failure is preserved.
func (h *Handle) SetErr(err error) {
	if h.err == nil {
		h.err = err
	}
}

// Free tears down the chain in upstream order, root first, matching
// "destroying the pipeline destroys every RP in upstream order" (spec.md
// §3 "Ownership rules"). Handle owns this traversal alone: each RP's Free
// releases only its own state and must not recurse into upstream.Free,
// or a node reachable from two registered RPs (its direct successor and
// this loop) would be freed twice.
func (h *Handle) Free() {
	for _, rp := range h.chain {
		rp.Free()
	}
}
