package pipeline

// minMaxHeap is a double-ended priority queue: both the current minimum and
// the current maximum are available in O(log n), which a standard
// container/heap (single order) cannot offer. The sorter RP needs both:
// pop-min to discard the current worst candidate on overflow, pop-max to
// drain results best-first (spec.md §4.6 "Rationale for min-max heap").
//
// Levels alternate min/max starting at the root (level 0, min). This is the
// classical Atkinson/Sack/Santoro/Strothotte construction.
type minMaxHeap struct {
	items []*Record
	// worse reports whether a ranks worse than b under the active
	// comparator — i.e. a belongs closer to the heap's min side. Ties
	// must be broken deterministically (doc_id) so this is a strict
	// weak ordering.
	worse func(a, b *Record) bool
}

func newMinMaxHeap(worse func(a, b *Record) bool) *minMaxHeap {
	return &minMaxHeap{worse: worse}
}

func (h *minMaxHeap) Len() int { return len(h.items) }

// PeekMin returns the current worst record without removing it.
func (h *minMaxHeap) PeekMin() *Record {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// PeekMax returns the current best record without removing it.
func (h *minMaxHeap) PeekMax() *Record {
	switch len(h.items) {
	case 0:
		return nil
	case 1:
		return h.items[0]
	case 2:
		return h.items[1]
	default:
		if h.worse(h.items[1], h.items[2]) {
			return h.items[2]
		}
		return h.items[1]
	}
}

// Push inserts r and restores the heap property.
func (h *minMaxHeap) Push(r *Record) {
	h.items = append(h.items, r)
	h.trickleUp(len(h.items) - 1)
}

// PopMin removes and returns the current worst record.
func (h *minMaxHeap) PopMin() *Record {
	if len(h.items) == 0 {
		return nil
	}
	return h.removeAt(0)
}

// PopMax removes and returns the current best record.
func (h *minMaxHeap) PopMax() *Record {
	switch len(h.items) {
	case 0:
		return nil
	case 1:
		return h.removeAt(0)
	case 2:
		return h.removeAt(1)
	default:
		if h.worse(h.items[1], h.items[2]) {
			return h.removeAt(2)
		}
		return h.removeAt(1)
	}
}

func (h *minMaxHeap) removeAt(i int) *Record {
	n := len(h.items) - 1
	victim := h.items[i]
	h.items[i] = h.items[n]
	h.items[n] = nil
	h.items = h.items[:n]
	if i < len(h.items) {
		h.trickleDown(i)
		h.trickleUp(i)
	}
	return victim
}

func isMinLevel(i int) bool {
	level := 0
	for p := i + 1; p > 1; p >>= 1 {
		level++
	}
	return level%2 == 0
}

func parentOf(i int) int  { return (i - 1) / 2 }
func hasParent(i int) bool { return i > 0 }

func (h *minMaxHeap) trickleUp(i int) {
	if !hasParent(i) {
		return
	}
	p := parentOf(i)
	if isMinLevel(i) {
		if h.worse(h.items[p], h.items[i]) {
			h.swap(i, p)
			h.trickleUpMax(p)
		} else {
			h.trickleUpMin(i)
		}
	} else {
		if h.worse(h.items[i], h.items[p]) {
			h.swap(i, p)
			h.trickleUpMin(p)
		} else {
			h.trickleUpMax(i)
		}
	}
}

// trickleUpMin assumes i sits on a min level and swaps it up against
// grandparents (also min level, the next level sharing the same min/max
// role) as long as i is worse than its grandparent, preserving the min
// level invariant that every min-level node is no better than any of its
// descendants.
func (h *minMaxHeap) trickleUpMin(i int) {
	for hasGrandparent(i) {
		gp := parentOf(parentOf(i))
		if h.worse(h.items[i], h.items[gp]) {
			h.swap(i, gp)
			i = gp
		} else {
			break
		}
	}
}

func (h *minMaxHeap) trickleUpMax(i int) {
	for hasGrandparent(i) {
		gp := parentOf(parentOf(i))
		if h.worse(h.items[gp], h.items[i]) {
			h.swap(i, gp)
			i = gp
		} else {
			break
		}
	}
}

func hasGrandparent(i int) bool {
	return hasParent(i) && hasParent(parentOf(i))
}

func (h *minMaxHeap) trickleDown(i int) {
	if isMinLevel(i) {
		h.trickleDownMin(i)
	} else {
		h.trickleDownMax(i)
	}
}

func (h *minMaxHeap) trickleDownMin(i int) {
	for {
		m, isGrandchild := h.smallestDescendant(i)
		if m < 0 {
			return
		}
		if isGrandchild {
			if h.worse(h.items[i], h.items[m]) {
				return
			}
			h.swap(i, m)
			p := parentOf(m)
			if h.worse(h.items[p], h.items[m]) {
				h.swap(m, p)
			}
			i = m
			continue
		}
		if h.worse(h.items[i], h.items[m]) {
			return
		}
		h.swap(i, m)
		return
	}
}

func (h *minMaxHeap) trickleDownMax(i int) {
	for {
		m, isGrandchild := h.largestDescendant(i)
		if m < 0 {
			return
		}
		if isGrandchild {
			if h.worse(h.items[m], h.items[i]) {
				return
			}
			h.swap(i, m)
			p := parentOf(m)
			if h.worse(h.items[m], h.items[p]) {
				h.swap(m, p)
			}
			i = m
			continue
		}
		if h.worse(h.items[m], h.items[i]) {
			return
		}
		h.swap(i, m)
		return
	}
}

// smallestDescendant returns the index of the smallest (worst) among i's
// children and grandchildren, and whether that index is a grandchild
// (two levels down) rather than a direct child.
func (h *minMaxHeap) smallestDescendant(i int) (idx int, isGrandchild bool) {
	idx = -1
	consider := func(j int) {
		if j >= len(h.items) {
			return
		}
		if idx == -1 || h.worse(h.items[j], h.items[idx]) {
			idx = j
		}
	}
	left, right := 2*i+1, 2*i+2
	consider(left)
	consider(right)
	grandStart := idx
	for _, c := range []int{left, right} {
		consider(2*c + 1)
		consider(2*c + 2)
	}
	isGrandchild = idx != grandStart
	return idx, isGrandchild
}

func (h *minMaxHeap) largestDescendant(i int) (idx int, isGrandchild bool) {
	idx = -1
	consider := func(j int) {
		if j >= len(h.items) {
			return
		}
		if idx == -1 || h.worse(h.items[idx], h.items[j]) {
			idx = j
		}
	}
	left, right := 2*i+1, 2*i+2
	consider(left)
	consider(right)
	grandStart := idx
	for _, c := range []int{left, right} {
		consider(2*c + 1)
		consider(2*c + 2)
	}
	isGrandchild = idx != grandStart
	return idx, isGrandchild
}

func (h *minMaxHeap) swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
